package repository

import (
	"errors"

	"civicsync/models"
	"civicsync/services"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	profilesCollection      = "profiles"
	issuesCollection        = "issues"
	upvotesCollection       = "upvotes"
	verificationsCollection = "verifications"
	commentsCollection      = "comments"
	historyCollection       = "status_history"
)

// Repository is the MongoDB record store.
type Repository struct {
	profiles      *mongo.Collection
	issues        *mongo.Collection
	upvotes       *mongo.Collection
	verifications *mongo.Collection
	comments      *mongo.Collection
	history       *mongo.Collection
}

var _ services.Store = (*Repository)(nil)

func New(db *mongo.Database) *Repository {
	return &Repository{
		profiles:      db.Collection(profilesCollection),
		issues:        db.Collection(issuesCollection),
		upvotes:       db.Collection(upvotesCollection),
		verifications: db.Collection(verificationsCollection),
		comments:      db.Collection(commentsCollection),
		history:       db.Collection(historyCollection),
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return models.ErrDuplicate
	}
	return err
}
