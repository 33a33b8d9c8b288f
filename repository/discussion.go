package repository

import (
	"context"

	"civicsync/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var oldestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

func (r *Repository) InsertComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	_, err := r.comments.InsertOne(ctx, comment)
	return translate(err)
}

func (r *Repository) ListComments(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	cursor, err := r.comments.Find(ctx, bson.M{"issue_id": issueID}, oldestFirst)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *Repository) InsertStatusHistory(ctx context.Context, entry *models.StatusHistoryEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := r.history.InsertOne(ctx, entry)
	return translate(err)
}

func (r *Repository) ListStatusHistory(ctx context.Context, issueID primitive.ObjectID) ([]models.StatusHistoryEntry, error) {
	cursor, err := r.history.Find(ctx, bson.M{"issue_id": issueID}, oldestFirst)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.StatusHistoryEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
