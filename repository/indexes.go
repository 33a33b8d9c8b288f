package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique and lookup indexes the store relies on. The
// unique (issue_id, user_id) pairs are what make upvote toggles and
// verifications safe against concurrent requests.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	pairIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "issue_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	byIssueTime := mongo.IndexModel{
		Keys: bson.D{{Key: "issue_id", Value: 1}, {Key: "created_at", Value: 1}},
	}

	plan := []struct {
		collection *mongo.Collection
		indexes    []mongo.IndexModel
	}{
		{r.profiles, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}}},
		{r.issues, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "assigned_to", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		}},
		{r.upvotes, []mongo.IndexModel{pairIndex}},
		{r.verifications, []mongo.IndexModel{pairIndex}},
		{r.comments, []mongo.IndexModel{byIssueTime}},
		{r.history, []mongo.IndexModel{byIssueTime}},
	}
	for _, p := range plan {
		if _, err := p.collection.Indexes().CreateMany(ctx, p.indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", p.collection.Name(), err)
		}
	}
	return nil
}
