package repository

import (
	"context"
	"time"

	"civicsync/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ToggleUpvote deletes the pair if present, otherwise inserts it. Losing an
// insert race to the unique index still leaves the user upvoted.
func (r *Repository) ToggleUpvote(ctx context.Context, issueID, userID primitive.ObjectID) (bool, error) {
	pair := bson.M{"issue_id": issueID, "user_id": userID}
	res, err := r.upvotes.DeleteOne(ctx, pair)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	vote := models.Upvote{
		ID:        primitive.NewObjectID(),
		IssueID:   issueID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if _, err := r.upvotes.InsertOne(ctx, vote); err != nil && !mongo.IsDuplicateKeyError(err) {
		return false, err
	}
	return true, nil
}

// CountUpvotes counts upvotes per issue in a single aggregation. Issues without
// upvotes are absent from the map.
func (r *Repository) CountUpvotes(ctx context.Context, issueIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	out := make(map[primitive.ObjectID]int64, len(issueIDs))
	if len(issueIDs) == 0 {
		return out, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"issue_id": bson.M{"$in": issueIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$issue_id", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.upvotes.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		IssueID primitive.ObjectID `bson:"_id"`
		Count   int64              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.IssueID] = row.Count
	}
	return out, nil
}

func (r *Repository) UpvotedIssues(ctx context.Context, userID primitive.ObjectID, issueIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	out := make(map[primitive.ObjectID]bool, len(issueIDs))
	if len(issueIDs) == 0 {
		return out, nil
	}
	cursor, err := r.upvotes.Find(ctx,
		bson.M{"user_id": userID, "issue_id": bson.M{"$in": issueIDs}},
		options.Find().SetProjection(bson.M{"issue_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var votes []models.Upvote
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, err
	}
	for _, v := range votes {
		out[v.IssueID] = true
	}
	return out, nil
}

func (r *Repository) InsertVerification(ctx context.Context, issueID, userID primitive.ObjectID) (bool, error) {
	verification := models.Verification{
		ID:        primitive.NewObjectID(),
		IssueID:   issueID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if _, err := r.verifications.InsertOne(ctx, verification); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *Repository) CountVerifications(ctx context.Context, issueID primitive.ObjectID) (int64, error) {
	return r.verifications.CountDocuments(ctx, bson.M{"issue_id": issueID})
}

func (r *Repository) HasVerified(ctx context.Context, issueID, userID primitive.ObjectID) (bool, error) {
	count, err := r.verifications.CountDocuments(ctx, bson.M{"issue_id": issueID, "user_id": userID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
