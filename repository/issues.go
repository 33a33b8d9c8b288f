package repository

import (
	"context"
	"time"

	"civicsync/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *Repository) InsertIssue(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	_, err := r.issues.InsertOne(ctx, issue)
	return translate(err)
}

func (r *Repository) FindIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	if err := r.issues.FindOne(ctx, bson.M{"_id": id}).Decode(&issue); err != nil {
		return nil, translate(err)
	}
	return &issue, nil
}

func issueQuery(filter models.IssueFilter) bson.M {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.ReporterID != nil {
		query["user_id"] = *filter.ReporterID
	}
	if filter.QueueFor != nil {
		query["$or"] = []bson.M{
			{"assigned_to": *filter.QueueFor},
			{"status": bson.M{"$in": []models.IssueStatus{models.StatusVerified, models.StatusInProgress}}},
		}
	}
	return query
}

// ListIssues returns the matching issues, newest first.
func (r *Repository) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.issues.Find(ctx, issueQuery(filter), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// AdvanceStatus sets the status only while the stored status is one of from, so
// a stale caller can never move an issue backwards.
func (r *Repository) AdvanceStatus(ctx context.Context, id primitive.ObjectID, from []models.IssueStatus, to models.IssueStatus, assignee *primitive.ObjectID) (bool, error) {
	set := bson.M{"status": to, "updated_at": time.Now()}
	if assignee != nil {
		set["assigned_to"] = *assignee
	}
	res, err := r.issues.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": from}},
		bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
