package services

import (
	"context"
	"time"

	"civicsync/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileStore persists identities and their roles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	FindProfileByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error)
	FindProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	FindProfilesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	UpdateProfileRole(ctx context.Context, id primitive.ObjectID, role models.Role) error
}

// IssueStore persists issues. AdvanceStatus is a conditional write: it only applies
// when the stored status is one of from, and reports whether it did.
type IssueStore interface {
	InsertIssue(ctx context.Context, issue *models.Issue) error
	FindIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
	AdvanceStatus(ctx context.Context, id primitive.ObjectID, from []models.IssueStatus, to models.IssueStatus, assignee *primitive.ObjectID) (bool, error)
}

// VoteStore persists upvotes and verifications, both unique per (issue, user).
type VoteStore interface {
	// ToggleUpvote removes the user's upvote if present, otherwise adds one, and
	// returns whether the user has an upvote afterwards.
	ToggleUpvote(ctx context.Context, issueID, userID primitive.ObjectID) (bool, error)
	CountUpvotes(ctx context.Context, issueIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error)
	UpvotedIssues(ctx context.Context, userID primitive.ObjectID, issueIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
	// InsertVerification returns false when the user had already verified the issue.
	InsertVerification(ctx context.Context, issueID, userID primitive.ObjectID) (bool, error)
	CountVerifications(ctx context.Context, issueID primitive.ObjectID) (int64, error)
	HasVerified(ctx context.Context, issueID, userID primitive.ObjectID) (bool, error)
}

// DiscussionStore persists comments and the status history timeline.
type DiscussionStore interface {
	InsertComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error)
	InsertStatusHistory(ctx context.Context, entry *models.StatusHistoryEntry) error
	ListStatusHistory(ctx context.Context, issueID primitive.ObjectID) ([]models.StatusHistoryEntry, error)
}

// Store is the whole record store.
type Store interface {
	ProfileStore
	IssueStore
	VoteStore
	DiscussionStore
}

// BlobStore holds uploaded images.
type BlobStore interface {
	Store(ctx context.Context, path string, data []byte, contentType string) (string, error)
	PublicURL(handle string) string
}

// TokenRevoker remembers signed-out session tokens until they would have expired.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
