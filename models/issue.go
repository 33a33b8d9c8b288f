package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Garbage     IssueCategory = "Garbage"
	Roads       IssueCategory = "Roads"
	Water       IssueCategory = "Water"
	Electricity IssueCategory = "Electricity"
	Safety      IssueCategory = "Safety"
	Other       IssueCategory = "Other"
)

// Categories lists every category in display order.
var Categories = []IssueCategory{Garbage, Roads, Water, Electricity, Safety, Other}

func (c IssueCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	StatusOpen       IssueStatus = "OPEN"
	StatusVerified   IssueStatus = "VERIFIED"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusResolved   IssueStatus = "RESOLVED"
)

// StatusSequence is the only order an issue may move through.
var StatusSequence = []IssueStatus{StatusOpen, StatusVerified, StatusInProgress, StatusResolved}

// Rank returns the position of s in StatusSequence, or -1 for unknown values.
func (s IssueStatus) Rank() int {
	for i, known := range StatusSequence {
		if s == known {
			return i
		}
	}
	return -1
}

func (s IssueStatus) Valid() bool {
	return s.Rank() >= 0
}

// Before reports whether s comes strictly earlier than next in the sequence.
func (s IssueStatus) Before(next IssueStatus) bool {
	return s.Valid() && next.Valid() && s.Rank() < next.Rank()
}

// Label renders the status for humans, e.g. "IN PROGRESS".
func (s IssueStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// StatusesBefore returns every status that may legally advance to next.
func StatusesBefore(next IssueStatus) []IssueStatus {
	rank := next.Rank()
	if rank <= 0 {
		return nil
	}
	out := make([]IssueStatus, rank)
	copy(out, StatusSequence[:rank])
	return out
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Category    IssueCategory       `bson:"category" json:"category"`
	Location    string              `bson:"location" json:"location"`
	Status      IssueStatus         `bson:"status" json:"status"`
	ImageURL    *string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	UserID      primitive.ObjectID  `bson:"user_id" json:"user_id"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
}

// IssueFilter narrows an issue listing. Zero values mean "no constraint".
type IssueFilter struct {
	Category   IssueCategory
	Status     IssueStatus
	ReporterID *primitive.ObjectID
	// QueueFor selects issues assigned to this authority or waiting on any authority
	// (VERIFIED or IN_PROGRESS).
	QueueFor *primitive.ObjectID
}
