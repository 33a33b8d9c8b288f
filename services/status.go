package services

import (
	"context"
	"fmt"
	"strings"

	"civicsync/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AuthorityStatuses are the targets an authority may set by hand.
var AuthorityStatuses = []models.IssueStatus{models.StatusInProgress, models.StatusResolved}

// NextStatuses lists the authority targets that are forward moves from current.
func NextStatuses(current models.IssueStatus) []models.IssueStatus {
	var out []models.IssueStatus
	for _, target := range AuthorityStatuses {
		if current.Before(target) {
			out = append(out, target)
		}
	}
	return out
}

type StatusUpdate struct {
	Status  models.IssueStatus
	Comment string
	Proof   *Upload
}

// UpdateStatus moves the issue forward on behalf of an authority, assigns it to
// them and records the change in the history. A supplied comment is also posted
// to the discussion.
func (s *IssueService) UpdateStatus(ctx context.Context, authority *models.Profile, issueID primitive.ObjectID, in StatusUpdate) (*models.Issue, error) {
	if authority == nil {
		return nil, ErrUnauthenticated
	}
	if authority.Role != models.RoleAuthority {
		return nil, ErrForbidden
	}
	if in.Status != models.StatusInProgress && in.Status != models.StatusResolved {
		return nil, invalid("status", "must be IN_PROGRESS or RESOLVED")
	}
	issue, err := s.store.FindIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("find issue %s: %w", issueID.Hex(), err)
	}
	if !issue.Status.Before(in.Status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, issue.Status, in.Status)
	}

	var proofURL *string
	if in.Proof != nil && len(in.Proof.Data) > 0 {
		url, err := s.storeImage(ctx, authority.ID, in.Proof)
		if err != nil {
			return nil, err
		}
		proofURL = &url
	}

	assignee := authority.ID
	ok, err := s.store.AdvanceStatus(ctx, issueID, models.StatusesBefore(in.Status), in.Status, &assignee)
	if err != nil {
		return nil, fmt.Errorf("update issue status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: issue changed concurrently", ErrInvalidTransition)
	}

	comment := strings.TrimSpace(in.Comment)
	if err := s.recordHistory(ctx, issueID, in.Status, authority.ID, comment, proofURL); err != nil {
		return nil, err
	}
	if comment != "" {
		if _, err := s.AddComment(ctx, authority, issueID, comment); err != nil {
			return nil, err
		}
	}
	s.log.Info("issue status updated",
		zap.String("issue_id", issueID.Hex()),
		zap.String("from", string(issue.Status)),
		zap.String("to", string(in.Status)),
		zap.String("authority_id", authority.ID.Hex()))

	updated, err := s.store.FindIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("reload issue %s: %w", issueID.Hex(), err)
	}
	return updated, nil
}
