package services

import (
	"context"
	"fmt"

	"civicsync/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UpvoteResult struct {
	Upvoted bool  `json:"user_upvoted"`
	Upvotes int64 `json:"upvotes"`
}

// ToggleUpvote flips the voter's upvote on the issue and returns the fresh count.
func (s *IssueService) ToggleUpvote(ctx context.Context, voter *models.Profile, issueID primitive.ObjectID) (*UpvoteResult, error) {
	if voter == nil {
		return nil, ErrUnauthenticated
	}
	if _, err := s.store.FindIssue(ctx, issueID); err != nil {
		return nil, fmt.Errorf("find issue %s: %w", issueID.Hex(), err)
	}
	upvoted, err := s.store.ToggleUpvote(ctx, issueID, voter.ID)
	if err != nil {
		return nil, fmt.Errorf("toggle upvote: %w", err)
	}
	counts, err := s.store.CountUpvotes(ctx, []primitive.ObjectID{issueID})
	if err != nil {
		return nil, fmt.Errorf("count upvotes: %w", err)
	}
	return &UpvoteResult{Upvoted: upvoted, Upvotes: counts[issueID]}, nil
}

type VerificationResult struct {
	Verifications int64              `json:"verifications"`
	Status        models.IssueStatus `json:"status"`
	Promoted      bool               `json:"promoted"`
}

// CastVerification records the verifier's attestation. Once the fresh count reaches
// the threshold an OPEN issue becomes VERIFIED; the promotion is a conditional
// write, so concurrent verifiers can all attempt it and at most one succeeds.
func (s *IssueService) CastVerification(ctx context.Context, verifier *models.Profile, issueID primitive.ObjectID) (*VerificationResult, error) {
	if verifier == nil {
		return nil, ErrUnauthenticated
	}
	issue, err := s.store.FindIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("find issue %s: %w", issueID.Hex(), err)
	}
	inserted, err := s.store.InsertVerification(ctx, issueID, verifier.ID)
	if err != nil {
		return nil, fmt.Errorf("insert verification: %w", err)
	}
	if !inserted {
		return nil, ErrAlreadyVerified
	}
	count, err := s.store.CountVerifications(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("count verifications: %w", err)
	}

	result := &VerificationResult{Verifications: count, Status: issue.Status}
	if count < models.VerificationThreshold || issue.Status != models.StatusOpen {
		return result, nil
	}

	promoted, err := s.store.AdvanceStatus(ctx, issueID, []models.IssueStatus{models.StatusOpen}, models.StatusVerified, nil)
	if err != nil {
		return nil, fmt.Errorf("promote issue: %w", err)
	}
	if !promoted {
		// Another request moved the issue first.
		current, err := s.store.FindIssue(ctx, issueID)
		if err != nil {
			return nil, fmt.Errorf("reload issue %s: %w", issueID.Hex(), err)
		}
		result.Status = current.Status
		return result, nil
	}
	if err := s.recordHistory(ctx, issueID, models.StatusVerified, verifier.ID, "", nil); err != nil {
		return nil, err
	}
	s.log.Info("issue verified by community",
		zap.String("issue_id", issueID.Hex()),
		zap.Int64("verifications", count))
	result.Status = models.StatusVerified
	result.Promoted = true
	return result, nil
}
