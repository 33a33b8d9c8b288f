package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"civicsync/models"

	"github.com/gabriel-vasile/mimetype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// IssueService is the issue workflow engine: creation, upvotes, verifications,
// comments and authority status updates.
type IssueService struct {
	store Store
	blobs BlobStore
	log   *zap.Logger
	now   func() time.Time
}

func NewIssueService(store Store, blobs BlobStore, log *zap.Logger) *IssueService {
	return &IssueService{store: store, blobs: blobs, log: log, now: time.Now}
}

// Upload is an image attached to a report or a status update.
type Upload struct {
	Filename string
	Data     []byte
}

type NewIssue struct {
	Title       string
	Description string
	Category    models.IssueCategory
	Location    string
	Image       *Upload
}

// IssueSummary is an issue as shown in lists.
type IssueSummary struct {
	models.Issue
	ReporterName string `json:"reporter_name"`
	Upvotes      int64  `json:"upvotes"`
	UserUpvoted  bool   `json:"user_upvoted"`
}

type SortOrder string

const (
	SortLatest  SortOrder = "latest"
	SortUpvotes SortOrder = "upvotes"
)

type ListOptions struct {
	Category models.IssueCategory
	Status   models.IssueStatus
	Sort     SortOrder
}

// CreateIssue stores the optional image, then inserts the issue as OPEN with no
// assignee and records the opening in the status history.
func (s *IssueService) CreateIssue(ctx context.Context, reporter *models.Profile, in NewIssue) (*models.Issue, error) {
	if reporter == nil {
		return nil, ErrUnauthenticated
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	switch {
	case in.Title == "":
		return nil, invalid("title", "is required")
	case in.Description == "":
		return nil, invalid("description", "is required")
	case in.Location == "":
		return nil, invalid("location", "is required")
	case !in.Category.Valid():
		return nil, invalid("category", "is not a known category")
	}

	var imageURL *string
	if in.Image != nil && len(in.Image.Data) > 0 {
		url, err := s.storeImage(ctx, reporter.ID, in.Image)
		if err != nil {
			return nil, err
		}
		imageURL = &url
	}

	now := s.now()
	issue := &models.Issue{
		ID:          primitive.NewObjectID(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Location:    in.Location,
		Status:      models.StatusOpen,
		ImageURL:    imageURL,
		UserID:      reporter.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertIssue(ctx, issue); err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}
	if err := s.recordHistory(ctx, issue.ID, models.StatusOpen, reporter.ID, "", nil); err != nil {
		return nil, err
	}
	s.log.Info("issue created",
		zap.String("issue_id", issue.ID.Hex()),
		zap.String("user_id", reporter.ID.Hex()),
		zap.String("category", string(issue.Category)))
	return issue, nil
}

// ListIssues returns every issue matching opts with reporter names and upvote
// counts, computed with one aggregate query per list.
func (s *IssueService) ListIssues(ctx context.Context, viewer *models.Profile, opts ListOptions) ([]IssueSummary, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	issues, err := s.store.ListIssues(ctx, models.IssueFilter{Category: opts.Category, Status: opts.Status})
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	summaries, err := s.summarize(ctx, viewer, issues)
	if err != nil {
		return nil, err
	}
	if opts.Sort == SortUpvotes {
		sort.SliceStable(summaries, func(i, j int) bool {
			return summaries[i].Upvotes > summaries[j].Upvotes
		})
	}
	return summaries, nil
}

func (s *IssueService) summarize(ctx context.Context, viewer *models.Profile, issues []models.Issue) ([]IssueSummary, error) {
	ids := make([]primitive.ObjectID, 0, len(issues))
	reporterIDs := make([]primitive.ObjectID, 0, len(issues))
	for _, issue := range issues {
		ids = append(ids, issue.ID)
		reporterIDs = append(reporterIDs, issue.UserID)
	}

	counts, err := s.store.CountUpvotes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count upvotes: %w", err)
	}
	upvoted := map[primitive.ObjectID]bool{}
	if viewer != nil {
		upvoted, err = s.store.UpvotedIssues(ctx, viewer.ID, ids)
		if err != nil {
			return nil, fmt.Errorf("load viewer upvotes: %w", err)
		}
	}
	reporters, err := s.store.FindProfilesByIDs(ctx, reporterIDs)
	if err != nil {
		return nil, fmt.Errorf("load reporters: %w", err)
	}

	out := make([]IssueSummary, 0, len(issues))
	for _, issue := range issues {
		out = append(out, IssueSummary{
			Issue:        issue,
			ReporterName: reporters[issue.UserID].Name,
			Upvotes:      counts[issue.ID],
			UserUpvoted:  upvoted[issue.ID],
		})
	}
	return out, nil
}

// Participant is the author of a comment or history entry.
type Participant struct {
	Name string      `json:"name"`
	Role models.Role `json:"role"`
}

type CommentView struct {
	models.Comment
	Author Participant `json:"author"`
}

type HistoryView struct {
	models.StatusHistoryEntry
	Actor Participant `json:"actor"`
}

// TimelineStep is one status of the fixed sequence as rendered on the details page.
type TimelineStep struct {
	Status    models.IssueStatus `json:"status"`
	Completed bool               `json:"completed"`
	Entry     *HistoryView       `json:"entry,omitempty"`
}

type IssueDetails struct {
	Issue         models.Issue   `json:"issue"`
	ReporterName  string         `json:"reporter_name"`
	Upvotes       int64          `json:"upvotes"`
	UserUpvoted   bool           `json:"user_upvoted"`
	Verifications int64          `json:"verifications"`
	UserVerified  bool           `json:"user_verified"`
	CanVerify     bool           `json:"can_verify"`
	Comments      []CommentView  `json:"comments"`
	History       []HistoryView  `json:"history"`
	Timeline      []TimelineStep `json:"timeline"`
}

func (s *IssueService) GetIssueDetails(ctx context.Context, viewer *models.Profile, id primitive.ObjectID) (*IssueDetails, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	issue, err := s.store.FindIssue(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find issue %s: %w", id.Hex(), err)
	}
	summaries, err := s.summarize(ctx, viewer, []models.Issue{*issue})
	if err != nil {
		return nil, err
	}
	verifications, err := s.store.CountVerifications(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count verifications: %w", err)
	}
	verified, err := s.store.HasVerified(ctx, id, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("load viewer verification: %w", err)
	}
	comments, err := s.store.ListComments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	history, err := s.store.ListStatusHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}

	people := make([]primitive.ObjectID, 0, len(comments)+len(history))
	for _, c := range comments {
		people = append(people, c.UserID)
	}
	for _, h := range history {
		people = append(people, h.ChangedBy)
	}
	profiles, err := s.store.FindProfilesByIDs(ctx, people)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	participant := func(id primitive.ObjectID) Participant {
		p := profiles[id]
		return Participant{Name: p.Name, Role: p.Role}
	}

	details := &IssueDetails{
		Issue:         *issue,
		ReporterName:  summaries[0].ReporterName,
		Upvotes:       summaries[0].Upvotes,
		UserUpvoted:   summaries[0].UserUpvoted,
		Verifications: verifications,
		UserVerified:  verified,
		CanVerify:     !verified && issue.Status == models.StatusOpen,
		Comments:      make([]CommentView, 0, len(comments)),
		History:       make([]HistoryView, 0, len(history)),
	}
	for _, c := range comments {
		details.Comments = append(details.Comments, CommentView{Comment: c, Author: participant(c.UserID)})
	}
	for _, h := range history {
		details.History = append(details.History, HistoryView{StatusHistoryEntry: h, Actor: participant(h.ChangedBy)})
	}
	details.Timeline = buildTimeline(issue.Status, details.History)
	return details, nil
}

func buildTimeline(current models.IssueStatus, history []HistoryView) []TimelineStep {
	steps := make([]TimelineStep, 0, len(models.StatusSequence))
	for i, status := range models.StatusSequence {
		step := TimelineStep{Status: status, Completed: i <= current.Rank()}
		for j := range history {
			if history[j].Status == status {
				step.Entry = &history[j]
				break
			}
		}
		steps = append(steps, step)
	}
	return steps
}

func (s *IssueService) AddComment(ctx context.Context, author *models.Profile, issueID primitive.ObjectID, content string) (*models.Comment, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "is required")
	}
	if _, err := s.store.FindIssue(ctx, issueID); err != nil {
		return nil, fmt.Errorf("find issue %s: %w", issueID.Hex(), err)
	}
	comment := &models.Comment{
		ID:        primitive.NewObjectID(),
		IssueID:   issueID,
		UserID:    author.ID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return comment, nil
}

// imageTypes are the upload formats that are served back unchanged.
var imageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

func (s *IssueService) storeImage(ctx context.Context, owner primitive.ObjectID, img *Upload) (string, error) {
	mtype := mimetype.Detect(img.Data)
	if !mimetype.EqualsAny(mtype.String(), imageTypes...) {
		return "", invalid("image", "must be a PNG, JPEG, GIF or WebP image")
	}
	// The stored name follows the detected type; the client's filename is ignored.
	path := fmt.Sprintf("%s/%d%s", owner.Hex(), s.now().UnixMilli(), mtype.Extension())
	handle, err := s.blobs.Store(ctx, path, img.Data, mtype.String())
	if err != nil {
		return "", fmt.Errorf("store image %s: %w", path, err)
	}
	return s.blobs.PublicURL(handle), nil
}

func (s *IssueService) recordHistory(ctx context.Context, issueID primitive.ObjectID, status models.IssueStatus, actor primitive.ObjectID, comment string, imageURL *string) error {
	entry := &models.StatusHistoryEntry{
		ID:        primitive.NewObjectID(),
		IssueID:   issueID,
		Status:    status,
		ChangedBy: actor,
		ImageURL:  imageURL,
		CreatedAt: s.now(),
	}
	if comment != "" {
		entry.Comment = &comment
	}
	if err := s.store.InsertStatusHistory(ctx, entry); err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
