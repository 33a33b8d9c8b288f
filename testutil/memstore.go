// Package testutil holds in-memory stand-ins for the record store, blob store and
// token denylist, used by tests across packages.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"civicsync/models"
	"civicsync/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ services.Store = (*MemStore)(nil)

type pair struct {
	issue primitive.ObjectID
	user  primitive.ObjectID
}

// MemStore is a services.Store kept in memory. FailWith makes every call return
// the given error.
type MemStore struct {
	mu            sync.Mutex
	profiles      []*models.Profile
	issues        []*models.Issue
	upvotes       map[pair]bool
	verifications map[pair]bool
	comments      []models.Comment
	history       []models.StatusHistoryEntry
	FailWith      error
}

func NewMemStore() *MemStore {
	return &MemStore{
		upvotes:       map[pair]bool{},
		verifications: map[pair]bool{},
	}
}

func (m *MemStore) lock() (func(), error) {
	m.mu.Lock()
	if m.FailWith != nil {
		m.mu.Unlock()
		return func() {}, m.FailWith
	}
	return m.mu.Unlock, nil
}

func (m *MemStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	for _, p := range m.profiles {
		if p.Email == profile.Email {
			return models.ErrDuplicate
		}
	}
	if profile.ID.IsZero() {
		profile.ID = primitive.NewObjectID()
	}
	stored := *profile
	m.profiles = append(m.profiles, &stored)
	return nil
}

func (m *MemStore) FindProfileByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, p := range m.profiles {
		if p.ID == id {
			out := *p
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemStore) FindProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, p := range m.profiles {
		if p.Email == email {
			out := *p
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemStore) FindProfilesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Profile, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := map[primitive.ObjectID]models.Profile{}
	for _, id := range ids {
		for _, p := range m.profiles {
			if p.ID == id {
				out[id] = *p
			}
		}
	}
	return out, nil
}

func (m *MemStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := make([]models.Profile, 0, len(m.profiles))
	for i := len(m.profiles) - 1; i >= 0; i-- {
		out = append(out, *m.profiles[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) UpdateProfileRole(ctx context.Context, id primitive.ObjectID, role models.Role) error {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	for _, p := range m.profiles {
		if p.ID == id {
			p.Role = role
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *MemStore) InsertIssue(ctx context.Context, issue *models.Issue) error {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	stored := *issue
	m.issues = append(m.issues, &stored)
	return nil
}

func (m *MemStore) FindIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	for _, issue := range m.issues {
		if issue.ID == id {
			out := *issue
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func matches(issue *models.Issue, f models.IssueFilter) bool {
	if f.Category != "" && issue.Category != f.Category {
		return false
	}
	if f.Status != "" && issue.Status != f.Status {
		return false
	}
	if f.ReporterID != nil && issue.UserID != *f.ReporterID {
		return false
	}
	if f.QueueFor != nil {
		assigned := issue.AssignedTo != nil && *issue.AssignedTo == *f.QueueFor
		waiting := issue.Status == models.StatusVerified || issue.Status == models.StatusInProgress
		if !assigned && !waiting {
			return false
		}
	}
	return true
}

func (m *MemStore) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := []models.Issue{}
	for i := len(m.issues) - 1; i >= 0; i-- {
		if matches(m.issues[i], filter) {
			out = append(out, *m.issues[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) AdvanceStatus(ctx context.Context, id primitive.ObjectID, from []models.IssueStatus, to models.IssueStatus, assignee *primitive.ObjectID) (bool, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return false, err
	}
	for _, issue := range m.issues {
		if issue.ID != id {
			continue
		}
		for _, allowed := range from {
			if issue.Status == allowed {
				issue.Status = to
				issue.UpdatedAt = time.Now()
				if assignee != nil {
					a := *assignee
					issue.AssignedTo = &a
				}
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

func (m *MemStore) ToggleUpvote(ctx context.Context, issueID, userID primitive.ObjectID) (bool, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return false, err
	}
	key := pair{issueID, userID}
	if m.upvotes[key] {
		delete(m.upvotes, key)
		return false, nil
	}
	m.upvotes[key] = true
	return true, nil
}

func (m *MemStore) CountUpvotes(ctx context.Context, issueIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range issueIDs {
		wanted[id] = true
	}
	out := map[primitive.ObjectID]int64{}
	for key := range m.upvotes {
		if wanted[key.issue] {
			out[key.issue]++
		}
	}
	return out, nil
}

func (m *MemStore) UpvotedIssues(ctx context.Context, userID primitive.ObjectID, issueIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := map[primitive.ObjectID]bool{}
	for _, id := range issueIDs {
		if m.upvotes[pair{id, userID}] {
			out[id] = true
		}
	}
	return out, nil
}

func (m *MemStore) InsertVerification(ctx context.Context, issueID, userID primitive.ObjectID) (bool, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return false, err
	}
	key := pair{issueID, userID}
	if m.verifications[key] {
		return false, nil
	}
	m.verifications[key] = true
	return true, nil
}

func (m *MemStore) CountVerifications(ctx context.Context, issueID primitive.ObjectID) (int64, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return 0, err
	}
	var n int64
	for key := range m.verifications {
		if key.issue == issueID {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) HasVerified(ctx context.Context, issueID, userID primitive.ObjectID) (bool, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return false, err
	}
	return m.verifications[pair{issueID, userID}], nil
}

func (m *MemStore) InsertComment(ctx context.Context, comment *models.Comment) error {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	m.comments = append(m.comments, *comment)
	return nil
}

func (m *MemStore) ListComments(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := []models.Comment{}
	for _, c := range m.comments {
		if c.IssueID == issueID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) InsertStatusHistory(ctx context.Context, entry *models.StatusHistoryEntry) error {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return err
	}
	m.history = append(m.history, *entry)
	return nil
}

func (m *MemStore) ListStatusHistory(ctx context.Context, issueID primitive.ObjectID) ([]models.StatusHistoryEntry, error) {
	unlock, err := m.lock()
	defer unlock()
	if err != nil {
		return nil, err
	}
	out := []models.StatusHistoryEntry{}
	for _, h := range m.history {
		if h.IssueID == issueID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AddProfile inserts a profile with the given role and password and returns it.
func (m *MemStore) AddProfile(name, email string, role models.Role, password string) *models.Profile {
	profile := &models.Profile{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Name:      name,
		Role:      role,
		Password:  password,
		CreatedAt: time.Now(),
	}
	if err := profile.HashPassword(); err != nil {
		panic(fmt.Sprintf("hash password: %v", err))
	}
	if err := m.CreateProfile(context.Background(), profile); err != nil {
		panic(fmt.Sprintf("add profile: %v", err))
	}
	return profile
}

// SetIssueStatus overwrites an issue's status directly, bypassing the workflow.
func (m *MemStore) SetIssueStatus(id primitive.ObjectID, status models.IssueStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, issue := range m.issues {
		if issue.ID == id {
			issue.Status = status
		}
	}
}
