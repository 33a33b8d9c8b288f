package services

import (
	"context"
	"fmt"

	"civicsync/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AchievementTier labels a citizen by how many issues they have reported.
func AchievementTier(issueCount int) string {
	switch {
	case issueCount >= 10:
		return "Gold Reporter"
	case issueCount >= 5:
		return "Silver Reporter"
	case issueCount >= 1:
		return "Bronze Reporter"
	default:
		return "New Citizen"
	}
}

// ResolutionRate is resolved/total, defined as 0 when there are no issues.
func ResolutionRate(resolved, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(resolved) / float64(total)
}

func countStatus(issues []IssueSummary, status models.IssueStatus) int {
	n := 0
	for _, issue := range issues {
		if issue.Status == status {
			n++
		}
	}
	return n
}

// DashboardService builds the three role-specific dashboards.
type DashboardService struct {
	issues *IssueService
	store  Store
	log    *zap.Logger
}

func NewDashboardService(issues *IssueService, store Store, log *zap.Logger) *DashboardService {
	return &DashboardService{issues: issues, store: store, log: log}
}

// RequireRole fails unless viewer is signed in with the wanted role.
func RequireRole(viewer *models.Profile, role models.Role) error {
	if viewer == nil {
		return ErrUnauthenticated
	}
	if viewer.Role != role {
		return ErrForbidden
	}
	return nil
}

type CitizenDashboard struct {
	Issues         []IssueSummary `json:"issues"`
	TotalIssues    int            `json:"total_issues"`
	OpenIssues     int            `json:"open_issues"`
	ResolvedIssues int            `json:"resolved_issues"`
	TotalUpvotes   int64          `json:"total_upvotes"`
	Tier           string         `json:"tier"`
}

func (d *DashboardService) Citizen(ctx context.Context, viewer *models.Profile) (*CitizenDashboard, error) {
	if err := RequireRole(viewer, models.RoleCitizen); err != nil {
		return nil, err
	}
	reporter := viewer.ID
	issues, err := d.store.ListIssues(ctx, models.IssueFilter{ReporterID: &reporter})
	if err != nil {
		return nil, fmt.Errorf("list own issues: %w", err)
	}
	summaries, err := d.issues.summarize(ctx, viewer, issues)
	if err != nil {
		return nil, err
	}
	dash := &CitizenDashboard{
		Issues:         summaries,
		TotalIssues:    len(summaries),
		OpenIssues:     countStatus(summaries, models.StatusOpen),
		ResolvedIssues: countStatus(summaries, models.StatusResolved),
		Tier:           AchievementTier(len(summaries)),
	}
	for _, s := range summaries {
		dash.TotalUpvotes += s.Upvotes
	}
	return dash, nil
}

// QueuedIssue is an issue in an authority's queue with the moves still open to it.
type QueuedIssue struct {
	IssueSummary
	NextStatuses []models.IssueStatus `json:"next_statuses"`
}

type AuthorityDashboard struct {
	Issues     []QueuedIssue `json:"issues"`
	Total      int           `json:"total"`
	Verified   int           `json:"verified"`
	InProgress int           `json:"in_progress"`
	Resolved   int           `json:"resolved"`
}

func (d *DashboardService) Authority(ctx context.Context, viewer *models.Profile) (*AuthorityDashboard, error) {
	if err := RequireRole(viewer, models.RoleAuthority); err != nil {
		return nil, err
	}
	me := viewer.ID
	issues, err := d.store.ListIssues(ctx, models.IssueFilter{QueueFor: &me})
	if err != nil {
		return nil, fmt.Errorf("list authority queue: %w", err)
	}
	summaries, err := d.issues.summarize(ctx, viewer, issues)
	if err != nil {
		return nil, err
	}
	dash := &AuthorityDashboard{
		Issues:     make([]QueuedIssue, 0, len(summaries)),
		Total:      len(summaries),
		Verified:   countStatus(summaries, models.StatusVerified),
		InProgress: countStatus(summaries, models.StatusInProgress),
		Resolved:   countStatus(summaries, models.StatusResolved),
	}
	for _, s := range summaries {
		dash.Issues = append(dash.Issues, QueuedIssue{IssueSummary: s, NextStatuses: NextStatuses(s.Status)})
	}
	return dash, nil
}

type AdminDashboard struct {
	Profiles       []models.Profile    `json:"profiles"`
	Issues         []IssueSummary      `json:"issues"`
	TotalUsers     int                 `json:"total_users"`
	TotalIssues    int                 `json:"total_issues"`
	ResolvedIssues int                 `json:"resolved_issues"`
	OpenIssues     int                 `json:"open_issues"`
	ResolutionRate float64             `json:"resolution_rate"`
	RoleCounts     map[models.Role]int `json:"role_counts"`
}

func (d *DashboardService) Admin(ctx context.Context, viewer *models.Profile) (*AdminDashboard, error) {
	if err := RequireRole(viewer, models.RoleAdmin); err != nil {
		return nil, err
	}
	profiles, err := d.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	issues, err := d.store.ListIssues(ctx, models.IssueFilter{})
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	summaries, err := d.issues.summarize(ctx, viewer, issues)
	if err != nil {
		return nil, err
	}
	dash := &AdminDashboard{
		Profiles:       profiles,
		Issues:         summaries,
		TotalUsers:     len(profiles),
		TotalIssues:    len(summaries),
		ResolvedIssues: countStatus(summaries, models.StatusResolved),
		OpenIssues:     countStatus(summaries, models.StatusOpen),
		RoleCounts:     make(map[models.Role]int, len(models.Roles)),
	}
	dash.ResolutionRate = ResolutionRate(dash.ResolvedIssues, dash.TotalIssues)
	for _, role := range models.Roles {
		dash.RoleCounts[role] = 0
	}
	for _, p := range profiles {
		dash.RoleCounts[p.Role]++
	}
	return dash, nil
}

// UpdateRole overwrites a profile's role. It takes effect on the target's next request.
func (d *DashboardService) UpdateRole(ctx context.Context, admin *models.Profile, profileID primitive.ObjectID, role models.Role) error {
	if err := RequireRole(admin, models.RoleAdmin); err != nil {
		return err
	}
	if !role.Valid() {
		return invalid("role", "must be CITIZEN, AUTHORITY or ADMIN")
	}
	if err := d.store.UpdateProfileRole(ctx, profileID, role); err != nil {
		return fmt.Errorf("update role of %s: %w", profileID.Hex(), err)
	}
	d.log.Info("profile role changed",
		zap.String("profile_id", profileID.Hex()),
		zap.String("role", string(role)),
		zap.String("admin_id", admin.ID.Hex()))
	return nil
}

// Profiles lists every profile, newest first, for an admin.
func (d *DashboardService) Profiles(ctx context.Context, admin *models.Profile) ([]models.Profile, error) {
	if err := RequireRole(admin, models.RoleAdmin); err != nil {
		return nil, err
	}
	profiles, err := d.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}
