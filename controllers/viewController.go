package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"civicsync/middlewares"
	"civicsync/models"
	"civicsync/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ViewController renders the HTML pages and handles their form posts.
type ViewController struct {
	base
	auth       *services.AuthService
	issues     *services.IssueService
	dashboards *services.DashboardService
	quota      *middlewares.IssueQuota
}

func NewViewController(auth *services.AuthService, issues *services.IssueService, dashboards *services.DashboardService,
	quota *middlewares.IssueQuota, opts Options, log *zap.Logger) *ViewController {
	return &ViewController{
		base:       base{opts: opts, log: log},
		auth:       auth,
		issues:     issues,
		dashboards: dashboards,
		quota:      quota,
	}
}

type reportForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Category    string `form:"category"`
	Location    string `form:"location"`
}

func (v *ViewController) render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["Viewer"] = middlewares.CurrentProfile(c)
	c.HTML(status, name, data)
}

// renderFailure shows the page matching err: a sign-in redirect, the access
// denied gate, a not-found page, or the generic error page.
func (v *ViewController) renderFailure(c *gin.Context, err error, subject string) {
	status, message := describe(err, subject)
	switch status {
	case http.StatusUnauthorized:
		c.Redirect(http.StatusSeeOther, "/login")
	case http.StatusForbidden:
		v.render(c, status, "denied.tmpl", "Access denied", nil)
	case http.StatusNotFound:
		v.render(c, status, "not_found.tmpl", "Not found", gin.H{"Message": message})
	case http.StatusInternalServerError:
		v.log.Error("page failed",
			zap.String("path", c.FullPath()),
			zap.String("user_id", c.GetString("user_id")),
			zap.Error(err))
		v.render(c, status, "error.tmpl", "Error", nil)
	default:
		v.render(c, status, "error.tmpl", "Error", gin.H{"Error": message})
	}
}

// inline reports whether err is a user mistake that the current page should show
// next to its form.
func inline(err error) (int, string, bool) {
	status, message := describe(err, "Issue")
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusRequestEntityTooLarge:
		return status, message, true
	}
	return status, message, false
}

// safeReturn accepts only same-site paths.
func safeReturn(raw, fallback string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	return raw
}

// RequireSession sends anonymous visitors to the sign-in page.
func (v *ViewController) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if middlewares.CurrentProfile(c) == nil {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole shows the access denied gate unless the viewer currently has role.
func (v *ViewController) RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := middlewares.CurrentProfile(c)
		if profile == nil {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		if profile.Role != role {
			v.render(c, http.StatusForbidden, "denied.tmpl", "Access denied", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (v *ViewController) Home(c *gin.Context) {
	v.render(c, http.StatusOK, "home.tmpl", "Home", nil)
}

func (v *ViewController) LoginPage(c *gin.Context) {
	if profile := middlewares.CurrentProfile(c); profile != nil {
		c.Redirect(http.StatusSeeOther, DashboardPath(profile.Role))
		return
	}
	v.render(c, http.StatusOK, "login.tmpl", "Sign in", gin.H{"Authority": false, "Email": ""})
}

func (v *ViewController) Login(c *gin.Context) {
	email, password := c.PostForm("email"), c.PostForm("password")

	ctx, cancel := v.requestContext(c)
	defer cancel()

	session, err := v.auth.SignIn(ctx, email, password)
	if err != nil {
		status, message, ok := loginFailure(err)
		if !ok {
			v.renderFailure(c, err, "User")
			return
		}
		v.render(c, status, "login.tmpl", "Sign in", gin.H{"Authority": false, "Email": email, "Error": message})
		return
	}
	v.setSessionCookie(c, session)
	c.Redirect(http.StatusSeeOther, DashboardPath(session.Profile.Role))
}

func loginFailure(err error) (int, string, bool) {
	status, message := describe(err, "User")
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusConflict:
		return status, message, true
	}
	return status, message, false
}

func (v *ViewController) AuthorityLoginPage(c *gin.Context) {
	if profile := middlewares.CurrentProfile(c); profile != nil && profile.Role == models.RoleAuthority {
		c.Redirect(http.StatusSeeOther, DashboardPath(profile.Role))
		return
	}
	v.render(c, http.StatusOK, "login.tmpl", "Authority portal", gin.H{"Authority": true, "Email": ""})
}

// AuthorityLogin admits only AUTHORITY profiles. Any rejection also clears the
// browser's session cookie.
func (v *ViewController) AuthorityLogin(c *gin.Context) {
	email, password := c.PostForm("email"), c.PostForm("password")

	ctx, cancel := v.requestContext(c)
	defer cancel()

	session, err := v.auth.SignInAuthority(ctx, email, password)
	if err != nil {
		v.clearSessionCookie(c)
		status, message, ok := loginFailure(err)
		if !ok {
			v.renderFailure(c, err, "User")
			return
		}
		// Rendered without a viewer: a rejected attempt shows no signed-in session.
		c.HTML(status, "login.tmpl", gin.H{
			"Title":     "Authority portal",
			"Authority": true,
			"Email":     email,
			"Error":     message,
		})
		return
	}
	v.setSessionCookie(c, session)
	c.Redirect(http.StatusSeeOther, DashboardPath(session.Profile.Role))
}

func (v *ViewController) SignupPage(c *gin.Context) {
	if profile := middlewares.CurrentProfile(c); profile != nil {
		c.Redirect(http.StatusSeeOther, DashboardPath(profile.Role))
		return
	}
	v.render(c, http.StatusOK, "signup.tmpl", "Sign up", gin.H{"Name": "", "Email": ""})
}

func (v *ViewController) Signup(c *gin.Context) {
	input := services.SignUpInput{
		Name:     c.PostForm("name"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	}

	ctx, cancel := v.requestContext(c)
	defer cancel()

	session, err := v.auth.SignUp(ctx, input)
	if err != nil {
		status, message, ok := loginFailure(err)
		if !ok {
			v.renderFailure(c, err, "User")
			return
		}
		v.render(c, status, "signup.tmpl", "Sign up", gin.H{"Name": input.Name, "Email": input.Email, "Error": message})
		return
	}
	v.setSessionCookie(c, session)
	c.Redirect(http.StatusSeeOther, DashboardPath(session.Profile.Role))
}

func (v *ViewController) Logout(c *gin.Context) {
	ctx, cancel := v.requestContext(c)
	defer cancel()

	if session := middlewares.CurrentSession(c); session != nil {
		if err := v.auth.SignOut(ctx, session); err != nil {
			v.log.Error("sign out failed", zap.String("user_id", session.Profile.ID.Hex()), zap.Error(err))
		}
	}
	v.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func (v *ViewController) Issues(c *gin.Context) {
	query := listQuery{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Sort:     c.Query("sort"),
	}
	data := gin.H{
		"Category": query.Category,
		"Status":   query.Status,
		"Sort":     query.Sort,
		"ReturnTo": c.Request.URL.RequestURI(),
		"Issues":   []services.IssueSummary{},
	}
	opts, problem := query.options()
	if problem != "" {
		data["Error"] = problem
		v.render(c, http.StatusBadRequest, "issues.tmpl", "Issues", data)
		return
	}

	ctx, cancel := v.requestContext(c)
	defer cancel()

	issues, err := v.issues.ListIssues(ctx, middlewares.CurrentProfile(c), opts)
	if err != nil {
		v.renderFailure(c, err, "Issue")
		return
	}
	data["Issues"] = issues
	v.render(c, http.StatusOK, "issues.tmpl", "Issues", data)
}

func (v *ViewController) Issue(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id")
	if !ok {
		v.render(c, http.StatusNotFound, "not_found.tmpl", "Not found", gin.H{"Message": "Issue not found"})
		return
	}
	v.showIssue(c, issueID, http.StatusOK, "")
}

func (v *ViewController) showIssue(c *gin.Context, issueID primitive.ObjectID, status int, message string) {
	ctx, cancel := v.requestContext(c)
	defer cancel()

	details, err := v.issues.GetIssueDetails(ctx, middlewares.CurrentProfile(c), issueID)
	if err != nil {
		v.renderFailure(c, err, "Issue")
		return
	}
	v.render(c, status, "issue.tmpl", details.Issue.Title, gin.H{"Details": details, "Error": message})
}

// issueAction runs a form post against an issue, then redirects. User mistakes are
// shown on the issue page instead.
func (v *ViewController) issueAction(c *gin.Context, action func(c *gin.Context, issueID primitive.ObjectID) error) {
	issueID, ok := objectIDParam(c, "id")
	if !ok {
		v.render(c, http.StatusNotFound, "not_found.tmpl", "Not found", gin.H{"Message": "Issue not found"})
		return
	}
	if err := action(c, issueID); err != nil {
		if status, message, ok := inline(err); ok {
			v.showIssue(c, issueID, status, message)
			return
		}
		v.renderFailure(c, err, "Issue")
		return
	}
	c.Redirect(http.StatusSeeOther, safeReturn(c.PostForm("return_to"), "/issues/"+issueID.Hex()))
}

func (v *ViewController) Upvote(c *gin.Context) {
	v.issueAction(c, func(c *gin.Context, issueID primitive.ObjectID) error {
		ctx, cancel := v.requestContext(c)
		defer cancel()
		_, err := v.issues.ToggleUpvote(ctx, middlewares.CurrentProfile(c), issueID)
		return err
	})
}

func (v *ViewController) Verify(c *gin.Context) {
	v.issueAction(c, func(c *gin.Context, issueID primitive.ObjectID) error {
		ctx, cancel := v.requestContext(c)
		defer cancel()
		_, err := v.issues.CastVerification(ctx, middlewares.CurrentProfile(c), issueID)
		return err
	})
}

func (v *ViewController) Comment(c *gin.Context) {
	v.issueAction(c, func(c *gin.Context, issueID primitive.ObjectID) error {
		ctx, cancel := v.requestContext(c)
		defer cancel()
		_, err := v.issues.AddComment(ctx, middlewares.CurrentProfile(c), issueID, c.PostForm("content"))
		return err
	})
}

func (v *ViewController) ReportPage(c *gin.Context) {
	form := reportForm{Category: string(models.Other)}
	v.render(c, http.StatusOK, "report.tmpl", "Report an issue", gin.H{"Form": form})
}

// Report files a new issue against the reporter's daily quota and shows a
// confirmation that moves on to the issue list.
func (v *ViewController) Report(c *gin.Context) {
	var form reportForm
	if err := c.ShouldBind(&form); err != nil {
		v.render(c, http.StatusBadRequest, "report.tmpl", "Report an issue", gin.H{"Form": form, "Error": err.Error()})
		return
	}
	fail := func(status int, message string) {
		v.render(c, status, "report.tmpl", "Report an issue", gin.H{"Form": form, "Error": message})
	}

	image, err := v.optionalUpload(c, "image")
	if err != nil {
		if status, message, ok := inline(err); ok {
			fail(status, message)
			return
		}
		v.renderFailure(c, err, "Issue")
		return
	}

	ctx, cancel := v.requestContext(c)
	defer cancel()

	reporter := middlewares.CurrentProfile(c)
	allowed, retryAfter, err := v.quota.Take(ctx, reporter.ID.Hex())
	if err != nil {
		v.renderFailure(c, fmt.Errorf("take issue quota: %w", err), "Issue")
		return
	}
	if !allowed {
		fail(http.StatusTooManyRequests,
			fmt.Sprintf("You have reached today's report limit. Try again in %s.", retryAfter.Round(time.Minute)))
		return
	}

	issue, err := v.issues.CreateIssue(ctx, reporter, services.NewIssue{
		Title:       form.Title,
		Description: form.Description,
		Category:    models.IssueCategory(form.Category),
		Location:    form.Location,
		Image:       image,
	})
	if err != nil {
		if status, message, ok := inline(err); ok {
			fail(status, message)
			return
		}
		v.renderFailure(c, err, "Issue")
		return
	}
	v.render(c, http.StatusCreated, "report_success.tmpl", "Report submitted", gin.H{
		"Issue":   issue,
		"Refresh": "2;url=/issues",
	})
}

func (v *ViewController) CitizenDashboard(c *gin.Context) {
	ctx, cancel := v.requestContext(c)
	defer cancel()

	dash, err := v.dashboards.Citizen(ctx, middlewares.CurrentProfile(c))
	if err != nil {
		v.renderFailure(c, err, "Dashboard")
		return
	}
	v.render(c, http.StatusOK, "dashboard_citizen.tmpl", "My dashboard", gin.H{"Dashboard": dash})
}

func (v *ViewController) AuthorityDashboard(c *gin.Context) {
	v.authorityDashboard(c, http.StatusOK, "")
}

func (v *ViewController) authorityDashboard(c *gin.Context, status int, message string) {
	ctx, cancel := v.requestContext(c)
	defer cancel()

	dash, err := v.dashboards.Authority(ctx, middlewares.CurrentProfile(c))
	if err != nil {
		v.renderFailure(c, err, "Dashboard")
		return
	}
	v.render(c, status, "dashboard_authority.tmpl", "Authority dashboard", gin.H{"Dashboard": dash, "Error": message})
}

// UpdateStatus is the authority dashboard's status form.
func (v *ViewController) UpdateStatus(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id")
	if !ok {
		v.render(c, http.StatusNotFound, "not_found.tmpl", "Not found", gin.H{"Message": "Issue not found"})
		return
	}
	proof, err := v.optionalUpload(c, "proof")
	if err == nil {
		ctx, cancel := v.requestContext(c)
		defer cancel()
		_, err = v.issues.UpdateStatus(ctx, middlewares.CurrentProfile(c), issueID, services.StatusUpdate{
			Status:  models.IssueStatus(c.PostForm("status")),
			Comment: c.PostForm("comment"),
			Proof:   proof,
		})
	}
	if err != nil {
		if status, message, ok := inline(err); ok {
			v.authorityDashboard(c, status, message)
			return
		}
		v.renderFailure(c, err, "Issue")
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard/authority")
}

func (v *ViewController) AdminDashboard(c *gin.Context) {
	v.adminDashboard(c, http.StatusOK, "")
}

func (v *ViewController) adminDashboard(c *gin.Context, status int, message string) {
	ctx, cancel := v.requestContext(c)
	defer cancel()

	dash, err := v.dashboards.Admin(ctx, middlewares.CurrentProfile(c))
	if err != nil {
		v.renderFailure(c, err, "Dashboard")
		return
	}
	v.render(c, status, "dashboard_admin.tmpl", "Admin dashboard", gin.H{"Dashboard": dash, "Error": message})
}

// UpdateRole is the admin dashboard's role form.
func (v *ViewController) UpdateRole(c *gin.Context) {
	profileID, ok := objectIDParam(c, "id")
	if !ok {
		v.render(c, http.StatusNotFound, "not_found.tmpl", "Not found", gin.H{"Message": "User not found"})
		return
	}

	ctx, cancel := v.requestContext(c)
	defer cancel()

	err := v.dashboards.UpdateRole(ctx, middlewares.CurrentProfile(c), profileID, models.Role(c.PostForm("role")))
	if err != nil {
		if status, message, ok := inline(err); ok {
			v.adminDashboard(c, status, message)
			return
		}
		v.renderFailure(c, err, "User")
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard/admin")
}
