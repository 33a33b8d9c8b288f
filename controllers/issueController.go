package controllers

import (
	"net/http"

	"civicsync/middlewares"
	"civicsync/models"
	"civicsync/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IssueController struct {
	base
	issues *services.IssueService
}

func NewIssueController(issues *services.IssueService, opts Options, log *zap.Logger) *IssueController {
	return &IssueController{base: base{opts: opts, log: log}, issues: issues}
}

type listQuery struct {
	Category string `form:"category"`
	Status   string `form:"status"`
	Sort     string `form:"sort"`
}

// options turns list query parameters into list options; "All" and empty mean no filter.
func (q listQuery) options() (services.ListOptions, string) {
	var opts services.ListOptions
	if q.Category != "" && q.Category != "All" {
		opts.Category = models.IssueCategory(q.Category)
		if !opts.Category.Valid() {
			return opts, "Invalid category"
		}
	}
	if q.Status != "" && q.Status != "All" {
		opts.Status = models.IssueStatus(q.Status)
		if !opts.Status.Valid() {
			return opts, "Invalid status"
		}
	}
	switch services.SortOrder(q.Sort) {
	case "", services.SortLatest:
		opts.Sort = services.SortLatest
	case services.SortUpvotes:
		opts.Sort = services.SortUpvotes
	default:
		return opts, "Invalid sort"
	}
	return opts, ""
}

// GetAllIssues lists issues with filters and the viewer's upvote flags.
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts, problem := query.options()
	if problem != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": problem})
		return
	}

	ctx, cancel := ic.requestContext(c)
	defer cancel()

	issues, err := ic.issues.ListIssues(ctx, middlewares.CurrentProfile(c), opts)
	if err != nil {
		ic.fail(c, err, "Issue")
		return
	}
	c.JSON(http.StatusOK, issues)
}

// CreateIssue handles a multipart report with an optional image field.
func (ic *IssueController) CreateIssue(c *gin.Context) {
	var input struct {
		Title       string `form:"title" binding:"required,max=200"`
		Description string `form:"description" binding:"required,max=1000"`
		Category    string `form:"category" binding:"required,issue_category"`
		Location    string `form:"location" binding:"required,max=200"`
	}
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	image, err := ic.optionalUpload(c, "image")
	if err != nil {
		ic.fail(c, err, "Issue")
		return
	}

	ctx, cancel := ic.requestContext(c)
	defer cancel()

	issue, err := ic.issues.CreateIssue(ctx, middlewares.CurrentProfile(c), services.NewIssue{
		Title:       input.Title,
		Description: input.Description,
		Category:    models.IssueCategory(input.Category),
		Location:    input.Location,
		Image:       image,
	})
	if err != nil {
		ic.fail(c, err, "Issue")
		return
	}
	c.JSON(http.StatusCreated, issue)
}

// GetIssue returns the issue details page data.
func (ic *IssueController) GetIssue(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := ic.requestContext(c)
	defer cancel()

	details, err := ic.issues.GetIssueDetails(ctx, middlewares.CurrentProfile(c), issueID)
	if err != nil {
		ic.fail(c, err, "Issue")
		return
	}
	c.JSON(http.StatusOK, details)
}

// ToggleUpvote adds the caller's upvote, or removes it if present.
func (ic *IssueController) ToggleUpvote(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := ic.requestContext(c)
	defer cancel()

	result, err := ic.issues.ToggleUpvote(ctx, middlewares.CurrentProfile(c), issueID)
	if err != nil {
		ic.fail(c, err, "Issue")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ic *IssueController) VerifyIssue(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := ic.requestContext(c)
	defer cancel()

	result, err := ic.issues.CastVerification(ctx, middlewares.CurrentProfile(c), issueID)
	if err != nil {
		ic.fail(c, err, "Issue")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ic *IssueController) AddComment(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}
	var input struct {
		Content string `json:"content" form:"content" binding:"required,max=2000"`
	}
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := ic.requestContext(c)
	defer cancel()

	comment, err := ic.issues.AddComment(ctx, middlewares.CurrentProfile(c), issueID, input.Content)
	if err != nil {
		ic.fail(c, err, "Issue")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// UpdateStatus accepts JSON, or a multipart form carrying a "proof" image.
func (ic *IssueController) UpdateStatus(c *gin.Context) {
	issueID, ok := objectIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}
	var input struct {
		Status  string `json:"status" form:"status" binding:"required,oneof=IN_PROGRESS RESOLVED"`
		Comment string `json:"comment" form:"comment" binding:"max=2000"`
	}
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proof, err := ic.optionalUpload(c, "proof")
	if err != nil {
		ic.fail(c, err, "Issue")
		return
	}

	ctx, cancel := ic.requestContext(c)
	defer cancel()

	issue, err := ic.issues.UpdateStatus(ctx, middlewares.CurrentProfile(c), issueID, services.StatusUpdate{
		Status:  models.IssueStatus(input.Status),
		Comment: input.Comment,
		Proof:   proof,
	})
	if err != nil {
		ic.fail(c, err, "Issue")
		return
	}
	c.JSON(http.StatusOK, issue)
}
