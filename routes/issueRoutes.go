package routes

import (
	"civicsync/controllers"
	"civicsync/middlewares"
	"civicsync/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine, issueController *controllers.IssueController, quota *middlewares.IssueQuota, log *zap.Logger) {
	issue := r.Group("/api/issues", middlewares.AuthMiddleware())
	{
		issue.GET("", issueController.GetAllIssues)
		issue.POST("", middlewares.IssueRateLimiter(quota, log), issueController.CreateIssue)
		issue.GET("/:id", issueController.GetIssue)
		issue.POST("/:id/upvote", issueController.ToggleUpvote)
		issue.POST("/:id/verify", issueController.VerifyIssue)
		issue.POST("/:id/comments", issueController.AddComment)
		issue.PUT("/:id/status", middlewares.RoleMiddleware(models.RoleAuthority), issueController.UpdateStatus)
	}
}
