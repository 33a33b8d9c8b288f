package routes

import (
	"civicsync/controllers"
	"civicsync/middlewares"
	"civicsync/models"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up the dashboards and the admin's user management.
func UserRoutes(r *gin.Engine, userController *controllers.UserController) {
	dashboard := r.Group("/api/dashboard", middlewares.AuthMiddleware())
	{
		dashboard.GET("/citizen", middlewares.RoleMiddleware(models.RoleCitizen), userController.CitizenDashboard)
		dashboard.GET("/authority", middlewares.RoleMiddleware(models.RoleAuthority), userController.AuthorityDashboard)
		dashboard.GET("/admin", middlewares.RoleMiddleware(models.RoleAdmin), userController.AdminDashboard)
	}

	users := r.Group("/api/users", middlewares.AuthMiddleware(), middlewares.RoleMiddleware(models.RoleAdmin))
	{
		users.GET("", userController.GetUsers)
		users.PUT("/:id/role", userController.UpdateUserRole)
	}
}
