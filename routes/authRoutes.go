package routes

import (
	"civicsync/controllers"
	"civicsync/middlewares"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine, authController *controllers.AuthController) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authController.RegisterUser)
		auth.POST("/login", authController.LoginUser)
		auth.POST("/authority/login", authController.LoginAuthority)
		auth.POST("/logout", middlewares.AuthMiddleware(), authController.LogoutUser)
		auth.GET("/me", middlewares.AuthMiddleware(), authController.GetMe)
	}
}
