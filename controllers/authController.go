package controllers

import (
	"net/http"

	"civicsync/middlewares"
	"civicsync/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthController struct {
	base
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService, opts Options, log *zap.Logger) *AuthController {
	return &AuthController{base: base{opts: opts, log: log}, auth: auth}
}

type credentials struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RegisterUser handles user registration
func (a *AuthController) RegisterUser(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := a.requestContext(c)
	defer cancel()

	session, err := a.auth.SignUp(ctx, services.SignUpInput{Name: input.Name, Email: input.Email, Password: input.Password})
	if err != nil {
		a.fail(c, err, "User")
		return
	}
	a.setSessionCookie(c, session)
	c.JSON(http.StatusCreated, session)
}

// LoginUser handles user login
func (a *AuthController) LoginUser(c *gin.Context) {
	var input credentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := a.requestContext(c)
	defer cancel()

	session, err := a.auth.SignIn(ctx, input.Email, input.Password)
	if err != nil {
		a.fail(c, err, "User")
		return
	}
	a.setSessionCookie(c, session)
	c.JSON(http.StatusOK, session)
}

// LoginAuthority is the authority portal. Rejected attempts leave no session.
func (a *AuthController) LoginAuthority(c *gin.Context) {
	var input credentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := a.requestContext(c)
	defer cancel()

	session, err := a.auth.SignInAuthority(ctx, input.Email, input.Password)
	if err != nil {
		a.clearSessionCookie(c)
		a.fail(c, err, "User")
		return
	}
	a.setSessionCookie(c, session)
	c.JSON(http.StatusOK, session)
}

// GetMe returns the signed-in profile as currently stored.
func (a *AuthController) GetMe(c *gin.Context) {
	profile := middlewares.CurrentProfile(c)
	if profile == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// LogoutUser revokes the session token and clears the auth_token cookie
func (a *AuthController) LogoutUser(c *gin.Context) {
	ctx, cancel := a.requestContext(c)
	defer cancel()

	if err := a.auth.SignOut(ctx, middlewares.CurrentSession(c)); err != nil {
		a.fail(c, err, "Session")
		return
	}
	a.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}
