package controllers

import (
	"net/http"

	"civicsync/middlewares"
	"civicsync/models"
	"civicsync/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserController serves the dashboards and the admin's user management.
type UserController struct {
	base
	dashboards *services.DashboardService
}

func NewUserController(dashboards *services.DashboardService, opts Options, log *zap.Logger) *UserController {
	return &UserController{base: base{opts: opts, log: log}, dashboards: dashboards}
}

func (u *UserController) CitizenDashboard(c *gin.Context) {
	ctx, cancel := u.requestContext(c)
	defer cancel()

	dash, err := u.dashboards.Citizen(ctx, middlewares.CurrentProfile(c))
	if err != nil {
		u.fail(c, err, "Dashboard")
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (u *UserController) AuthorityDashboard(c *gin.Context) {
	ctx, cancel := u.requestContext(c)
	defer cancel()

	dash, err := u.dashboards.Authority(ctx, middlewares.CurrentProfile(c))
	if err != nil {
		u.fail(c, err, "Dashboard")
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (u *UserController) AdminDashboard(c *gin.Context) {
	ctx, cancel := u.requestContext(c)
	defer cancel()

	dash, err := u.dashboards.Admin(ctx, middlewares.CurrentProfile(c))
	if err != nil {
		u.fail(c, err, "Dashboard")
		return
	}
	c.JSON(http.StatusOK, dash)
}

// GetUsers lists every profile for an admin.
func (u *UserController) GetUsers(c *gin.Context) {
	ctx, cancel := u.requestContext(c)
	defer cancel()

	profiles, err := u.dashboards.Profiles(ctx, middlewares.CurrentProfile(c))
	if err != nil {
		u.fail(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// UpdateUserRole overwrites a profile's role.
func (u *UserController) UpdateUserRole(c *gin.Context) {
	profileID, ok := objectIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	var input struct {
		Role string `json:"role" binding:"required,oneof=CITIZEN AUTHORITY ADMIN"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := u.requestContext(c)
	defer cancel()

	if err := u.dashboards.UpdateRole(ctx, middlewares.CurrentProfile(c), profileID, models.Role(input.Role)); err != nil {
		u.fail(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated successfully"})
}
