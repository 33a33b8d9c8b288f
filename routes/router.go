package routes

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"civicsync/controllers"
	"civicsync/middlewares"
	"civicsync/services"
	"civicsync/views"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies is everything the router hands to its controllers.
type Dependencies struct {
	Auth       *services.AuthService
	Issues     *services.IssueService
	Dashboards *services.DashboardService
	Quota      *middlewares.IssueQuota
	Options    controllers.Options

	AllowedOrigins []string
	// UploadsDir is served at /uploads when blobs are kept on local disk.
	UploadsDir string
	Log        *zap.Logger
}

// NewRouter builds the gin engine with the HTML views and the JSON API.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := controllers.RegisterValidators(); err != nil {
		return nil, err
	}
	pages, err := views.Load()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(pages)
	if deps.Options.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = deps.Options.MaxUploadBytes
	}
	guard, err := middlewares.CrossOriginGuard(deps.AllowedOrigins, deps.Log)
	if err != nil {
		return nil, err
	}
	r.Use(gin.Recovery(), middlewares.RequestLogger(deps.Log), guard)
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(middlewares.Session(deps.Auth, deps.Log))

	if deps.UploadsDir != "" {
		r.Static("/uploads", deps.UploadsDir)
	}
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	AuthRoutes(r, controllers.NewAuthController(deps.Auth, deps.Options, deps.Log))
	IssueRoutes(r, controllers.NewIssueController(deps.Issues, deps.Options, deps.Log), deps.Quota, deps.Log)
	UserRoutes(r, controllers.NewUserController(deps.Dashboards, deps.Options, deps.Log))
	ViewRoutes(r, controllers.NewViewController(deps.Auth, deps.Issues, deps.Dashboards, deps.Quota, deps.Options, deps.Log))

	r.NoRoute(func(c *gin.Context) {
		if path := c.Request.URL.Path; path == "/api" || strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No route for %s %s", c.Request.Method, path)})
			return
		}
		c.Redirect(http.StatusFound, "/")
	})
	return r, nil
}
