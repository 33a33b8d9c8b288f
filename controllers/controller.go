package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"civicsync/middlewares"
	"civicsync/models"
	"civicsync/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Options carries the HTTP settings shared by every controller.
type Options struct {
	Production     bool
	Domain         string
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

var errUploadTooLarge = errors.New("upload too large")

// base holds what every controller needs to talk to the services.
type base struct {
	opts Options
	log  *zap.Logger
}

func (b base) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := b.opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// describe maps a service error to a status code and a message fit for users.
// subject names the resource for not-found errors.
func describe(err error, subject string) (int, string) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge, "Image is too large"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, "User not authenticated"
	case errors.Is(err, services.ErrAuthorityOnly):
		return http.StatusForbidden, "Only Authority members can access this portal"
	case errors.Is(err, services.ErrRoleUnverified):
		return http.StatusForbidden, "Could not verify user role"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, subject + " not found"
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict, "User with this email already exists"
	case errors.Is(err, services.ErrAlreadyVerified):
		return http.StatusConflict, "You have already verified this issue"
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, "Status can only move forward"
	default:
		return http.StatusInternalServerError, "Something went wrong"
	}
}

// fail answers an API request with the mapped error, logging backend failures.
func (b base) fail(c *gin.Context, err error, subject string) {
	status, message := describe(err, subject)
	if status == http.StatusInternalServerError {
		b.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("user_id", c.GetString("user_id")),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message})
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	return id, err == nil
}

// optionalUpload reads an image field from a multipart form. Other content types,
// and forms without the field, yield no upload.
func (b base) optionalUpload(c *gin.Context, field string) (*services.Upload, error) {
	if c.ContentType() != "multipart/form-data" {
		return nil, nil
	}
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	if header.Size == 0 {
		return nil, nil
	}
	if b.opts.MaxUploadBytes > 0 && header.Size > b.opts.MaxUploadBytes {
		return nil, errUploadTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &services.Upload{Filename: header.Filename, Data: data}, nil
}

// setSessionCookie stores the session token in the auth cookie. Production
// cookies are cross-site, so they must be Secure with SameSite=None.
func (b base) setSessionCookie(c *gin.Context, session *services.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	http.SetCookie(c.Writer, b.cookie(session.Token, maxAge))
}

func (b base) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, b.cookie("", -1))
}

func (b base) cookie(value string, maxAge int) *http.Cookie {
	domain := b.opts.Domain
	sameSite := http.SameSiteLaxMode
	// For production, don't set domain to allow cross-origin cookies
	if b.opts.Production {
		domain = ""
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     middlewares.SessionCookie,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		Domain:   domain,
		Secure:   b.opts.Production,
		HttpOnly: true,
		SameSite: sameSite,
	}
}

// DashboardPath is where a profile lands after signing in.
func DashboardPath(role models.Role) string {
	switch role {
	case models.RoleAuthority:
		return "/dashboard/authority"
	case models.RoleAdmin:
		return "/dashboard/admin"
	default:
		return "/dashboard/citizen"
	}
}
