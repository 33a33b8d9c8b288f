package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"civicsync/models"
	"civicsync/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "auth_token"
	sessionKey    = "session"
)

// SessionRestorer turns a token into a live session.
type SessionRestorer interface {
	Restore(ctx context.Context, token string) (*services.Session, error)
}

// Session restores the caller's session from the auth cookie or a Bearer header.
// Requests without a valid session continue anonymously; gates decide what to do.
func Session(auth SessionRestorer, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := sessionToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		session, err := auth.Restore(ctx, tokenString)
		if err != nil {
			if !errors.Is(err, services.ErrUnauthenticated) {
				log.Error("session restore failed", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(sessionKey, session)
		c.Set("user_id", session.Profile.ID.Hex())
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	// Extracting token from "Bearer <token>" format; other schemes fall through to the cookie
	if token, ok := strings.CutPrefix(c.Request.Header.Get("Authorization"), "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// CurrentSession returns the restored session, or nil for anonymous requests.
func CurrentSession(c *gin.Context) *services.Session {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil
	}
	session, _ := value.(*services.Session)
	return session
}

// CurrentProfile returns the signed-in profile, or nil.
func CurrentProfile(c *gin.Context) *models.Profile {
	if session := CurrentSession(c); session != nil {
		return session.Profile
	}
	return nil
}

// AuthMiddleware rejects API requests that carry no valid session.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c) == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}
		c.Next()
	}
}
