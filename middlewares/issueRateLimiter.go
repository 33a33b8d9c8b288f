package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IssueQuota counts issue reports per user in Redis over a 24 hour window.
type IssueQuota struct {
	client      *redis.Client
	queuePrefix string
	limit       int
}

func NewIssueQuota(client *redis.Client, queuePrefix string, limit int) *IssueQuota {
	return &IssueQuota{client: client, queuePrefix: queuePrefix, limit: limit}
}

// Take consumes one report from the user's quota. When the quota is exhausted it
// returns false and how long until the window resets.
func (q *IssueQuota) Take(ctx context.Context, userID string) (bool, time.Duration, error) {
	// Create individual key for each user
	userKey := q.queuePrefix + ":" + userID

	count, err := q.client.Incr(ctx, userKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis error incrementing count: %w", err)
	}

	// Set TTL only for the first increment (when count = 1)
	if count == 1 {
		if err := q.client.Expire(ctx, userKey, 24*time.Hour).Err(); err != nil {
			return false, 0, fmt.Errorf("redis error setting TTL: %w", err)
		}
	}

	if count > int64(q.limit) {
		retryAfter, _ := q.client.TTL(ctx, userKey).Result()
		return false, retryAfter, nil
	}
	return true, 0, nil
}

// IssueRateLimiter rejects report submissions beyond the user's daily quota.
func IssueRateLimiter(quota *IssueQuota, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := CurrentProfile(c)
		if profile == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		allowed, retryAfter, err := quota.Take(c.Request.Context(), profile.ID.Hex())
		if err != nil {
			log.Error("issue rate limiter failed", zap.String("user_id", profile.ID.Hex()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
