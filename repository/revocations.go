package repository

import (
	"context"
	"errors"
	"time"

	"civicsync/services"

	"github.com/redis/go-redis/v9"
)

var _ services.TokenRevoker = (*TokenDenylist)(nil)

// TokenDenylist keeps revoked session token ids in Redis until they expire.
type TokenDenylist struct {
	client *redis.Client
	prefix string
}

func NewTokenDenylist(client *redis.Client, prefix string) *TokenDenylist {
	return &TokenDenylist{client: client, prefix: prefix}
}

func (d *TokenDenylist) key(tokenID string) string {
	return d.prefix + ":" + tokenID
}

func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return d.client.Set(ctx, d.key(tokenID), 1, ttl).Err()
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := d.client.Get(ctx, d.key(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
