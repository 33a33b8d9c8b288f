package authUtils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity carried by a session token.
type Claims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// GenerateToken signs an HS256 token for userID that expires after ttl.
func GenerateToken(secret []byte, userID string, ttl time.Duration) (string, *Claims, error) {
	if len(secret) == 0 {
		return "", nil, fmt.Errorf("JWT secret is not configured")
	}

	claims := &Claims{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		ExpiresAt: time.Now().Add(ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": claims.UserID,
		"jti":     claims.TokenID,
		"exp":     claims.ExpiresAt.Unix(),
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", nil, err
	}
	return tokenString, claims, nil
}

// ParseToken validates signature and expiry and returns the carried claims.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, _ := mapClaims["user_id"].(string)
	tokenID, _ := mapClaims["jti"].(string)
	exp, _ := mapClaims["exp"].(float64)
	if userID == "" || tokenID == "" || exp == 0 {
		return nil, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}
	return &Claims{
		UserID:    userID,
		TokenID:   tokenID,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
