package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civicsync/models"
	authUtils "civicsync/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Session is an authenticated identity with its token.
type Session struct {
	Token     string          `json:"token"`
	TokenID   string          `json:"-"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   *models.Profile `json:"profile"`
}

type AuthConfig struct {
	Secret              string
	TokenTTL            time.Duration
	BootstrapAdminEmail string
}

// AuthService is the identity provider: sign-up, sign-in, session restore and
// sign-out with token revocation.
type AuthService struct {
	profiles       ProfileStore
	revoker        TokenRevoker
	secret         []byte
	ttl            time.Duration
	bootstrapAdmin string
	log            *zap.Logger
	now            func() time.Time
}

func NewAuthService(profiles ProfileStore, revoker TokenRevoker, cfg AuthConfig, log *zap.Logger) *AuthService {
	return &AuthService{
		profiles:       profiles,
		revoker:        revoker,
		secret:         []byte(cfg.Secret),
		ttl:            cfg.TokenTTL,
		bootstrapAdmin: normalizeEmail(cfg.BootstrapAdminEmail),
		log:            log,
		now:            time.Now,
	}
}

type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *AuthService) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	switch {
	case in.Name == "":
		return nil, invalid("name", "is required")
	case len(in.Name) > 50:
		return nil, invalid("name", "must be at most 50 characters")
	case !strings.Contains(in.Email, "@"):
		return nil, invalid("email", "must be a valid address")
	case len(in.Password) < 6:
		return nil, invalid("password", "must be at least 6 characters")
	}

	role := models.RoleCitizen
	if a.bootstrapAdmin != "" && in.Email == a.bootstrapAdmin {
		role = models.RoleAdmin
	}
	profile := &models.Profile{
		ID:        primitive.NewObjectID(),
		Email:     in.Email,
		Name:      in.Name,
		Role:      role,
		Password:  in.Password,
		CreatedAt: a.now(),
	}
	if err := profile.HashPassword(); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := a.profiles.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	a.log.Info("profile registered", zap.String("profile_id", profile.ID.Hex()), zap.String("role", string(role)))
	return a.issue(profile)
}

func (a *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	profile, err := a.profiles.FindProfileByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if !profile.ComparePassword(password) {
		return nil, ErrInvalidCredentials
	}
	return a.issue(profile)
}

// SignInAuthority authenticates, then re-reads the profile's role. A session that
// is not an authority's is revoked before the error is returned, so a rejected
// attempt never leaves a usable session behind.
func (a *AuthService) SignInAuthority(ctx context.Context, email, password string) (*Session, error) {
	session, err := a.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	profile, err := a.profiles.FindProfileByID(ctx, session.Profile.ID)
	if err != nil {
		a.revokeAfterRejection(ctx, session, err)
		return nil, ErrRoleUnverified
	}
	if profile.Role != models.RoleAuthority {
		a.revokeAfterRejection(ctx, session, ErrAuthorityOnly)
		return nil, ErrAuthorityOnly
	}
	session.Profile = profile
	return session, nil
}

func (a *AuthService) revokeAfterRejection(ctx context.Context, session *Session, reason error) {
	if err := a.SignOut(ctx, session); err != nil {
		a.log.Error("revoke rejected authority session",
			zap.String("profile_id", session.Profile.ID.Hex()),
			zap.NamedError("reason", reason),
			zap.Error(err))
		return
	}
	a.log.Warn("authority portal sign-in rejected",
		zap.String("profile_id", session.Profile.ID.Hex()),
		zap.NamedError("reason", reason))
}

// SignOut revokes the session token for the rest of its lifetime.
func (a *AuthService) SignOut(ctx context.Context, session *Session) error {
	if session == nil || session.TokenID == "" {
		return nil
	}
	ttl := session.ExpiresAt.Sub(a.now())
	if ttl <= 0 {
		return nil
	}
	if err := a.revoker.Revoke(ctx, session.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Restore turns a token back into a session, reloading the profile so role
// changes apply on the very next request.
func (a *AuthService) Restore(ctx context.Context, token string) (*Session, error) {
	claims, err := authUtils.ParseToken(a.secret, token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	revoked, err := a.revoker.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrUnauthenticated
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	profile, err := a.profiles.FindProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &Session{Token: token, TokenID: claims.TokenID, ExpiresAt: claims.ExpiresAt, Profile: profile}, nil
}

func (a *AuthService) issue(profile *models.Profile) (*Session, error) {
	token, claims, err := authUtils.GenerateToken(a.secret, profile.ID.Hex(), a.ttl)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, TokenID: claims.TokenID, ExpiresAt: claims.ExpiresAt, Profile: profile}, nil
}
