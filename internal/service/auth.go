package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/murmur/internal/domain"
	"github.com/msomdec/murmur/internal/events"
)

// AuthService handles registration, login and the access/refresh token lifecycle.
type AuthService struct {
	users      domain.UserRepository
	tokens     domain.RefreshTokenRepository
	cfg        TokenConfig
	bcryptCost int
	events     events.Publisher
	clock      Clock
}

// NewAuthService creates a new AuthService. A nil publisher disables events.
func NewAuthService(users domain.UserRepository, tokens domain.RefreshTokenRepository, cfg TokenConfig, bcryptCost int, publisher events.Publisher) *AuthService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		cfg:        cfg,
		bcryptCost: bcryptCost,
		events:     publisher,
		clock:      systemClock{},
	}
}

// WithClock replaces the time source. Used by tests.
func (s *AuthService) WithClock(c Clock) *AuthService {
	s.clock = c
	return s
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FullName  string
	IsPrivate bool
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a new user account after validating inputs.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		IsPrivate:    in.IsPrivate,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.events.Publish(ctx, events.UserRegistered, user.ID, map[string]string{"username": user.Username})
	return user, nil
}

// Login verifies credentials and issues a fresh token pair. The username
// takes precedence when both username and email are given.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	var (
		user *domain.User
		err  error
	)
	switch {
	case in.Username != "":
		user, err = s.users.GetByUsername(ctx, strings.TrimSpace(in.Username))
	case in.Email != "":
		user, err = s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	default:
		return nil, fmt.Errorf("%w: username or email is required", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	pair, record, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented
// token is consumed: a second exchange of the same token fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var claims jwt.RegisteredClaims
	if err := parseToken(refreshToken, &claims, s.cfg.RefreshSecret, s.clock); err != nil {
		return nil, err
	}

	stored, err := s.tokens.GetByHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	if !s.clock.Now().Before(stored.ExpiresAt) {
		if err := s.tokens.Delete(ctx, stored.ID); err != nil {
			return nil, fmt.Errorf("delete expired refresh token: %w", err)
		}
		return nil, domain.ErrInvalidToken
	}
	if stored.UserID != claims.Subject {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	pair, record, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Rotate(ctx, stored.ID, record); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return pair, nil
}

// VerifyAccess validates an access token without touching storage and
// returns the identity carried in its claims.
func (s *AuthService) VerifyAccess(accessToken string) (*domain.Identity, error) {
	var claims accessClaims
	if err := parseToken(accessToken, &claims, s.cfg.AccessSecret, s.clock); err != nil {
		return nil, err
	}
	return &domain.Identity{
		UserID:            claims.Subject,
		Username:          claims.Username,
		Email:             claims.Email,
		FullName:          claims.FullName,
		ProfilePictureURL: claims.ProfilePictureURL,
	}, nil
}

// Logout revokes a single refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokens.DeleteByHash(ctx, hashToken(refreshToken)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// LogoutAll revokes every refresh token of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.tokens.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

func (s *AuthService) issue(user *domain.User) (*TokenPair, *domain.RefreshToken, error) {
	now := s.clock.Now()
	access, err := signAccess(user, s.cfg, now)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := signRefresh(user.ID, s.cfg, now)
	if err != nil {
		return nil, nil, fmt.Errorf("sign refresh token: %w", err)
	}

	record := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: now.Add(s.cfg.RefreshTTL).UTC(),
	}
	pair := &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}
	return pair, record, nil
}
