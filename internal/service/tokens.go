package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/msomdec/murmur/internal/domain"
)

// TokenConfig holds the signing keys and lifetimes of issued tokens.
// Access and refresh tokens are signed with different keys.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64
}

type accessClaims struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	FullName          string `json:"fullName,omitempty"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	jwt.RegisteredClaims
}

// Clock abstracts time for token issuance and validation.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func registeredClaims(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func signAccess(user *domain.User, cfg TokenConfig, now time.Time) (string, error) {
	claims := accessClaims{
		Username:          user.Username,
		Email:             user.Email,
		FullName:          user.FullName,
		ProfilePictureURL: user.ProfilePictureURL,
		RegisteredClaims:  registeredClaims(user.ID, now, cfg.AccessTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.AccessSecret)
}

func signRefresh(userID string, cfg TokenConfig, now time.Time) (string, error) {
	claims := registeredClaims(userID, now, cfg.RefreshTTL)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.RefreshSecret)
}

func parseToken(tokenString string, claims jwt.Claims, secret []byte, clock Clock) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(clock.Now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !token.Valid {
		return domain.ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	return nil
}

// hashToken returns the hex SHA-256 digest under which refresh tokens are stored.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
