package service_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/murmur/internal/domain"
	"github.com/msomdec/murmur/internal/events"
	"github.com/msomdec/murmur/internal/service"
)

func TestAuthService_Register_Success(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	auth := service.NewAuthService(db.Users(), db.RefreshTokens(), testTokenConfig, testBcryptCost, pub)

	user, err := auth.Register(context.Background(), service.RegisterInput{
		Username: "new_user",
		Email:    "New@Example.com",
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.ID == "" {
		t.Fatal("expected user ID to be set")
	}
	if user.Email != "new@example.com" {
		t.Fatalf("expected lowercased email, got %s", user.Email)
	}
	if user.PasswordHash == testPassword {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(testPassword)); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
	if !slices.Equal(pub.types(), []string{events.UserRegistered}) {
		t.Fatalf("expected user.registered event, got %v", pub.types())
	}
}

func TestAuthService_Register_Duplicates(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, auth, "taken", false)

	_, err := auth.Register(ctx, service.RegisterInput{Username: "taken", Email: "other@example.com", Password: testPassword})
	if !errors.Is(err, domain.ErrDuplicateUsername) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	_, err = auth.Register(ctx, service.RegisterInput{Username: "other", Email: "TAKEN@example.com", Password: testPassword})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	auth, _ := newTestAuthService(t)

	tests := []struct {
		name string
		in   service.RegisterInput
	}{
		{"short username", service.RegisterInput{Username: "ab", Email: "a@example.com", Password: testPassword}},
		{"bad username chars", service.RegisterInput{Username: "bad name!", Email: "a@example.com", Password: testPassword}},
		{"bad email", service.RegisterInput{Username: "valid", Email: "not-an-email", Password: testPassword}},
		{"display name email", service.RegisterInput{Username: "valid", Email: "Bob <bob@example.com>", Password: testPassword}},
		{"short password", service.RegisterInput{Username: "valid", Email: "a@example.com", Password: "short"}},
		{"long password", service.RegisterInput{Username: "valid", Email: "a@example.com", Password: strings.Repeat("x", 73)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(context.Background(), tt.in)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	alice := register(t, auth, "alice", false)

	for _, in := range []service.LoginInput{
		{Username: "alice", Password: testPassword},
		{Email: "ALICE@example.com", Password: testPassword},
	} {
		pair, err := auth.Login(ctx, in)
		if err != nil {
			t.Fatalf("Login(%+v): %v", in, err)
		}
		if pair.AccessToken == "" || pair.RefreshToken == "" {
			t.Fatal("expected both tokens")
		}
		if pair.ExpiresIn != 900 {
			t.Fatalf("expected ExpiresIn 900, got %d", pair.ExpiresIn)
		}

		id, err := auth.VerifyAccess(pair.AccessToken)
		if err != nil {
			t.Fatalf("VerifyAccess: %v", err)
		}
		if id.UserID != alice.ID || id.Username != "alice" || id.Email != "alice@example.com" {
			t.Fatalf("unexpected identity: %+v", id)
		}
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, auth, "alice", false)

	if _, err := auth.Login(ctx, service.LoginInput{Username: "nobody", Password: testPassword}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := auth.Login(ctx, service.LoginInput{Username: "alice", Password: "wrong-password"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := auth.Login(ctx, service.LoginInput{Password: testPassword}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthService_Refresh_RotatesAndConsumes(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, auth, "alice", false)

	first, err := auth.Login(ctx, service.LoginInput{Username: "alice", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	second, err := auth.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected a new refresh token")
	}
	if _, err := auth.VerifyAccess(second.AccessToken); err != nil {
		t.Fatalf("new access token invalid: %v", err)
	}

	if _, err := auth.Refresh(ctx, first.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected reused token to fail with ErrInvalidToken, got %v", err)
	}
	if _, err := auth.Refresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("rotated token should work: %v", err)
	}
}

func TestAuthService_Refresh_ConcurrentUseSucceedsOnce(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, auth, "alice", false)

	pair, err := auth.Login(ctx, service.LoginInput{Username: "alice", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := auth.Refresh(ctx, pair.RefreshToken)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrInvalidToken) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful refresh, got %d", successes)
	}
}

func TestAuthService_TokensAreNotInterchangeable(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, auth, "alice", false)

	pair, err := auth.Login(ctx, service.LoginInput{Username: "alice", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := auth.VerifyAccess(pair.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
	if _, err := auth.Refresh(ctx, pair.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
	if _, err := auth.VerifyAccess(pair.AccessToken + "x"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("tampered token accepted: %v", err)
	}
	if _, err := auth.VerifyAccess("garbage"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("garbage accepted: %v", err)
	}
}

func TestAuthService_Expiry(t *testing.T) {
	auth, _ := newTestAuthService(t)
	clock := newFakeClock()
	auth.WithClock(clock)
	ctx := context.Background()
	register(t, auth, "alice", false)

	pair, err := auth.Login(ctx, service.LoginInput{Username: "alice", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	clock.Advance(16 * time.Minute)
	if _, err := auth.VerifyAccess(pair.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired access token to fail, got %v", err)
	}

	fresh, err := auth.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh within 7 days should work: %v", err)
	}

	clock.Advance(8 * 24 * time.Hour)
	if _, err := auth.Refresh(ctx, fresh.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired refresh token to fail, got %v", err)
	}
}

func TestAuthService_SameInstantTokensDiffer(t *testing.T) {
	auth, _ := newTestAuthService(t)
	auth.WithClock(newFakeClock())
	ctx := context.Background()
	register(t, auth, "alice", false)

	a, err := auth.Login(ctx, service.LoginInput{Username: "alice", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	b, err := auth.Login(ctx, service.LoginInput{Username: "alice", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if a.RefreshToken == b.RefreshToken || a.AccessToken == b.AccessToken {
		t.Fatal("tokens minted at the same instant must differ")
	}
	if _, err := auth.Refresh(ctx, a.RefreshToken); err != nil {
		t.Fatalf("refresh a: %v", err)
	}
	if _, err := auth.Refresh(ctx, b.RefreshToken); err != nil {
		t.Fatalf("refresh b: %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	alice := register(t, auth, "alice", false)

	login := func() *service.TokenPair {
		pair, err := auth.Login(ctx, service.LoginInput{Username: "alice", Password: testPassword})
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		return pair
	}

	one := login()
	if err := auth.Logout(ctx, one.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := auth.Refresh(ctx, one.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected revoked token to fail, got %v", err)
	}
	if err := auth.Logout(ctx, "unknown"); err != nil {
		t.Fatalf("Logout of unknown token should be a no-op: %v", err)
	}

	a, b := login(), login()
	if err := auth.LogoutAll(ctx, alice.ID); err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}
	for _, p := range []*service.TokenPair{a, b} {
		if _, err := auth.Refresh(ctx, p.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("expected revoked session, got %v", err)
		}
	}
}
