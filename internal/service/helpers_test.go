package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/murmur/internal/domain"
	"github.com/msomdec/murmur/internal/repository/sqlite"
	"github.com/msomdec/murmur/internal/service"
)

// Use cost 4 for fast tests.
const testBcryptCost = 4

const testPassword = "password123"

var testTokenConfig = service.TokenConfig{
	AccessSecret:  []byte("access-secret-for-unit-tests-0123456789"),
	RefreshSecret: []byte("refresh-secret-for-unit-tests-0123456789"),
	AccessTTL:     15 * time.Minute,
	RefreshTTL:    7 * 24 * time.Hour,
}

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAuthService(t *testing.T) (*service.AuthService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	return service.NewAuthService(db.Users(), db.RefreshTokens(), testTokenConfig, testBcryptCost, nil), db
}

func register(t *testing.T, auth *service.AuthService, username string, private bool) *domain.User {
	t.Helper()
	user, err := auth.Register(context.Background(), service.RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		Password:  testPassword,
		IsPrivate: private,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func follow(t *testing.T, db *sqlite.DB, followerID, followedID string) {
	t.Helper()
	if err := db.Follows().Create(context.Background(), followerID, followedID); err != nil {
		t.Fatalf("follow: %v", err)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type publishedEvent struct {
	Type   string
	UserID string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, userID string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, UserID: userID})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
