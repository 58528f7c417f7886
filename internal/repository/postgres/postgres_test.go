package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/murmur/internal/domain"
	"github.com/msomdec/murmur/internal/repository/postgres"
)

var _ domain.Store = (*postgres.DB)(nil)

// newTestDB connects to POSTGRES_TEST_URL. Tests are skipped when it is unset.
func newTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	ctx := context.Background()
	db, err := postgres.New(ctx, url)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createUser inserts a user with a unique name so runs against a shared
// database do not collide.
func createUser(t *testing.T, db *postgres.DB, prefix string) *domain.User {
	t.Helper()
	name := prefix + "_" + uuid.NewString()[:8]
	user := &domain.User{Username: name, Email: name + "@example.com", PasswordHash: "hash"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func TestMigrateIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestUsers_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")

	dup := &domain.User{Username: alice.Username, Email: "other_" + alice.Email, PasswordHash: "x"}
	if err := db.Users().Create(ctx, dup); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	dup = &domain.User{Username: alice.Username + "x", Email: alice.Email, PasswordHash: "x"}
	if err := db.Users().Create(ctx, dup); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	got, err := db.Users().GetByUsername(ctx, alice.Username)
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ID != alice.ID {
		t.Fatalf("expected id %s, got %s", alice.ID, got.ID)
	}
}

func TestFeedQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	if err := db.Follows().Create(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := db.Follows().Create(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("repeat follow: %v", err)
	}

	now := time.Now().UTC()
	visible := &domain.Post{UserID: bob.ID, Content: "hi", CreatedAt: now.Add(-time.Hour)}
	hidden := &domain.Post{UserID: bob.ID, Content: "secret", Hidden: true, CreatedAt: now.Add(-time.Hour)}
	old := &domain.Post{UserID: bob.ID, Content: "old", CreatedAt: now.Add(-10 * 24 * time.Hour)}
	for _, p := range []*domain.Post{visible, hidden, old} {
		if err := db.Posts().Create(ctx, p); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	posts, err := db.Posts().ListByFollowedAuthors(ctx, alice.ID, domain.Window{From: now.Add(-7 * 24 * time.Hour)})
	if err != nil {
		t.Fatalf("ListByFollowedAuthors: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != visible.ID {
		t.Fatalf("expected only the visible recent post, got %+v", posts)
	}

	owned, err := db.Posts().ListByOwner(ctx, bob.ID, domain.Window{From: now.Add(-7 * 24 * time.Hour)})
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(owned) != 2 {
		t.Fatalf("expected 2 owned posts, got %d", len(owned))
	}
}

func TestRefreshTokens_Rotate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	repo := db.RefreshTokens()

	old := &domain.RefreshToken{UserID: alice.ID, TokenHash: uuid.NewString(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(ctx, old); err != nil {
		t.Fatalf("Create: %v", err)
	}

	next := &domain.RefreshToken{UserID: alice.ID, TokenHash: uuid.NewString(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Rotate(ctx, old.ID, next); err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	again := &domain.RefreshToken{UserID: alice.ID, TokenHash: uuid.NewString(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Rotate(ctx, old.ID, again); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on reuse, got %v", err)
	}
	if _, err := repo.GetByHash(ctx, again.TokenHash); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("replacement from failed rotation should not persist, got %v", err)
	}
}

func TestFileStore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	key := "media/" + uuid.NewString()

	if err := db.FileStore().Save(ctx, key, "image/png", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, ct, err := db.FileStore().Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ct != "image/png" || len(data) != 3 {
		t.Fatalf("unexpected blob: %q %v", ct, data)
	}
	if err := db.FileStore().Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := db.FileStore().Get(ctx, key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
