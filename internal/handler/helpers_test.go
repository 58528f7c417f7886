package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/murmur/internal/handler"
	"github.com/msomdec/murmur/internal/repository/sqlite"
	"github.com/msomdec/murmur/internal/service"
	"github.com/msomdec/murmur/internal/telemetry"
)

var testTokenConfig = service.TokenConfig{
	AccessSecret:  []byte("access-secret-for-handler-tests-012345"),
	RefreshSecret: []byte("refresh-secret-for-handler-tests-01234"),
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

func newTestServices(t *testing.T, limiter service.Limiter) handler.Services {
	t.Helper()
	db := newTestDB(t)
	return handler.Services{
		Auth:         service.NewAuthService(db.Users(), db.RefreshTokens(), testTokenConfig, 4, nil),
		Users:        service.NewUserService(db.Users(), db.Follows(), db.RefreshTokens(), 4, nil),
		Posts:        service.NewPostService(db.Posts(), nil),
		Feed:         service.NewFeedService(db.Users(), db.Follows(), db.Posts()),
		Media:        service.NewMediaService(db.FileStore(), 1024),
		LoginLimiter: limiter,
		DB:           db,
		Registry:     telemetry.NewRegistry(),
	}
}

func newTestServer(t *testing.T, limiter service.Limiter) (*httptest.Server, handler.Services) {
	t.Helper()
	services := newTestServices(t, limiter)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, services)
	srv := httptest.NewServer(handler.Chain(mux))
	t.Cleanup(srv.Close)
	return srv, services
}

// doJSON sends body as JSON with an optional bearer token and decodes the
// JSON response, if any, into a map.
func doJSON(t *testing.T, method, url, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp.StatusCode, out
}

func jsonDecode(r io.Reader, dst any) error {
	return json.NewDecoder(r).Decode(dst)
}
