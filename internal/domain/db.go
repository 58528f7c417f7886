package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, Postgres) owns its own migration
// files and strategy, so the backend can be swapped from config.
type Database interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Store groups the repositories a backend provides.
type Store interface {
	Database
	Users() UserRepository
	Follows() FollowRepository
	Posts() PostRepository
	RefreshTokens() RefreshTokenRepository
	FileStore() FileStore
}
