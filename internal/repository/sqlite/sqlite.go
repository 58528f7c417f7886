package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/msomdec/murmur/internal/domain"
	"github.com/msomdec/murmur/internal/repository/sqlite/migrations"
)

// DB wraps a SQLite connection and hands out the repositories built on it.
// It implements domain.Store.
type DB struct {
	SqlDB *sql.DB
	x     *sqlx.DB
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// SQLite serializes writers; a single connection keeps PRAGMAs applied
	// and avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db, x: sqlx.NewDb(db, "sqlite")}, nil
}

// Migrate applies the embedded schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

func (d *DB) Ping(ctx context.Context) error {
	return d.SqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.SqlDB.Close()
}

func (d *DB) Users() domain.UserRepository {
	return NewUserRepository(d)
}

func (d *DB) Follows() domain.FollowRepository {
	return &followRepo{db: d.x}
}

func (d *DB) Posts() domain.PostRepository {
	return &postRepo{db: d.x}
}

func (d *DB) RefreshTokens() domain.RefreshTokenRepository {
	return &refreshTokenRepo{db: d.x}
}

func (d *DB) FileStore() domain.FileStore {
	return &fileStore{db: d.x}
}
