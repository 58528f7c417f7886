package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/msomdec/murmur/internal/domain"
)

// fileStore implements domain.FileStore using SQLite BLOBs.
type fileStore struct {
	db *sqlx.DB
}

func (s *fileStore) Save(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO media_blobs (storage_key, content_type, data, created_at) VALUES (?, ?, ?, ?)",
		key, contentType, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save media blob: %w", err)
	}
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var row struct {
		ContentType string `db:"content_type"`
		Data        []byte `db:"data"`
	}
	err := s.db.GetContext(ctx, &row,
		"SELECT content_type, data FROM media_blobs WHERE storage_key = ?", key,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get media blob: %w", err)
	}
	return row.Data, row.ContentType, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM media_blobs WHERE storage_key = ?", key,
	)
	if err != nil {
		return fmt.Errorf("delete media blob: %w", err)
	}
	return nil
}
