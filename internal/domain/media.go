package domain

import "context"

// FileStore abstracts raw media byte storage. Both database backends
// keep the bytes in a table; the interface allows moving them to a
// filesystem or object store later.
type FileStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, key string) error
}
