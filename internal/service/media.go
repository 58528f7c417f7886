package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/msomdec/murmur/internal/domain"
)

const (
	DefaultMaxUploadBytes = 10 * 1024 * 1024 // 10MB
	mediaKeyPrefix        = "media/"
	// MediaPathPrefix is the public path under which stored media is served.
	MediaPathPrefix = "/uploads/"
)

var allowedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/x-msvideo": true,
	"video/avi":       true,
}

var mediaTypesByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
}

// MediaService stores uploaded images and videos.
type MediaService struct {
	files    domain.FileStore
	maxBytes int64
}

// NewMediaService creates a MediaService. A non-positive maxBytes uses DefaultMaxUploadBytes.
func NewMediaService(files domain.FileStore, maxBytes int64) *MediaService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &MediaService{files: files, maxBytes: maxBytes}
}

// MaxBytes is the largest accepted upload.
func (s *MediaService) MaxBytes() int64 { return s.maxBytes }

// Upload validates and stores data, returning the public path it is served under.
func (s *MediaService) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is empty", domain.ErrInvalidInput)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: file exceeds %d byte limit", domain.ErrInvalidInput, s.maxBytes)
	}

	contentType := detectMediaType(filename, data)
	if contentType == "" {
		return "", fmt.Errorf("%w: only images (jpeg, png, gif) and videos (mp4, mov, avi) are accepted", domain.ErrInvalidInput)
	}

	key, err := generateStorageKey()
	if err != nil {
		return "", fmt.Errorf("generate storage key: %w", err)
	}
	if err := s.files.Save(ctx, key, contentType, data); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}
	return MediaPathPrefix + key, nil
}

// Get returns stored media bytes and their content type.
func (s *MediaService) Get(ctx context.Context, key string) ([]byte, string, error) {
	if !strings.HasPrefix(key, mediaKeyPrefix) {
		return nil, "", domain.ErrNotFound
	}
	data, contentType, err := s.files.Get(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("get file: %w", err)
	}
	return data, contentType, nil
}

// detectMediaType sniffs the content and falls back to the file extension
// when sniffing is inconclusive. It returns "" for unsupported media.
func detectMediaType(filename string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	if allowedMediaTypes[sniffed] {
		return sniffed
	}
	if sniffed != "application/octet-stream" {
		return ""
	}
	return mediaTypesByExt[strings.ToLower(filepath.Ext(filename))]
}

func generateStorageKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return mediaKeyPrefix + hex.EncodeToString(b), nil
}
