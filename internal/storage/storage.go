package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"

	cfg "github.com/newsboard/newsboard/internal/config"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Storage stores uploaded files under slash separated keys such as
// "uploads/March_2024/photo_20240310_1710072000000-42.jpg".
type Storage interface {
	// Save stores the content of r at key. contentType may be empty.
	Save(ctx context.Context, key string, r io.Reader, contentType string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the address the file is served from.
	URL(key string) string
}

// inlineExts are the extensions browsers may render in place. Everything else
// is served as a download.
var inlineExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
}

// Inline reports whether the file at key may be displayed by the browser.
func Inline(key string) bool {
	return inlineExts[strings.ToLower(path.Ext(key))]
}

// escapeKey path-escapes every segment of key.
func escapeKey(key string) string {
	segments := strings.Split(path.Clean(key), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// New builds the storage backend selected by STORAGE_DRIVER.
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "", "local":
		slog.Info("initializing local storage", "root", c.StorageRoot)
		return NewLocalStorage(c.StorageRoot), nil
	case "s3":
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(context.Background(), S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
