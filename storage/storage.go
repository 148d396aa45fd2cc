// Package storage holds uploaded files. Keys are slash separated paths such
// as "documents/<uuid>_scan.pdf"; every backend returns a URL the client can
// fetch the file from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meinhoongagan/clinic-server/config"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Upload is a file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type BlobStore interface {
	// Put stores content under key and returns its public URL.
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by STORAGE_DRIVER.
func New(cfg *config.Config) (BlobStore, error) {
	switch strings.ToLower(cfg.StorageDriver) {
	case config.StorageLocal:
		return NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL+"/uploads")
	case config.StorageCloudinary:
		return NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryUploadPreset, cfg.CloudinaryFolder)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
