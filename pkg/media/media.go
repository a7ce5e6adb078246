// Package media stores catalog images on an external host and hands back
// public URLs. Two backends exist: Google Cloud Storage for deployments and
// a local directory for development and tests.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/config"
)

// ErrUnsupportedImage is returned by Normalize when the upload is not a
// decodable JPEG or PNG.
var ErrUnsupportedImage = errors.New("unsupported image")

// Store is the contract the catalog needs from a media host.
type Store interface {
	// Upload stores data under a fresh object name and returns its public URL.
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	// Delete removes the object behind url. Unknown objects and URLs that the
	// store does not own are ignored.
	Delete(ctx context.Context, url string) error
}

// New builds the Store selected by cfg.MediaBackend. The returned close
// function releases backend clients and must be called on shutdown.
func New(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("media: gcs client: %w", err)
		}
		return NewGCSStore(client, cfg.MediaBucket, cfg.MediaFolder), client.Close, nil
	case config.MediaBackendDisk, "":
		store, err := NewDiskStore(cfg.MediaDir, cfg.MediaPublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("media: unknown backend %q", cfg.MediaBackend)
	}
}

// objectName returns a collision-free object name for a stored image.
func objectName(contentType string) string {
	ext := ".bin"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	}
	return uuid.NewString() + ext
}

// joinPath joins non-empty path segments with "/".
func joinPath(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
