package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSStore keeps images in a Google Cloud Storage bucket under folder.
type GCSStore struct {
	client *storage.Client
	bucket string
	folder string
}

// NewGCSStore returns a GCSStore. The bucket must allow public reads for the
// returned URLs to be usable by clients.
func NewGCSStore(client *storage.Client, bucket, folder string) *GCSStore {
	return &GCSStore{
		client: client,
		bucket: strings.TrimSpace(bucket),
		folder: strings.Trim(strings.TrimSpace(folder), "/"),
	}
}

// Upload writes data to "<folder>/<uuid>.<ext>" and returns its public URL.
func (s *GCSStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if s.client == nil || s.bucket == "" {
		return "", errors.New("media: gcs store is not configured")
	}
	obj := joinPath(s.folder, objectName(contentType))

	w := s.client.Bucket(s.bucket).Object(obj).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("media: write gs://%s/%s: %w", s.bucket, obj, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("media: close gs://%s/%s: %w", s.bucket, obj, err)
	}
	return s.publicURL(obj), nil
}

// Delete removes the object behind url. Missing objects count as deleted.
func (s *GCSStore) Delete(ctx context.Context, url string) error {
	obj, ok := s.objectFromURL(url)
	if !ok {
		return nil
	}
	err := s.client.Bucket(s.bucket).Object(obj).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("media: delete gs://%s/%s: %w", s.bucket, obj, err)
	}
	return nil
}

func (s *GCSStore) publicURL(obj string) string {
	return fmt.Sprintf("%s/%s/%s", gcsPublicHost, s.bucket, obj)
}

// objectFromURL extracts the object path from a URL produced by publicURL.
func (s *GCSStore) objectFromURL(url string) (string, bool) {
	prefix := fmt.Sprintf("%s/%s/", gcsPublicHost, s.bucket)
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	obj := strings.TrimPrefix(url, prefix)
	if i := strings.IndexAny(obj, "?#"); i >= 0 {
		obj = obj[:i]
	}
	return obj, obj != ""
}
