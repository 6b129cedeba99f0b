package manifest

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
)

// Archive keeps a copy of every generated manifest.
type Archive interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// GCSArchive stores manifests as objects in a Cloud Storage bucket.
type GCSArchive struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSArchive connects with application default credentials.
func NewGCSArchive(ctx context.Context, bucket, prefix string) (*GCSArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCSArchive{client: client, bucket: bucket, prefix: prefix}, nil
}

// Put uploads data and returns its gs:// URL.
func (a *GCSArchive) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	object := path.Join(a.prefix, name)
	w := a.client.Bucket(a.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := bytes.NewReader(data).WriteTo(w); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return fmt.Sprintf("gs://%s/%s", a.bucket, object), nil
}

// Close releases the storage client.
func (a *GCSArchive) Close() error { return a.client.Close() }
