package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSSink stores artifacts as objects in a Cloud Storage bucket.
type GCSSink struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSSink creates a storage client. With no options it relies on
// Application Default Credentials.
func NewGCSSink(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSSink, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSSink{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSSink) Close() error {
	return s.client.Close()
}

func (s *GCSSink) object(name string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(path.Join(s.prefix, name))
}

// Put uploads r. Cancelling ctx before the writer is closed aborts the upload,
// so no object is created.
func (s *GCSSink) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, ctxReader{ctx: ctx, r: r}); err != nil {
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("copy artifact %s to GCS writer: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload of %s: %w", name, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, path.Join(s.prefix, name)), nil
}

func (s *GCSSink) Delete(ctx context.Context, name string) error {
	err := s.object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete artifact %s: %w", name, err)
	}
	return nil
}

func (s *GCSSink) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := s.object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	return r, nil
}
