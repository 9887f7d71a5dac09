// Package artifact stores finished export artifacts.
package artifact

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open for unknown artifact names.
var ErrNotFound = errors.New("artifact not found")

// Sink persists named artifacts. Put must not leave a partial artifact behind
// when it fails or ctx is cancelled; Delete of a missing name is not an error.
type Sink interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (location string, err error)
	Delete(ctx context.Context, name string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// ctxReader fails reads once ctx is done, so long copies stop promptly.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
