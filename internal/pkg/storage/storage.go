package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when no blob exists at the given path.
var ErrNotFound = errors.New("blob not found")

// Storage abstracts blob storage for uploaded media. Paths are relative and
// forward-slash separated regardless of backend.
type Storage interface {
	Save(ctx context.Context, path string, content io.Reader) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}
