package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned for keys that would leave the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Storage keeps uploaded form attachments.
type Storage interface {
	// Save writes data under key and returns the file path.
	Save(ctx context.Context, key string, data io.Reader) (path string, err error)

	// Open returns the content stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}
