package ports

import (
	"context"
	"errors"
)

// Object is a file ready to be written to object storage.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// ObjectStore writes public objects and reports the URL they are served from.
type ObjectStore interface {
	Put(ctx context.Context, object Object) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	// KeyFromURL reverses URL. It fails with ErrForeignURL for URLs it did not produce.
	KeyFromURL(url string) (string, error)
}

var ErrForeignURL = errors.New("url does not belong to this store")
