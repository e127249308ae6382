package contract

import (
	"context"
	"io"
	"time"
)

// StoredObject describes an object kept in resource storage
type StoredObject struct {
	Key         string
	ContentType string
	Size        int64
}

// ResourceStorage keeps uploaded document resources
type ResourceStorage interface {
	Store(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, *StoredObject, error)
	Delete(ctx context.Context, key string) error
	// PresignDownload returns a time limited URL, or "" when the backend cannot presign
	PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error)
}
