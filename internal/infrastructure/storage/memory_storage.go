package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryResourceStorage keeps resources in process memory. Used for development and tests.
type MemoryResourceStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryResourceStorage creates an empty MemoryResourceStorage
func NewMemoryResourceStorage() *MemoryResourceStorage {
	return &MemoryResourceStorage{objects: make(map[string]memoryObject)}
}

// Store reads the whole body into memory
func (m *MemoryResourceStorage) Store(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" {
		return errKeyRequired
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read resource body: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("resource size mismatch: declared %d, read %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	return nil
}

// Get returns a reader over a copy of the stored bytes
func (m *MemoryResourceStorage) Get(ctx context.Context, key string) (io.ReadCloser, *contract.StoredObject, error) {
	if key == "" {
		return nil, nil, errKeyRequired
	}
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, shared.ErrNotFound
	}

	data := bytes.Clone(obj.data)
	return io.NopCloser(bytes.NewReader(data)), &contract.StoredObject{
		Key:         key,
		ContentType: obj.contentType,
		Size:        int64(len(data)),
	}, nil
}

// Delete removes the key if present
func (m *MemoryResourceStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errKeyRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// PresignDownload is not supported in memory; callers stream through the API instead
func (m *MemoryResourceStorage) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if key == "" {
		return "", errKeyRequired
	}
	return "", nil
}

// Len returns the number of stored objects
func (m *MemoryResourceStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ contract.ResourceStorage = (*MemoryResourceStorage)(nil)
