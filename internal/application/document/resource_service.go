package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

const downloadURLExpiry = 15 * time.Minute

// ResourceService stores uploaded files in object storage
type ResourceService struct {
	resources document.ResourceRepository
	storage   contract.ResourceStorage
	logger    *zap.Logger
}

// NewResourceService creates a new ResourceService
func NewResourceService(resources document.ResourceRepository, storage contract.ResourceStorage, logger *zap.Logger) *ResourceService {
	return &ResourceService{resources: resources, storage: storage, logger: logger}
}

// Upload stores the file and registers it as a resource
func (s *ResourceService) Upload(ctx context.Context, fileName string, size int64, contentType string, body io.Reader) (*ResourceResponse, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	res, err := document.NewStoredResource(fileName, size, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Store(ctx, res.StorageKey, body, size, contentType); err != nil {
		return nil, fmt.Errorf("store resource %s: %w", res.ResourceID, err)
	}
	if err := s.resources.Save(ctx, res); err != nil {
		if delErr := s.storage.Delete(ctx, res.StorageKey); delErr != nil {
			s.logger.Warn("Failed to remove orphaned object", zap.String("key", res.StorageKey), zap.Error(delErr))
		}
		return nil, err
	}
	resp := toResourceResponse(res.Resource)
	return &resp, nil
}

// Get returns resource metadata
func (s *ResourceService) Get(ctx context.Context, id uuid.UUID) (*ResourceResponse, error) {
	res, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResourceResponse(res.Resource)
	return &resp, nil
}

// DownloadURL returns a presigned URL for the resource
func (s *ResourceService) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	res, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	return s.storage.PresignDownload(ctx, res.StorageKey, downloadURLExpiry)
}

// Open streams the resource content. The caller closes the reader.
func (s *ResourceService) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *ResourceResponse, error) {
	res, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	body, _, err := s.storage.Get(ctx, res.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	resp := toResourceResponse(res.Resource)
	return body, &resp, nil
}

// Delete removes the resource and its stored object
func (s *ResourceService) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, res.StorageKey); err != nil {
		return fmt.Errorf("delete object %s: %w", res.StorageKey, err)
	}
	return s.resources.Delete(ctx, id)
}

func (s *ResourceService) find(ctx context.Context, id uuid.UUID) (*document.StoredResource, error) {
	res, err := s.resources.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, resourceNotFound(id)
		}
		return nil, err
	}
	return res, nil
}
