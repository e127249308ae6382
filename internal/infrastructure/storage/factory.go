package storage

import (
	"context"
	"fmt"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	infraconfig "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New builds the configured resource storage backend
func New(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (contract.ResourceStorage, error) {
	switch cfg.Provider {
	case "", "memory":
		logger.Warn("using in-memory resource storage, resources are lost on restart")
		return NewMemoryResourceStorage(), nil
	case "s3":
		s, err := NewS3ResourceStorage(cfg, WithLogger(logger.Named("s3")))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
