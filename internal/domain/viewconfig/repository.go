package viewconfig

import (
	"context"

	"github.com/google/uuid"
)

// ViewConfigRepository persists view configurations
type ViewConfigRepository interface {
	// Create stores a configuration; a duplicate process and task key returns ALREADY_EXISTS
	Create(ctx context.Context, vc *ViewConfig) error
	Update(ctx context.Context, vc *ViewConfig) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*ViewConfig, error)
	FindByProcessDefinitionKey(ctx context.Context, processDefinitionKey string) ([]ViewConfig, error)
	FindAll(ctx context.Context) ([]ViewConfig, error)
}
