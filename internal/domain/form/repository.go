package form

import (
	"context"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// FormDefinitionRepository persists form definitions
type FormDefinitionRepository interface {
	// Create stores a form; a duplicate name returns ALREADY_EXISTS
	Create(ctx context.Context, form *FormDefinition) error
	Update(ctx context.Context, form *FormDefinition) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*FormDefinition, error)
	FindByName(ctx context.Context, name string) (*FormDefinition, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]FormDefinition, int64, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}
