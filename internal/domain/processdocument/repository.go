package processdocument

import (
	"context"

	"github.com/google/uuid"
)

// DefinitionRepository persists process-document links
type DefinitionRepository interface {
	// Create stores a link; an existing link returns ALREADY_EXISTS
	Create(ctx context.Context, def *Definition) error
	Delete(ctx context.Context, id DefinitionID) error
	FindByID(ctx context.Context, id DefinitionID) (*Definition, error)
	FindByDocumentDefinitionName(ctx context.Context, name string) ([]Definition, error)
	FindByProcessDefinitionKey(ctx context.Context, key string) ([]Definition, error)
}

// InstanceRepository persists process instances started for documents
type InstanceRepository interface {
	Create(ctx context.Context, instance *Instance) error
	FindByDocumentID(ctx context.Context, documentID uuid.UUID) ([]Instance, error)
	FindByProcessInstanceID(ctx context.Context, processInstanceID string) (*Instance, error)
	DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error
}
