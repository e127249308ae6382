package formlink

import (
	"context"

	"github.com/google/uuid"
)

// FormAssociationRepository persists form associations
type FormAssociationRepository interface {
	// Create stores an association; a second association for the same
	// process definition key and flow element id returns ALREADY_EXISTS
	Create(ctx context.Context, association *FormAssociation) error
	Update(ctx context.Context, association *FormAssociation) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*FormAssociation, error)
	FindByProcessDefinitionKey(ctx context.Context, processDefinitionKey string) ([]FormAssociation, error)
	FindByFormLinkID(ctx context.Context, processDefinitionKey, formLinkID string) (*FormAssociation, error)
	FindByType(ctx context.Context, processDefinitionKey string, associationType AssociationType) ([]FormAssociation, error)
	// CountByFormID counts associations pointing at a form
	CountByFormID(ctx context.Context, formID uuid.UUID) (int64, error)
}
