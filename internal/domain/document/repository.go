package document

import (
	"context"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// DefinitionRepository persists document definitions
type DefinitionRepository interface {
	// Save stores a definition version; storing an existing name+version returns ALREADY_EXISTS
	Save(ctx context.Context, def *Definition) error

	// FindLatest returns the highest version of a definition, or shared.ErrNotFound
	FindLatest(ctx context.Context, name string) (*Definition, error)

	// FindByID returns a specific version, or shared.ErrNotFound
	FindByID(ctx context.Context, id DefinitionID) (*Definition, error)

	// FindAllLatest returns the latest version of every definition
	FindAllLatest(ctx context.Context, filter shared.Filter) ([]Definition, int64, error)

	// MarkReadOnly flags a stored version as read-only, or returns shared.ErrNotFound
	MarkReadOnly(ctx context.Context, id DefinitionID) error

	// DeleteByName removes all versions of a definition
	DeleteByName(ctx context.Context, name string) error
}

// DocumentRepository persists documents
type DocumentRepository interface {
	// Create stores a new document
	Create(ctx context.Context, doc *Document) error

	// Update stores changes. The stored version must equal doc.Version-1 when content changed,
	// otherwise CONCURRENCY_CONFLICT is returned.
	Update(ctx context.Context, doc *Document, expectedVersion int) error

	// FindByID returns shared.ErrNotFound when the document does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// Delete removes a document
	Delete(ctx context.Context, id uuid.UUID) error

	// Search returns the page of documents matching the criteria and the total count
	Search(ctx context.Context, criteria Criteria) ([]Document, int64, error)

	// CountByDefinitionName counts documents of all versions of a definition
	CountByDefinitionName(ctx context.Context, name string) (int64, error)

	// NextSequence returns the next sequence number for a definition name, starting at 1
	NextSequence(ctx context.Context, definitionName string) (int64, error)
}

// SearchFieldRepository persists search field configuration
type SearchFieldRepository interface {
	// Create stores a field; a duplicate key for the definition returns ALREADY_EXISTS
	Create(ctx context.Context, field *SearchField) error
	Update(ctx context.Context, field *SearchField) error
	Delete(ctx context.Context, definitionName, key string) error
	FindByDefinitionName(ctx context.Context, definitionName string) ([]SearchField, error)
	FindByKey(ctx context.Context, definitionName, key string) (*SearchField, error)
	DeleteByDefinitionName(ctx context.Context, definitionName string) error
}

// ResourceRepository persists metadata of uploaded files
type ResourceRepository interface {
	Save(ctx context.Context, res *StoredResource) error
	FindByID(ctx context.Context, id uuid.UUID) (*StoredResource, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
