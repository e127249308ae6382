package document

import (
	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// Event type constants
const (
	EventTypeDefinitionDeployed      = "DocumentDefinitionDeployed"
	EventTypeDefinitionDeleted       = "DocumentDefinitionDeleted"
	EventTypeDocumentCreated         = "DocumentCreated"
	EventTypeDocumentModified        = "DocumentModified"
	EventTypeDocumentAssigned        = "DocumentAssigned"
	EventTypeDocumentUnassigned      = "DocumentUnassigned"
	EventTypeDocumentResourceAdded   = "DocumentResourceAdded"
	EventTypeDocumentResourceRemoved = "DocumentResourceRemoved"
	EventTypeDocumentDeleted         = "DocumentDeleted"
)

// AggregateTypeDefinition is the origin recorded for definition events
const AggregateTypeDefinition = "document-definition"

// documentEvent is embedded by every event about a single document
type documentEvent struct {
	shared.BaseDomainEvent
	DocID          uuid.UUID `json:"document_id"`
	DefinitionName string    `json:"definition_name"`
}

// DocumentID implements shared.DocumentScopedEvent
func (e *documentEvent) DocumentID() uuid.UUID {
	return e.DocID
}

func newDocumentEvent(eventType string, doc *Document, actor string) documentEvent {
	return documentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeDocument, doc.ID.String(), actor),
		DocID:           doc.ID,
		DefinitionName:  doc.DefinitionID.Name,
	}
}

// DocumentCreatedEvent is published when a document is created
type DocumentCreatedEvent struct {
	documentEvent
	DefinitionVersion int   `json:"definition_version"`
	Sequence          int64 `json:"sequence"`
}

// NewDocumentCreatedEvent creates a DocumentCreatedEvent
func NewDocumentCreatedEvent(doc *Document, actor string) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		documentEvent:     newDocumentEvent(EventTypeDocumentCreated, doc, actor),
		DefinitionVersion: doc.DefinitionID.Version,
		Sequence:          doc.Sequence,
	}
}

// DocumentModifiedEvent is published when document content changes
type DocumentModifiedEvent struct {
	documentEvent
	Changes []Change `json:"changes"`
	Version int      `json:"version"`
}

// NewDocumentModifiedEvent creates a DocumentModifiedEvent
func NewDocumentModifiedEvent(doc *Document, changes []Change, actor string) *DocumentModifiedEvent {
	return &DocumentModifiedEvent{
		documentEvent: newDocumentEvent(EventTypeDocumentModified, doc, actor),
		Changes:       changes,
		Version:       doc.Version,
	}
}

// DocumentAssignedEvent is published when a document gets an assignee
type DocumentAssignedEvent struct {
	documentEvent
	AssigneeID       string `json:"assignee_id"`
	AssigneeFullName string `json:"assignee_full_name"`
}

// NewDocumentAssignedEvent creates a DocumentAssignedEvent
func NewDocumentAssignedEvent(doc *Document, actor string) *DocumentAssignedEvent {
	return &DocumentAssignedEvent{
		documentEvent:    newDocumentEvent(EventTypeDocumentAssigned, doc, actor),
		AssigneeID:       doc.AssigneeID,
		AssigneeFullName: doc.AssigneeFullName,
	}
}

// DocumentUnassignedEvent is published when the assignee is removed
type DocumentUnassignedEvent struct {
	documentEvent
	PreviousAssigneeID string `json:"previous_assignee_id"`
}

// NewDocumentUnassignedEvent creates a DocumentUnassignedEvent
func NewDocumentUnassignedEvent(doc *Document, previousAssigneeID, actor string) *DocumentUnassignedEvent {
	return &DocumentUnassignedEvent{
		documentEvent:      newDocumentEvent(EventTypeDocumentUnassigned, doc, actor),
		PreviousAssigneeID: previousAssigneeID,
	}
}

// DocumentResourceEvent is published when a resource is linked or unlinked
type DocumentResourceEvent struct {
	documentEvent
	ResourceID uuid.UUID `json:"resource_id"`
}

// NewDocumentResourceEvent creates a DocumentResourceEvent of the given type
func NewDocumentResourceEvent(eventType string, doc *Document, resourceID uuid.UUID, actor string) *DocumentResourceEvent {
	return &DocumentResourceEvent{
		documentEvent: newDocumentEvent(eventType, doc, actor),
		ResourceID:    resourceID,
	}
}

// DocumentDeletedEvent is published when a document is removed
type DocumentDeletedEvent struct {
	documentEvent
}

// NewDocumentDeletedEvent creates a DocumentDeletedEvent
func NewDocumentDeletedEvent(doc *Document, actor string) *DocumentDeletedEvent {
	return &DocumentDeletedEvent{documentEvent: newDocumentEvent(EventTypeDocumentDeleted, doc, actor)}
}

// DefinitionDeployedEvent is published when a definition version is stored
type DefinitionDeployedEvent struct {
	shared.BaseDomainEvent
	Name     string `json:"name"`
	Version  int    `json:"version"`
	ReadOnly bool   `json:"read_only"`
}

// NewDefinitionDeployedEvent creates a DefinitionDeployedEvent
func NewDefinitionDeployedEvent(def *Definition, actor string) *DefinitionDeployedEvent {
	return &DefinitionDeployedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDefinitionDeployed, AggregateTypeDefinition, def.ID.String(), actor),
		Name:            def.ID.Name,
		Version:         def.ID.Version,
		ReadOnly:        def.ReadOnly,
	}
}

// DefinitionDeletedEvent is published when all versions of a definition are removed
type DefinitionDeletedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewDefinitionDeletedEvent creates a DefinitionDeletedEvent
func NewDefinitionDeletedEvent(name, actor string) *DefinitionDeletedEvent {
	return &DefinitionDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDefinitionDeleted, AggregateTypeDefinition, name, actor),
		Name:            name,
	}
}
