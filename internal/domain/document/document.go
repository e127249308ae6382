package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// AggregateTypeDocument is the origin recorded for document events
const AggregateTypeDocument = "document"

// Resource is a file linked to a document
type Resource struct {
	ResourceID  uuid.UUID `json:"resource_id"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedOn   time.Time `json:"created_on"`
}

// Document is a case: JSON content that conforms to a definition
type Document struct {
	shared.BaseAggregateRoot
	DefinitionID     DefinitionID
	Content          json.RawMessage
	Sequence         int64
	CreatedBy        string
	AssigneeID       string
	AssigneeFullName string
	Resources        []Resource
}

// NewDocument validates content against the definition and creates a document
func NewDocument(def *Definition, content json.RawMessage, sequence int64, createdBy string) (*Document, error) {
	if err := def.Validate(content); err != nil {
		return nil, err
	}

	doc := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DefinitionID:      def.ID,
		Content:           compact(content),
		Sequence:          sequence,
		CreatedBy:         createdBy,
		Resources:         []Resource{},
	}
	doc.AddDomainEvent(NewDocumentCreatedEvent(doc, createdBy))
	return doc, nil
}

// Modify replaces the content. versionBasedOn must equal the current version.
func (d *Document) Modify(def *Definition, content json.RawMessage, versionBasedOn int, actor string) error {
	if versionBasedOn != d.Version {
		return shared.NewDomainError("CONCURRENCY_CONFLICT",
			fmt.Sprintf("Document %s was modified: version %d, based on %d", d.ID, d.Version, versionBasedOn))
	}
	if def.ID.Name != d.DefinitionID.Name {
		return shared.NewDomainError("INVALID_INPUT", "Definition does not belong to this document")
	}
	if err := def.Validate(content); err != nil {
		return err
	}

	changes, err := Diff(d.Content, content)
	if err != nil {
		return shared.NewDomainError("DOCUMENT_CONTENT_INVALID", err.Error())
	}
	if len(changes) == 0 {
		return nil
	}

	d.Content = compact(content)
	d.DefinitionID = def.ID
	d.IncrementVersion()
	d.Touch()
	d.AddDomainEvent(NewDocumentModifiedEvent(d, changes, actor))
	return nil
}

// Assign sets the assignee of the document
func (d *Document) Assign(assigneeID, assigneeFullName, actor string) error {
	if assigneeID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Assignee id cannot be empty")
	}
	d.AssigneeID = assigneeID
	d.AssigneeFullName = assigneeFullName
	d.Touch()
	d.AddDomainEvent(NewDocumentAssignedEvent(d, actor))
	return nil
}

// Unassign clears the assignee; unassigning an unassigned document is a no-op
func (d *Document) Unassign(actor string) {
	if d.AssigneeID == "" {
		return
	}
	previous := d.AssigneeID
	d.AssigneeID = ""
	d.AssigneeFullName = ""
	d.Touch()
	d.AddDomainEvent(NewDocumentUnassignedEvent(d, previous, actor))
}

// AddResource links a stored file to the document
func (d *Document) AddResource(res Resource, actor string) error {
	for _, r := range d.Resources {
		if r.ResourceID == res.ResourceID {
			return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Resource %s is already linked", res.ResourceID))
		}
	}
	if res.CreatedOn.IsZero() {
		res.CreatedOn = time.Now().UTC()
	}
	d.Resources = append(d.Resources, res)
	d.Touch()
	d.AddDomainEvent(NewDocumentResourceEvent(EventTypeDocumentResourceAdded, d, res.ResourceID, actor))
	return nil
}

// RemoveResource unlinks a file from the document
func (d *Document) RemoveResource(resourceID uuid.UUID, actor string) error {
	for i, r := range d.Resources {
		if r.ResourceID == resourceID {
			d.Resources = append(d.Resources[:i], d.Resources[i+1:]...)
			d.Touch()
			d.AddDomainEvent(NewDocumentResourceEvent(EventTypeDocumentResourceRemoved, d, resourceID, actor))
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Resource %s is not linked to document %s", resourceID, d.ID))
}

// MarkDeleted records the deletion of the document
func (d *Document) MarkDeleted(actor string) {
	d.AddDomainEvent(NewDocumentDeletedEvent(d, actor))
}

func compact(content json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, content); err != nil {
		return content
	}
	return buf.Bytes()
}

// StoredResource is an uploaded file and where it is kept in resource storage
type StoredResource struct {
	Resource
	StorageKey string `json:"-"`
}

// NewStoredResource creates a resource for an upload; the storage key is derived from its id
func NewStoredResource(fileName string, size int64, contentType string) (*StoredResource, error) {
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "File name cannot be empty")
	}
	if size < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "File size cannot be negative")
	}
	id := uuid.New()
	return &StoredResource{
		Resource: Resource{
			ResourceID:  id,
			FileName:    fileName,
			Size:        size,
			ContentType: contentType,
			CreatedOn:   time.Now().UTC(),
		},
		StorageKey: "resources/" + id.String(),
	}, nil
}
