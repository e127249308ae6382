package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
)

// DocumentDefinitionModel is the persistence model for a document definition version
type DocumentDefinitionModel struct {
	Name      string    `gorm:"type:varchar(255);primaryKey"`
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Schema    string    `gorm:"type:jsonb;not null"`
	ReadOnly  bool      `gorm:"not null;default:false"`
	CreatedOn time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentDefinitionModel) TableName() string {
	return "document_definitions"
}

// ToDomain converts the model to a definition. The schema is compiled lazily.
func (m *DocumentDefinitionModel) ToDomain() *document.Definition {
	return &document.Definition{
		ID:        document.DefinitionID{Name: m.Name, Version: m.Version},
		Schema:    json.RawMessage(m.Schema),
		CreatedOn: m.CreatedOn,
		ReadOnly:  m.ReadOnly,
	}
}

// DocumentDefinitionModelFromDomain converts a definition to its model
func DocumentDefinitionModelFromDomain(d *document.Definition) *DocumentDefinitionModel {
	return &DocumentDefinitionModel{
		Name:      d.ID.Name,
		Version:   d.ID.Version,
		Schema:    string(d.Schema),
		ReadOnly:  d.ReadOnly,
		CreatedOn: d.CreatedOn,
	}
}

// DocumentModel is the persistence model for the Document aggregate
type DocumentModel struct {
	AggregateModel
	DefinitionName    string                  `gorm:"type:varchar(255);not null;index"`
	DefinitionVersion int                     `gorm:"not null"`
	Content           string                  `gorm:"type:jsonb;not null"`
	Sequence          int64                   `gorm:"not null"`
	CreatedBy         string                  `gorm:"type:varchar(255)"`
	AssigneeID        string                  `gorm:"type:varchar(255);index"`
	AssigneeFullName  string                  `gorm:"type:varchar(255)"`
	Resources         []DocumentResourceModel `gorm:"foreignKey:DocumentID"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the model to a document
func (m *DocumentModel) ToDomain() *document.Document {
	doc := &document.Document{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DefinitionID:      document.DefinitionID{Name: m.DefinitionName, Version: m.DefinitionVersion},
		Content:           json.RawMessage(m.Content),
		Sequence:          m.Sequence,
		CreatedBy:         m.CreatedBy,
		AssigneeID:        m.AssigneeID,
		AssigneeFullName:  m.AssigneeFullName,
		Resources:         make([]document.Resource, len(m.Resources)),
	}
	for i, r := range m.Resources {
		doc.Resources[i] = r.ToDomain()
	}
	return doc
}

// DocumentModelFromDomain converts a document to its model
func DocumentModelFromDomain(d *document.Document) *DocumentModel {
	m := &DocumentModel{
		DefinitionName:    d.DefinitionID.Name,
		DefinitionVersion: d.DefinitionID.Version,
		Content:           string(d.Content),
		Sequence:          d.Sequence,
		CreatedBy:         d.CreatedBy,
		AssigneeID:        d.AssigneeID,
		AssigneeFullName:  d.AssigneeFullName,
		Resources:         make([]DocumentResourceModel, len(d.Resources)),
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	for i, r := range d.Resources {
		m.Resources[i] = DocumentResourceModelFromDomain(d.ID, r)
	}
	return m
}

// DocumentResourceModel links a stored resource to a document
type DocumentResourceModel struct {
	DocumentID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ResourceID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	FileName    string    `gorm:"type:varchar(512);not null"`
	Size        int64     `gorm:"not null;default:0"`
	ContentType string    `gorm:"type:varchar(255)"`
	CreatedOn   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentResourceModel) TableName() string {
	return "document_resources"
}

// ToDomain converts the model to a resource
func (m *DocumentResourceModel) ToDomain() document.Resource {
	return document.Resource{
		ResourceID:  m.ResourceID,
		FileName:    m.FileName,
		Size:        m.Size,
		ContentType: m.ContentType,
		CreatedOn:   m.CreatedOn,
	}
}

// DocumentResourceModelFromDomain converts a resource of a document to its model
func DocumentResourceModelFromDomain(documentID uuid.UUID, r document.Resource) DocumentResourceModel {
	return DocumentResourceModel{
		DocumentID:  documentID,
		ResourceID:  r.ResourceID,
		FileName:    r.FileName,
		Size:        r.Size,
		ContentType: r.ContentType,
		CreatedOn:   r.CreatedOn,
	}
}

// ResourceModel is an uploaded file kept in resource storage
type ResourceModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	StorageKey  string    `gorm:"type:varchar(1024);not null"`
	FileName    string    `gorm:"type:varchar(512);not null"`
	Size        int64     `gorm:"not null;default:0"`
	ContentType string    `gorm:"type:varchar(255)"`
	CreatedOn   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ResourceModel) TableName() string {
	return "resources"
}

// ToDomain converts the model to a stored resource
func (m *ResourceModel) ToDomain() *document.StoredResource {
	return &document.StoredResource{
		Resource: document.Resource{
			ResourceID:  m.ID,
			FileName:    m.FileName,
			Size:        m.Size,
			ContentType: m.ContentType,
			CreatedOn:   m.CreatedOn,
		},
		StorageKey: m.StorageKey,
	}
}

// ResourceModelFromDomain converts a stored resource to its model
func ResourceModelFromDomain(r *document.StoredResource) *ResourceModel {
	return &ResourceModel{
		ID:          r.ResourceID,
		StorageKey:  r.StorageKey,
		FileName:    r.FileName,
		Size:        r.Size,
		ContentType: r.ContentType,
		CreatedOn:   r.CreatedOn,
	}
}

// DocumentSequenceModel holds the last sequence number handed out per definition name
type DocumentSequenceModel struct {
	DefinitionName string `gorm:"type:varchar(255);primaryKey"`
	Value          int64  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}

// SearchFieldModel is the persistence model for search field configuration
type SearchFieldModel struct {
	ID                     uuid.UUID `gorm:"type:uuid;primary_key"`
	DocumentDefinitionName string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_search_field_key"`
	Key                    string    `gorm:"column:field_key;type:varchar(255);not null;uniqueIndex:idx_search_field_key"`
	Path                   string    `gorm:"type:varchar(1024);not null"`
	DataType               string    `gorm:"type:varchar(20);not null"`
	FieldType              string    `gorm:"type:varchar(20);not null"`
	MatchType              string    `gorm:"type:varchar(20);not null"`
	SortOrder              int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SearchFieldModel) TableName() string {
	return "search_fields"
}

// ToDomain converts the model to a search field
func (m *SearchFieldModel) ToDomain() *document.SearchField {
	return &document.SearchField{
		ID:                     m.ID,
		DocumentDefinitionName: m.DocumentDefinitionName,
		Key:                    m.Key,
		Path:                   m.Path,
		DataType:               document.DataType(m.DataType),
		FieldType:              document.FieldType(m.FieldType),
		MatchType:              document.MatchType(m.MatchType),
		Order:                  m.SortOrder,
	}
}

// SearchFieldModelFromDomain converts a search field to its model
func SearchFieldModelFromDomain(f *document.SearchField) *SearchFieldModel {
	return &SearchFieldModel{
		ID:                     f.ID,
		DocumentDefinitionName: f.DocumentDefinitionName,
		Key:                    f.Key,
		Path:                   f.Path,
		DataType:               string(f.DataType),
		FieldType:              string(f.FieldType),
		MatchType:              string(f.MatchType),
		SortOrder:              f.Order,
	}
}
