package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/processdocument"
)

// ProcessDocumentDefinitionModel links a process definition key to a document definition name
type ProcessDocumentDefinitionModel struct {
	ProcessDefinitionKey   string `gorm:"type:varchar(255);primaryKey"`
	DocumentDefinitionName string `gorm:"type:varchar(255);primaryKey;index"`
	CanInitializeDocument  bool   `gorm:"not null;default:false"`
	StartableByUser        bool   `gorm:"not null;default:false"`
	ReadOnly               bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ProcessDocumentDefinitionModel) TableName() string {
	return "process_document_definitions"
}

// ToDomain converts the model to a process-document definition
func (m *ProcessDocumentDefinitionModel) ToDomain() *processdocument.Definition {
	return &processdocument.Definition{
		ID: processdocument.DefinitionID{
			ProcessDefinitionKey:   m.ProcessDefinitionKey,
			DocumentDefinitionName: m.DocumentDefinitionName,
		},
		CanInitializeDocument: m.CanInitializeDocument,
		StartableByUser:       m.StartableByUser,
		ReadOnly:              m.ReadOnly,
	}
}

// ProcessDocumentDefinitionModelFromDomain converts a process-document definition to its model
func ProcessDocumentDefinitionModelFromDomain(d *processdocument.Definition) *ProcessDocumentDefinitionModel {
	return &ProcessDocumentDefinitionModel{
		ProcessDefinitionKey:   d.ID.ProcessDefinitionKey,
		DocumentDefinitionName: d.ID.DocumentDefinitionName,
		CanInitializeDocument:  d.CanInitializeDocument,
		StartableByUser:        d.StartableByUser,
		ReadOnly:               d.ReadOnly,
	}
}

// ProcessDocumentInstanceModel records a process instance started for a document
type ProcessDocumentInstanceModel struct {
	ProcessInstanceID    string    `gorm:"type:varchar(255);primaryKey"`
	DocumentID           uuid.UUID `gorm:"type:uuid;not null;index"`
	ProcessDefinitionKey string    `gorm:"type:varchar(255);not null"`
	ProcessName          string    `gorm:"type:varchar(255);not null"`
	Active               bool      `gorm:"not null;default:true"`
	CreatedOn            time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProcessDocumentInstanceModel) TableName() string {
	return "process_document_instances"
}

// ToDomain converts the model to an instance
func (m *ProcessDocumentInstanceModel) ToDomain() *processdocument.Instance {
	return &processdocument.Instance{
		ProcessInstanceID:    m.ProcessInstanceID,
		DocumentID:           m.DocumentID,
		ProcessDefinitionKey: m.ProcessDefinitionKey,
		ProcessName:          m.ProcessName,
		Active:               m.Active,
		CreatedOn:            m.CreatedOn,
	}
}

// ProcessDocumentInstanceModelFromDomain converts an instance to its model
func ProcessDocumentInstanceModelFromDomain(i *processdocument.Instance) *ProcessDocumentInstanceModel {
	return &ProcessDocumentInstanceModel{
		ProcessInstanceID:    i.ProcessInstanceID,
		DocumentID:           i.DocumentID,
		ProcessDefinitionKey: i.ProcessDefinitionKey,
		ProcessName:          i.ProcessName,
		Active:               i.Active,
		CreatedOn:            i.CreatedOn,
	}
}
