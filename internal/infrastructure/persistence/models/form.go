package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/form"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/formlink"
)

// FormDefinitionModel is the persistence model for form definitions
type FormDefinitionModel struct {
	BaseModel
	Name       string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Definition string `gorm:"type:jsonb;not null"`
	ReadOnly   bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (FormDefinitionModel) TableName() string {
	return "form_definitions"
}

// ToDomain converts the model to a form definition
func (m *FormDefinitionModel) ToDomain() *form.FormDefinition {
	return &form.FormDefinition{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Definition: json.RawMessage(m.Definition),
		ReadOnly:   m.ReadOnly,
	}
}

// FormDefinitionModelFromDomain converts a form definition to its model
func FormDefinitionModelFromDomain(f *form.FormDefinition) *FormDefinitionModel {
	m := &FormDefinitionModel{
		Name:       f.Name,
		Definition: string(f.Definition),
		ReadOnly:   f.ReadOnly,
	}
	m.FromDomainBaseEntity(f.BaseEntity)
	return m
}

// FormAssociationModel is the persistence model for form associations
type FormAssociationModel struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primary_key"`
	ProcessDefinitionKey string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_form_association_link"`
	Type                 string     `gorm:"type:varchar(32);not null"`
	FormLinkID           string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_form_association_link"`
	LinkKind             string     `gorm:"type:varchar(32);not null"`
	FormID               *uuid.UUID `gorm:"type:uuid;index"`
	URL                  string     `gorm:"column:url;type:varchar(2048)"`
	AngularState         string     `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (FormAssociationModel) TableName() string {
	return "form_associations"
}

// ToDomain converts the model to a form association
func (m *FormAssociationModel) ToDomain() *formlink.FormAssociation {
	return &formlink.FormAssociation{
		ID:                   m.ID,
		ProcessDefinitionKey: m.ProcessDefinitionKey,
		Type:                 formlink.AssociationType(m.Type),
		FormLink: formlink.FormLink{
			ID:           m.FormLinkID,
			Kind:         formlink.LinkKind(m.LinkKind),
			FormID:       m.FormID,
			URL:          m.URL,
			AngularState: m.AngularState,
		},
	}
}

// FormAssociationModelFromDomain converts a form association to its model
func FormAssociationModelFromDomain(a *formlink.FormAssociation) *FormAssociationModel {
	return &FormAssociationModel{
		ID:                   a.ID,
		ProcessDefinitionKey: a.ProcessDefinitionKey,
		Type:                 string(a.Type),
		FormLinkID:           a.FormLink.ID,
		LinkKind:             string(a.FormLink.Kind),
		FormID:               a.FormLink.FormID,
		URL:                  a.FormLink.URL,
		AngularState:         a.FormLink.AngularState,
	}
}
