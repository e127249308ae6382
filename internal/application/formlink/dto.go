package formlink

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/formlink"
)

// FormLinkRequest is the link part of an association request
type FormLinkRequest struct {
	ID           string            `json:"id" yaml:"id" binding:"required"`
	Kind         formlink.LinkKind `json:"kind" yaml:"kind" binding:"required,oneof=form-id url angular-state"`
	FormID       *uuid.UUID        `json:"form_id,omitempty" yaml:"formId"`
	FormName     string            `json:"form_name,omitempty" yaml:"formName"`
	URL          string            `json:"url,omitempty" yaml:"url"`
	AngularState string            `json:"angular_state,omitempty" yaml:"angularState"`
}

// CreateAssociationRequest is the body for creating a form association
type CreateAssociationRequest struct {
	ProcessDefinitionKey string                   `json:"process_definition_key" yaml:"processDefinitionKey" binding:"required"`
	Type                 formlink.AssociationType `json:"type" yaml:"type" binding:"required,oneof=user-task start-event boundary-event"`
	FormLink             FormLinkRequest          `json:"form_link" yaml:"formLink" binding:"required"`
}

// ModifyAssociationRequest is the body for modifying a form association
type ModifyAssociationRequest struct {
	ProcessDefinitionKey string                   `json:"process_definition_key" binding:"required"`
	ID                   uuid.UUID                `json:"id" binding:"required"`
	Type                 formlink.AssociationType `json:"type" binding:"required,oneof=user-task start-event boundary-event"`
	FormLink             FormLinkRequest          `json:"form_link" binding:"required"`
}

// AssociationResponse is the API view of a form association
type AssociationResponse struct {
	ID                   uuid.UUID                `json:"id"`
	ProcessDefinitionKey string                   `json:"process_definition_key"`
	Type                 formlink.AssociationType `json:"type"`
	FormLink             formlink.FormLink        `json:"form_link"`
}

// ToAssociationResponse converts an association
func ToAssociationResponse(a *formlink.FormAssociation) AssociationResponse {
	return AssociationResponse{
		ID:                   a.ID,
		ProcessDefinitionKey: a.ProcessDefinitionKey,
		Type:                 a.Type,
		FormLink:             a.FormLink,
	}
}

// FormForNodeRequest is bound from the query string of the form-definition endpoint
type FormForNodeRequest struct {
	ProcessDefinitionKey string `form:"processDefinitionKey" binding:"required"`
	FormLinkID           string `form:"formLinkId" binding:"required"`
	DocumentID           string `form:"documentId" binding:"omitempty,uuid"`
	TaskInstanceID       string `form:"taskInstanceId"`
}

// FormForNodeResponse is the linked target of a flow element. For form-id
// links Definition holds the prefilled form.
type FormForNodeResponse struct {
	Kind         formlink.LinkKind `json:"kind"`
	FormID       *uuid.UUID        `json:"form_id,omitempty"`
	Definition   json.RawMessage   `json:"form_definition,omitempty"`
	URL          string            `json:"url,omitempty"`
	AngularState string            `json:"angular_state,omitempty"`
}

// SubmissionRequest is a submitted form for a flow element
type SubmissionRequest struct {
	ProcessDefinitionKey string          `json:"process_definition_key" binding:"required"`
	FormLinkID           string          `json:"form_link_id" binding:"required"`
	DocumentID           *uuid.UUID      `json:"document_id"`
	DocumentDefinition   string          `json:"document_definition_name"`
	TaskInstanceID       string          `json:"task_instance_id"`
	Submission           json.RawMessage `json:"submission" binding:"required"`
}

// SubmissionResult tells the caller which document and process the submission touched
type SubmissionResult struct {
	DocumentID        uuid.UUID `json:"document_id"`
	ProcessInstanceID string    `json:"process_instance_id,omitempty"`
}
