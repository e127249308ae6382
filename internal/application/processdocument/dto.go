package processdocument

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	appdocument "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/processdocument"
)

// CreateDefinitionRequest links a process definition to a document definition
type CreateDefinitionRequest struct {
	ProcessDefinitionKey   string `json:"process_definition_key" yaml:"processDefinitionKey" binding:"required"`
	DocumentDefinitionName string `json:"document_definition_name" yaml:"documentDefinitionName" binding:"required"`
	CanInitializeDocument  bool   `json:"can_initialize_document" yaml:"canInitializeDocument"`
	StartableByUser        bool   `json:"startable_by_user" yaml:"startableByUser"`
}

// DefinitionIDRequest identifies a link to delete
type DefinitionIDRequest struct {
	ProcessDefinitionKey   string `json:"process_definition_key" binding:"required"`
	DocumentDefinitionName string `json:"document_definition_name" binding:"required"`
}

// DefinitionResponse is the API view of a process-document link
type DefinitionResponse struct {
	ProcessDefinitionKey   string `json:"process_definition_key"`
	DocumentDefinitionName string `json:"document_definition_name"`
	CanInitializeDocument  bool   `json:"can_initialize_document"`
	StartableByUser        bool   `json:"startable_by_user"`
	ReadOnly               bool   `json:"read_only"`
}

// ToDefinitionResponse converts a link
func ToDefinitionResponse(d *processdocument.Definition) DefinitionResponse {
	return DefinitionResponse{
		ProcessDefinitionKey:   d.ID.ProcessDefinitionKey,
		DocumentDefinitionName: d.ID.DocumentDefinitionName,
		CanInitializeDocument:  d.CanInitializeDocument,
		StartableByUser:        d.StartableByUser,
		ReadOnly:               d.ReadOnly,
	}
}

// NewDocumentAndStartProcessRequest creates a document and starts its process
type NewDocumentAndStartProcessRequest struct {
	ProcessDefinitionKey   string          `json:"process_definition_key" binding:"required"`
	DocumentDefinitionName string          `json:"document_definition_name" binding:"required"`
	Content                json.RawMessage `json:"content" binding:"required"`
	Variables              map[string]any  `json:"variables"`
}

// ModifyDocumentAndStartProcessRequest modifies a document and starts a process for it
type ModifyDocumentAndStartProcessRequest struct {
	ProcessDefinitionKey string          `json:"process_definition_key" binding:"required"`
	DocumentID           uuid.UUID       `json:"document_id" binding:"required"`
	Content              json.RawMessage `json:"content"`
	VersionBasedOn       int             `json:"version_based_on" binding:"omitempty,min=1"`
	Variables            map[string]any  `json:"variables"`
}

// ModifyDocumentAndCompleteTaskRequest modifies a document and completes one of its tasks
type ModifyDocumentAndCompleteTaskRequest struct {
	TaskID         string          `json:"task_id" binding:"required"`
	DocumentID     uuid.UUID       `json:"document_id" binding:"required"`
	Content        json.RawMessage `json:"content"`
	VersionBasedOn int             `json:"version_based_on" binding:"omitempty,min=1"`
	Variables      map[string]any  `json:"variables"`
}

// OperationResult is returned by the document-and-process operations
type OperationResult struct {
	Document          appdocument.DocumentResponse `json:"document"`
	ProcessInstanceID string                       `json:"process_instance_id"`
}

// InstanceResponse is the API view of a process instance of a document
type InstanceResponse struct {
	ProcessInstanceID    string    `json:"process_instance_id"`
	DocumentID           uuid.UUID `json:"document_id"`
	ProcessDefinitionKey string    `json:"process_definition_key"`
	ProcessName          string    `json:"process_name"`
	Active               bool      `json:"active"`
	CreatedOn            time.Time `json:"created_on"`
}

// ToInstanceResponse converts an instance
func ToInstanceResponse(i *processdocument.Instance) InstanceResponse {
	return InstanceResponse{
		ProcessInstanceID:    i.ProcessInstanceID,
		DocumentID:           i.DocumentID,
		ProcessDefinitionKey: i.ProcessDefinitionKey,
		ProcessName:          i.ProcessName,
		Active:               i.Active,
		CreatedOn:            i.CreatedOn,
	}
}
