package processdocument

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// DefinitionID identifies a link between a process definition and a document definition
type DefinitionID struct {
	ProcessDefinitionKey   string `json:"process_definition_key"`
	DocumentDefinitionName string `json:"document_definition_name"`
}

// Definition links a process definition to the document definition it works on
type Definition struct {
	ID                    DefinitionID
	CanInitializeDocument bool
	StartableByUser       bool
	ReadOnly              bool
}

// NewDefinition validates and creates a process-document link
func NewDefinition(processDefinitionKey, documentDefinitionName string, canInitializeDocument, startableByUser bool) (*Definition, error) {
	id := DefinitionID{
		ProcessDefinitionKey:   strings.TrimSpace(processDefinitionKey),
		DocumentDefinitionName: strings.TrimSpace(documentDefinitionName),
	}
	if id.ProcessDefinitionKey == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Process definition key cannot be empty")
	}
	if id.DocumentDefinitionName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document definition name cannot be empty")
	}
	return &Definition{
		ID:                    id,
		CanInitializeDocument: canInitializeDocument,
		StartableByUser:       startableByUser,
	}, nil
}

// EnsureCanInitialize returns INVALID_STATE when the process may not create documents
func (d *Definition) EnsureCanInitialize() error {
	if !d.CanInitializeDocument {
		return shared.NewDomainError("INVALID_STATE",
			"Process "+d.ID.ProcessDefinitionKey+" is not allowed to create documents")
	}
	return nil
}

// Instance records a process instance started for a document
type Instance struct {
	ProcessInstanceID    string
	DocumentID           uuid.UUID
	ProcessDefinitionKey string
	ProcessName          string
	Active               bool
	CreatedOn            time.Time
}

// NewInstance creates an active instance record
func NewInstance(processInstanceID string, documentID uuid.UUID, processDefinitionKey, processName string) (*Instance, error) {
	if processInstanceID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Process instance id cannot be empty")
	}
	if documentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document id cannot be empty")
	}
	if processName == "" {
		processName = processDefinitionKey
	}
	return &Instance{
		ProcessInstanceID:    processInstanceID,
		DocumentID:           documentID,
		ProcessDefinitionKey: processDefinitionKey,
		ProcessName:          processName,
		Active:               true,
		CreatedOn:            time.Now().UTC(),
	}, nil
}
