package processdocument

import (
	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

const (
	EventTypeProcessStarted = "ProcessDocumentProcessStarted"
	EventTypeTaskCompleted  = "ProcessDocumentTaskCompleted"
)

// AggregateTypeProcessDocument is the origin recorded for process-document events
const AggregateTypeProcessDocument = "process-document"

// ProcessStartedEvent is published after a process was started for a document
type ProcessStartedEvent struct {
	shared.BaseDomainEvent
	DocID                uuid.UUID `json:"document_id"`
	ProcessInstanceID    string    `json:"process_instance_id"`
	ProcessDefinitionKey string    `json:"process_definition_key"`
}

// DocumentID implements shared.DocumentScopedEvent
func (e *ProcessStartedEvent) DocumentID() uuid.UUID {
	return e.DocID
}

// NewProcessStartedEvent creates a ProcessStartedEvent
func NewProcessStartedEvent(instance *Instance, actor string) *ProcessStartedEvent {
	return &ProcessStartedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeProcessStarted, AggregateTypeProcessDocument, instance.ProcessInstanceID, actor),
		DocID:                instance.DocumentID,
		ProcessInstanceID:    instance.ProcessInstanceID,
		ProcessDefinitionKey: instance.ProcessDefinitionKey,
	}
}

// TaskCompletedEvent is published after a user task of a document's process was completed
type TaskCompletedEvent struct {
	shared.BaseDomainEvent
	DocID             uuid.UUID `json:"document_id"`
	TaskID            string    `json:"task_id"`
	TaskName          string    `json:"task_name"`
	ProcessInstanceID string    `json:"process_instance_id"`
}

// DocumentID implements shared.DocumentScopedEvent
func (e *TaskCompletedEvent) DocumentID() uuid.UUID {
	return e.DocID
}

// NewTaskCompletedEvent creates a TaskCompletedEvent
func NewTaskCompletedEvent(documentID uuid.UUID, taskID, taskName, processInstanceID, actor string) *TaskCompletedEvent {
	return &TaskCompletedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeTaskCompleted, AggregateTypeProcessDocument, taskID, actor),
		DocID:             documentID,
		TaskID:            taskID,
		TaskName:          taskName,
		ProcessInstanceID: processInstanceID,
	}
}
