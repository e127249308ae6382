package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// MetaData describes where, when and by whom an audited event happened
type MetaData struct {
	Origin     string    `json:"origin"`
	OccurredOn time.Time `json:"occurred_on"`
	User       string    `json:"user"`
}

// AuditRecord is an immutable entry of the audit trail.
// Records are only ever created or removed by retention, never modified.
type AuditRecord struct {
	ID         uuid.UUID       `json:"id"`
	MetaData   MetaData        `json:"meta_data"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	DocumentID *uuid.UUID      `json:"document_id,omitempty"`
}

// NewAuditRecord creates a new audit record
func NewAuditRecord(meta MetaData, eventType string, payload json.RawMessage, documentID *uuid.UUID) (*AuditRecord, error) {
	if meta.Origin == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Audit origin cannot be empty")
	}
	if eventType == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Audit event type cannot be empty")
	}
	if meta.OccurredOn.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Audit occurred-on timestamp is required")
	}
	if meta.User == "" {
		meta.User = shared.SystemActor
	}
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	if !json.Valid(payload) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Audit payload must be valid JSON")
	}

	return &AuditRecord{
		ID:         uuid.New(),
		MetaData:   meta,
		EventType:  eventType,
		Payload:    payload,
		DocumentID: documentID,
	}, nil
}

// FromEvent builds an audit record from a domain event and its serialized form
func FromEvent(event shared.DomainEvent, payload json.RawMessage) (*AuditRecord, error) {
	var documentID *uuid.UUID
	if scoped, ok := event.(shared.DocumentScopedEvent); ok {
		id := scoped.DocumentID()
		if id != uuid.Nil {
			documentID = &id
		}
	}

	return NewAuditRecord(MetaData{
		Origin:     event.AggregateType(),
		OccurredOn: event.OccurredAt(),
		User:       event.Actor(),
	}, event.EventType(), payload, documentID)
}
