package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/audit"
)

// AuditRecordModel is the persistence model for audit records
type AuditRecordModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	Origin     string     `gorm:"type:varchar(255);not null;index"`
	OccurredOn time.Time  `gorm:"not null;index"`
	Actor      string     `gorm:"column:actor;type:varchar(255);not null;index"`
	EventType  string     `gorm:"type:varchar(255);not null;index"`
	Payload    string     `gorm:"type:jsonb;not null"`
	DocumentID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (AuditRecordModel) TableName() string {
	return "audit_records"
}

// ToDomain converts the model to an audit record
func (m *AuditRecordModel) ToDomain() *audit.AuditRecord {
	return &audit.AuditRecord{
		ID: m.ID,
		MetaData: audit.MetaData{
			Origin:     m.Origin,
			OccurredOn: m.OccurredOn,
			User:       m.Actor,
		},
		EventType:  m.EventType,
		Payload:    json.RawMessage(m.Payload),
		DocumentID: m.DocumentID,
	}
}

// AuditRecordModelFromDomain converts an audit record to its model
func AuditRecordModelFromDomain(r *audit.AuditRecord) *AuditRecordModel {
	return &AuditRecordModel{
		ID:         r.ID,
		Origin:     r.MetaData.Origin,
		OccurredOn: r.MetaData.OccurredOn,
		Actor:      r.MetaData.User,
		EventType:  r.EventType,
		Payload:    string(r.Payload),
		DocumentID: r.DocumentID,
	}
}
