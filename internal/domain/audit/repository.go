package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// SearchCriteria narrows an audit search. Zero values do not filter.
type SearchCriteria struct {
	EventTypes []string
	DocumentID *uuid.UUID
	User       string
	Origin     string
	From       *time.Time
	To         *time.Time
	// PropertyPath is a dotted path into the payload compared with PropertyValue
	PropertyPath  string
	PropertyValue string
	Filter        shared.Filter
}

// AuditRecordRepository persists audit records
type AuditRecordRepository interface {
	// Save stores a new record
	Save(ctx context.Context, record *AuditRecord) error

	// FindByID returns shared.ErrNotFound when the record does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*AuditRecord, error)

	// Search returns a page of records matching the criteria, newest first, plus the total count
	Search(ctx context.Context, criteria SearchCriteria) ([]AuditRecord, int64, error)

	// DeleteOlderThan removes records that occurred before cutoff and returns how many were removed
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
