package audit

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/audit"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// AuditRecordResponse is the API view of an audit record
type AuditRecordResponse struct {
	ID         uuid.UUID       `json:"id"`
	Origin     string          `json:"origin"`
	OccurredOn time.Time       `json:"occurred_on"`
	User       string          `json:"user"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	DocumentID *uuid.UUID      `json:"document_id,omitempty"`
}

// ToAuditRecordResponse converts a record
func ToAuditRecordResponse(r *audit.AuditRecord) AuditRecordResponse {
	return AuditRecordResponse{
		ID:         r.ID,
		Origin:     r.MetaData.Origin,
		OccurredOn: r.MetaData.OccurredOn,
		User:       r.MetaData.User,
		EventType:  r.EventType,
		Payload:    r.Payload,
		DocumentID: r.DocumentID,
	}
}

// SearchAuditRequest is bound from the query string of the audit search endpoint.
// Property takes the form "path=value".
type SearchAuditRequest struct {
	EventTypes []string   `form:"event_type"`
	DocumentID string     `form:"document_id" binding:"omitempty,uuid"`
	User       string     `form:"user"`
	Origin     string     `form:"origin"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Property   string     `form:"property"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToCriteria converts the request into repository criteria
func (r SearchAuditRequest) ToCriteria() (audit.SearchCriteria, error) {
	c := audit.SearchCriteria{
		EventTypes: r.EventTypes,
		User:       r.User,
		Origin:     r.Origin,
		From:       r.From,
		To:         r.To,
		Filter:     pageFilter(r.Page, r.PageSize),
	}
	if r.DocumentID != "" {
		id, err := uuid.Parse(r.DocumentID)
		if err != nil {
			return audit.SearchCriteria{}, shared.NewDomainError("INVALID_INPUT", "Invalid document id")
		}
		c.DocumentID = &id
	}
	if r.Property != "" {
		path, value, ok := strings.Cut(r.Property, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return audit.SearchCriteria{}, shared.NewDomainError("INVALID_INPUT", "Property filter must be path=value")
		}
		c.PropertyPath = strings.TrimSpace(path)
		c.PropertyValue = value
	}
	if c.From != nil && c.To != nil && c.To.Before(*c.From) {
		return audit.SearchCriteria{}, shared.NewDomainError("INVALID_INPUT", "to must not be before from")
	}
	return c, nil
}

func pageFilter(page, size int) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if size > 0 {
		f.PageSize = size
	}
	f.OrderBy = "occurred_on"
	return f
}
