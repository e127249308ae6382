package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/audit"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// EventSerializer encodes a domain event as the audit payload
type EventSerializer interface {
	Serialize(event shared.DomainEvent) (json.RawMessage, error)
}

// EventRecorder writes every domain event to the audit trail
type EventRecorder struct {
	repo       audit.AuditRecordRepository
	serializer EventSerializer
	logger     *zap.Logger
}

// NewEventRecorder creates a recorder
func NewEventRecorder(repo audit.AuditRecordRepository, serializer EventSerializer, logger *zap.Logger) *EventRecorder {
	return &EventRecorder{repo: repo, serializer: serializer, logger: logger}
}

// EventTypes returns nil so the recorder sees all events
func (r *EventRecorder) EventTypes() []string {
	return nil
}

// Handle stores the event as an audit record
func (r *EventRecorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := r.serializer.Serialize(event)
	if err != nil {
		return err
	}
	record, err := audit.FromEvent(event, payload)
	if err != nil {
		return fmt.Errorf("audit record for %s: %w", event.EventType(), err)
	}
	if err := r.repo.Save(ctx, record); err != nil {
		return fmt.Errorf("save audit record for %s: %w", event.EventType(), err)
	}

	r.logger.Debug("audit record stored",
		zap.String("event_type", record.EventType),
		zap.String("origin", record.MetaData.Origin),
		zap.String("user", record.MetaData.User),
	)
	return nil
}

var _ shared.EventHandler = (*EventRecorder)(nil)
