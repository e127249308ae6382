package telemetry

import (
	"context"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
)

// CaseMetrics counts domain events and outgoing mail.
// It subscribes to every event on the bus.
type CaseMetrics struct {
	events *Counter
	mails  *Counter
}

// NewCaseMetrics creates the instruments on meter
func NewCaseMetrics(meter metric.Meter) (*CaseMetrics, error) {
	events, err := NewCounter(meter, "valtimo_domain_events_total", "Domain events published", "{event}")
	if err != nil {
		return nil, err
	}
	mails, err := NewCounter(meter, "valtimo_mail_sent_total", "Mails handed to the transport", "{mail}")
	if err != nil {
		return nil, err
	}
	return &CaseMetrics{events: events, mails: mails}, nil
}

// Handle counts the event by type and origin
func (m *CaseMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	m.events.Inc(ctx, AttrEventType.String(event.EventType()), AttrOrigin.String(event.AggregateType()))
	return nil
}

// EventTypes is empty: every event is counted.
func (m *CaseMetrics) EventTypes() []string {
	return nil
}

// MailSent counts a send attempt; err decides the status label.
func (m *CaseMetrics) MailSent(ctx context.Context, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.mails.Inc(ctx, AttrMailStatus.String(status))
}

var _ shared.EventHandler = (*CaseMetrics)(nil)
