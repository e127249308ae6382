package audit

import (
	"context"
	"time"
)

// RetentionTask deletes audit records older than the retention period.
// It runs as a daily scheduler task.
type RetentionTask struct {
	service *AuditService
	days    int
	now     func() time.Time
}

// NewRetentionTask creates the task; days of 0 keeps records forever
func NewRetentionTask(service *AuditService, days int) *RetentionTask {
	return &RetentionTask{service: service, days: days, now: time.Now}
}

// Name identifies the task in the scheduler
func (t *RetentionTask) Name() string {
	return "audit-retention"
}

// Run applies retention
func (t *RetentionTask) Run(ctx context.Context) error {
	if t.days <= 0 {
		return nil
	}
	cutoff := t.now().UTC().AddDate(0, 0, -t.days)
	_, err := t.service.DeleteOlderThan(ctx, cutoff)
	return err
}
