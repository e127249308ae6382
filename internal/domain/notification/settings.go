package notification

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// TemplateDocumentAssigned is the mail template sent to a new assignee
const TemplateDocumentAssigned = "document-assigned"

// EmailNotificationSettings are a user's mail preferences
type EmailNotificationSettings struct {
	UserID                        string
	EmailAddress                  string
	TaskNotificationsEnabled      bool
	EmailNotificationOnAssignment bool
	// Days limits task notifications to these weekdays; empty means every day
	Days      []time.Weekday
	UpdatedAt time.Time
}

// DefaultSettings returns the settings of a user that never saved any
func DefaultSettings(userID, email string) *EmailNotificationSettings {
	return &EmailNotificationSettings{
		UserID:                        userID,
		EmailAddress:                  email,
		EmailNotificationOnAssignment: true,
	}
}

// Update replaces the preferences
func (s *EmailNotificationSettings) Update(email string, taskNotifications, onAssignment bool, days []time.Weekday) error {
	email = strings.TrimSpace(email)
	if email != "" && !contract.ValidEmail(email) {
		return shared.NewDomainError("INVALID_INPUT", "Invalid e-mail address")
	}
	if (taskNotifications || onAssignment) && email == "" {
		return shared.NewDomainError("INVALID_INPUT", "An e-mail address is required to receive notifications")
	}
	normalized := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return shared.NewDomainError("INVALID_INPUT", "Invalid weekday")
		}
		if !slices.Contains(normalized, d) {
			normalized = append(normalized, d)
		}
	}
	slices.Sort(normalized)

	s.EmailAddress = email
	s.TaskNotificationsEnabled = taskNotifications
	s.EmailNotificationOnAssignment = onAssignment
	s.Days = normalized
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// NotifyOnAssignment reports whether an assignment mail should be sent
func (s *EmailNotificationSettings) NotifyOnAssignment() bool {
	return s.EmailNotificationOnAssignment && s.EmailAddress != ""
}

// NotifyTasksOn reports whether task notifications are wanted on the given day
func (s *EmailNotificationSettings) NotifyTasksOn(day time.Weekday) bool {
	if !s.TaskNotificationsEnabled || s.EmailAddress == "" {
		return false
	}
	return len(s.Days) == 0 || slices.Contains(s.Days, day)
}

// SettingsRepository persists notification settings
type SettingsRepository interface {
	// FindByUserID returns shared.ErrNotFound when the user has no settings
	FindByUserID(ctx context.Context, userID string) (*EmailNotificationSettings, error)
	Save(ctx context.Context, settings *EmailNotificationSettings) error
}
