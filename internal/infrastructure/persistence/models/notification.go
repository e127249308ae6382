package models

import (
	"encoding/json"
	"time"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/notification"
	"go.uber.org/zap"
)

// EmailNotificationSettingsModel is the persistence model for a user's mail preferences
type EmailNotificationSettingsModel struct {
	UserID                        string    `gorm:"type:varchar(255);primaryKey"`
	EmailAddress                  string    `gorm:"type:varchar(255)"`
	TaskNotificationsEnabled      bool      `gorm:"not null;default:false"`
	EmailNotificationOnAssignment bool      `gorm:"not null;default:true"`
	DaysJSON                      string    `gorm:"column:days;type:jsonb;not null;default:'[]'"`
	UpdatedAt                     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EmailNotificationSettingsModel) TableName() string {
	return "email_notification_settings"
}

// ToDomain converts the model to notification settings
func (m *EmailNotificationSettingsModel) ToDomain() *notification.EmailNotificationSettings {
	s := &notification.EmailNotificationSettings{
		UserID:                        m.UserID,
		EmailAddress:                  m.EmailAddress,
		TaskNotificationsEnabled:      m.TaskNotificationsEnabled,
		EmailNotificationOnAssignment: m.EmailNotificationOnAssignment,
		Days:                          []time.Weekday{},
		UpdatedAt:                     m.UpdatedAt,
	}
	if m.DaysJSON != "" && m.DaysJSON != "[]" {
		if err := json.Unmarshal([]byte(m.DaysJSON), &s.Days); err != nil {
			modelLogger.Warn("failed to parse days JSON",
				zap.String("user_id", m.UserID),
				zap.String("raw_json", m.DaysJSON),
				zap.Error(err))
		}
	}
	return s
}

// EmailNotificationSettingsModelFromDomain converts notification settings to their model
func EmailNotificationSettingsModelFromDomain(s *notification.EmailNotificationSettings) *EmailNotificationSettingsModel {
	days := s.Days
	if days == nil {
		days = []time.Weekday{}
	}
	daysJSON, _ := json.Marshal(days)
	return &EmailNotificationSettingsModel{
		UserID:                        s.UserID,
		EmailAddress:                  s.EmailAddress,
		TaskNotificationsEnabled:      s.TaskNotificationsEnabled,
		EmailNotificationOnAssignment: s.EmailNotificationOnAssignment,
		DaysJSON:                      string(daysJSON),
		UpdatedAt:                     s.UpdatedAt,
	}
}
