package notification

import (
	"context"
	"errors"
	"time"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/notification"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// SettingsRequest updates the mail preferences of the current user
type SettingsRequest struct {
	EmailAddress                  string         `json:"email_address" binding:"omitempty,email"`
	TaskNotificationsEnabled      bool           `json:"task_notifications_enabled"`
	EmailNotificationOnAssignment bool           `json:"email_notification_on_assignment"`
	Days                          []time.Weekday `json:"days" binding:"dive,min=0,max=6"`
}

// SettingsResponse is the API view of the mail preferences
type SettingsResponse struct {
	EmailAddress                  string         `json:"email_address"`
	TaskNotificationsEnabled      bool           `json:"task_notifications_enabled"`
	EmailNotificationOnAssignment bool           `json:"email_notification_on_assignment"`
	Days                          []time.Weekday `json:"days"`
}

func toResponse(s *notification.EmailNotificationSettings) SettingsResponse {
	days := s.Days
	if days == nil {
		days = []time.Weekday{}
	}
	return SettingsResponse{
		EmailAddress:                  s.EmailAddress,
		TaskNotificationsEnabled:      s.TaskNotificationsEnabled,
		EmailNotificationOnAssignment: s.EmailNotificationOnAssignment,
		Days:                          days,
	}
}

// SettingsService reads and writes the current user's notification settings
type SettingsService struct {
	repo notification.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo notification.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the settings of the current user, or the defaults when none were saved
func (s *SettingsService) Get(ctx context.Context) (*SettingsResponse, error) {
	settings, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	resp := toResponse(settings)
	return &resp, nil
}

// Update replaces the settings of the current user
func (s *SettingsService) Update(ctx context.Context, req SettingsRequest) (*SettingsResponse, error) {
	settings, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	if err := settings.Update(req.EmailAddress, req.TaskNotificationsEnabled, req.EmailNotificationOnAssignment, req.Days); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, err
	}
	resp := toResponse(settings)
	return &resp, nil
}

func (s *SettingsService) current(ctx context.Context) (*notification.EmailNotificationSettings, error) {
	user, ok := contract.CurrentUserFrom(ctx)
	if !ok {
		return nil, shared.ErrUnauthorized
	}
	settings, err := s.repo.FindByUserID(ctx, user.ID)
	if errors.Is(err, shared.ErrNotFound) {
		return notification.DefaultSettings(user.ID, user.Email), nil
	}
	return settings, err
}
