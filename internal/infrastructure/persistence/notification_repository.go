package persistence

import (
	"context"
	"errors"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/notification"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNotificationSettingsRepository implements notification.SettingsRepository using GORM
type GormNotificationSettingsRepository struct {
	db *gorm.DB
}

// NewGormNotificationSettingsRepository creates a new GormNotificationSettingsRepository
func NewGormNotificationSettingsRepository(db *gorm.DB) *GormNotificationSettingsRepository {
	return &GormNotificationSettingsRepository{db: db}
}

// FindByUserID finds the settings of a user
func (r *GormNotificationSettingsRepository) FindByUserID(ctx context.Context, userID string) (*notification.EmailNotificationSettings, error) {
	var model models.EmailNotificationSettingsModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts or replaces the settings of a user
func (r *GormNotificationSettingsRepository) Save(ctx context.Context, settings *notification.EmailNotificationSettings) error {
	return r.db.WithContext(ctx).Save(models.EmailNotificationSettingsModelFromDomain(settings)).Error
}

var _ notification.SettingsRepository = (*GormNotificationSettingsRepository)(nil)
