package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/viewconfig"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormViewConfigRepository implements viewconfig.ViewConfigRepository using GORM
type GormViewConfigRepository struct {
	db *gorm.DB
}

// NewGormViewConfigRepository creates a new GormViewConfigRepository
func NewGormViewConfigRepository(db *gorm.DB) *GormViewConfigRepository {
	return &GormViewConfigRepository{db: db}
}

func duplicateViewConfig(vc *viewconfig.ViewConfig) error {
	return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("A view is already configured for %s/%s",
		vc.ProcessDefinitionKey, vc.TaskDefinitionKey))
}

// Create stores a view configuration
func (r *GormViewConfigRepository) Create(ctx context.Context, vc *viewconfig.ViewConfig) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.ViewConfigModelFromDomain(vc))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return duplicateViewConfig(vc)
	}
	return nil
}

// Update stores the view and roles of a configuration
func (r *GormViewConfigRepository) Update(ctx context.Context, vc *viewconfig.ViewConfig) error {
	model := models.ViewConfigModelFromDomain(vc)
	result := r.db.WithContext(ctx).
		Model(&models.ViewConfigModel{}).
		Where("id = ?", vc.ID).
		Updates(map[string]any{
			"view_id": model.ViewID,
			"roles":   model.RolesJSON,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a view configuration
func (r *GormViewConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ViewConfigModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a view configuration by id
func (r *GormViewConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*viewconfig.ViewConfig, error) {
	var model models.ViewConfigModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProcessDefinitionKey lists the configurations of a process definition
func (r *GormViewConfigRepository) FindByProcessDefinitionKey(ctx context.Context, processDefinitionKey string) ([]viewconfig.ViewConfig, error) {
	return r.findMany(r.db.WithContext(ctx).Where("process_definition_key = ?", processDefinitionKey))
}

// FindAll lists every view configuration
func (r *GormViewConfigRepository) FindAll(ctx context.Context) ([]viewconfig.ViewConfig, error) {
	return r.findMany(r.db.WithContext(ctx))
}

func (r *GormViewConfigRepository) findMany(query *gorm.DB) ([]viewconfig.ViewConfig, error) {
	var configModels []models.ViewConfigModel
	err := query.Order("process_definition_key ASC").Order("task_definition_key ASC").Find(&configModels).Error
	if err != nil {
		return nil, err
	}
	configs := make([]viewconfig.ViewConfig, len(configModels))
	for i, model := range configModels {
		configs[i] = *model.ToDomain()
	}
	return configs, nil
}

var _ viewconfig.ViewConfigRepository = (*GormViewConfigRepository)(nil)
