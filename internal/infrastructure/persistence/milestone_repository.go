package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/milestone"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMilestoneRepository implements milestone.MilestoneRepository using GORM
type GormMilestoneRepository struct {
	db *gorm.DB
}

// NewGormMilestoneRepository creates a new GormMilestoneRepository
func NewGormMilestoneRepository(db *gorm.DB) *GormMilestoneRepository {
	return &GormMilestoneRepository{db: db}
}

// Save inserts or updates a milestone
func (r *GormMilestoneRepository) Save(ctx context.Context, m *milestone.Milestone) error {
	existing, err := r.FindByProcessAndTask(ctx, m.ProcessDefinitionID, m.TaskDefinitionKey)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if existing != nil && existing.ID != m.ID {
		return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Task %s of %s already has a milestone",
			m.TaskDefinitionKey, m.ProcessDefinitionID))
	}
	return r.db.WithContext(ctx).Save(models.MilestoneModelFromDomain(m)).Error
}

// FindByID finds a milestone by id
func (r *GormMilestoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*milestone.Milestone, error) {
	var model models.MilestoneModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists every milestone ordered by title
func (r *GormMilestoneRepository) FindAll(ctx context.Context) ([]milestone.Milestone, error) {
	var milestoneModels []models.MilestoneModel
	if err := r.db.WithContext(ctx).Order("title ASC").Find(&milestoneModels).Error; err != nil {
		return nil, err
	}
	milestones := make([]milestone.Milestone, len(milestoneModels))
	for i, model := range milestoneModels {
		milestones[i] = *model.ToDomain()
	}
	return milestones, nil
}

// FindByProcessAndTask finds the milestone of a task
func (r *GormMilestoneRepository) FindByProcessAndTask(ctx context.Context, processDefinitionID, taskDefinitionKey string) (*milestone.Milestone, error) {
	var model models.MilestoneModel
	err := r.db.WithContext(ctx).
		Where("process_definition_id = ? AND task_definition_key = ?", processDefinitionID, taskDefinitionKey).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Delete removes a milestone
func (r *GormMilestoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MilestoneModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormMilestoneSetRepository implements milestone.MilestoneSetRepository using GORM
type GormMilestoneSetRepository struct {
	db *gorm.DB
}

// NewGormMilestoneSetRepository creates a new GormMilestoneSetRepository
func NewGormMilestoneSetRepository(db *gorm.DB) *GormMilestoneSetRepository {
	return &GormMilestoneSetRepository{db: db}
}

// Save inserts or updates a milestone set
func (r *GormMilestoneSetRepository) Save(ctx context.Context, set *milestone.MilestoneSet) error {
	return r.db.WithContext(ctx).Save(models.MilestoneSetModelFromDomain(set)).Error
}

// FindByID finds a milestone set by id
func (r *GormMilestoneSetRepository) FindByID(ctx context.Context, id uuid.UUID) (*milestone.MilestoneSet, error) {
	var model models.MilestoneSetModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists every milestone set ordered by title
func (r *GormMilestoneSetRepository) FindAll(ctx context.Context) ([]milestone.MilestoneSet, error) {
	var setModels []models.MilestoneSetModel
	if err := r.db.WithContext(ctx).Order("title ASC").Find(&setModels).Error; err != nil {
		return nil, err
	}
	sets := make([]milestone.MilestoneSet, len(setModels))
	for i, model := range setModels {
		sets[i] = *model.ToDomain()
	}
	return sets, nil
}

// Delete removes a set and its milestones in one transaction
func (r *GormMilestoneSetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("milestone_set_id = ?", id).Delete(&models.MilestoneModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.MilestoneSetModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

var (
	_ milestone.MilestoneRepository    = (*GormMilestoneRepository)(nil)
	_ milestone.MilestoneSetRepository = (*GormMilestoneSetRepository)(nil)
)
