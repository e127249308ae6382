package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/processdocument"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProcessDocumentDefinitionRepository implements processdocument.DefinitionRepository using GORM
type GormProcessDocumentDefinitionRepository struct {
	db *gorm.DB
}

// NewGormProcessDocumentDefinitionRepository creates a new GormProcessDocumentDefinitionRepository
func NewGormProcessDocumentDefinitionRepository(db *gorm.DB) *GormProcessDocumentDefinitionRepository {
	return &GormProcessDocumentDefinitionRepository{db: db}
}

// Create stores a link between a process definition and a document definition
func (r *GormProcessDocumentDefinitionRepository) Create(ctx context.Context, def *processdocument.Definition) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.ProcessDocumentDefinitionModelFromDomain(def))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Process %s is already linked to %s",
			def.ID.ProcessDefinitionKey, def.ID.DocumentDefinitionName))
	}
	return nil
}

// Delete removes a link
func (r *GormProcessDocumentDefinitionRepository) Delete(ctx context.Context, id processdocument.DefinitionID) error {
	result := r.db.WithContext(ctx).
		Where("process_definition_key = ? AND document_definition_name = ?", id.ProcessDefinitionKey, id.DocumentDefinitionName).
		Delete(&models.ProcessDocumentDefinitionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a link by its composite id
func (r *GormProcessDocumentDefinitionRepository) FindByID(ctx context.Context, id processdocument.DefinitionID) (*processdocument.Definition, error) {
	var model models.ProcessDocumentDefinitionModel
	err := r.db.WithContext(ctx).
		Where("process_definition_key = ? AND document_definition_name = ?", id.ProcessDefinitionKey, id.DocumentDefinitionName).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDocumentDefinitionName lists the processes linked to a document definition
func (r *GormProcessDocumentDefinitionRepository) FindByDocumentDefinitionName(ctx context.Context, name string) ([]processdocument.Definition, error) {
	return r.findMany(r.db.WithContext(ctx).Where("document_definition_name = ?", name))
}

// FindByProcessDefinitionKey lists the document definitions linked to a process
func (r *GormProcessDocumentDefinitionRepository) FindByProcessDefinitionKey(ctx context.Context, key string) ([]processdocument.Definition, error) {
	return r.findMany(r.db.WithContext(ctx).Where("process_definition_key = ?", key))
}

func (r *GormProcessDocumentDefinitionRepository) findMany(query *gorm.DB) ([]processdocument.Definition, error) {
	var defModels []models.ProcessDocumentDefinitionModel
	if err := query.Order("process_definition_key ASC").Find(&defModels).Error; err != nil {
		return nil, err
	}
	defs := make([]processdocument.Definition, len(defModels))
	for i, model := range defModels {
		defs[i] = *model.ToDomain()
	}
	return defs, nil
}

// GormProcessDocumentInstanceRepository implements processdocument.InstanceRepository using GORM
type GormProcessDocumentInstanceRepository struct {
	db *gorm.DB
}

// NewGormProcessDocumentInstanceRepository creates a new GormProcessDocumentInstanceRepository
func NewGormProcessDocumentInstanceRepository(db *gorm.DB) *GormProcessDocumentInstanceRepository {
	return &GormProcessDocumentInstanceRepository{db: db}
}

// Create stores a process instance started for a document
func (r *GormProcessDocumentInstanceRepository) Create(ctx context.Context, instance *processdocument.Instance) error {
	return r.db.WithContext(ctx).Create(models.ProcessDocumentInstanceModelFromDomain(instance)).Error
}

// FindByDocumentID lists the process instances of a document, oldest first
func (r *GormProcessDocumentInstanceRepository) FindByDocumentID(ctx context.Context, documentID uuid.UUID) ([]processdocument.Instance, error) {
	var instanceModels []models.ProcessDocumentInstanceModel
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_on ASC").
		Find(&instanceModels).Error
	if err != nil {
		return nil, err
	}
	instances := make([]processdocument.Instance, len(instanceModels))
	for i, model := range instanceModels {
		instances[i] = *model.ToDomain()
	}
	return instances, nil
}

// FindByProcessInstanceID finds an instance by the engine's process instance id
func (r *GormProcessDocumentInstanceRepository) FindByProcessInstanceID(ctx context.Context, processInstanceID string) (*processdocument.Instance, error) {
	var model models.ProcessDocumentInstanceModel
	if err := r.db.WithContext(ctx).First(&model, "process_instance_id = ?", processInstanceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// DeleteByDocumentID removes every instance of a document
func (r *GormProcessDocumentInstanceRepository) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentID).
		Delete(&models.ProcessDocumentInstanceModel{}).Error
}

var (
	_ processdocument.DefinitionRepository = (*GormProcessDocumentDefinitionRepository)(nil)
	_ processdocument.InstanceRepository   = (*GormProcessDocumentInstanceRepository)(nil)
)
