package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSearchFieldRepository implements document.SearchFieldRepository using GORM
type GormSearchFieldRepository struct {
	db *gorm.DB
}

// NewGormSearchFieldRepository creates a new GormSearchFieldRepository
func NewGormSearchFieldRepository(db *gorm.DB) *GormSearchFieldRepository {
	return &GormSearchFieldRepository{db: db}
}

// Create stores a search field
func (r *GormSearchFieldRepository) Create(ctx context.Context, field *document.SearchField) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.SearchFieldModelFromDomain(field))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Search field %q already exists for %s", field.Key, field.DocumentDefinitionName))
	}
	return nil
}

// Update changes an existing search field, identified by definition name and key
func (r *GormSearchFieldRepository) Update(ctx context.Context, field *document.SearchField) error {
	model := models.SearchFieldModelFromDomain(field)
	result := r.db.WithContext(ctx).
		Model(&models.SearchFieldModel{}).
		Where("document_definition_name = ? AND field_key = ?", field.DocumentDefinitionName, field.Key).
		Updates(map[string]any{
			"path":       model.Path,
			"data_type":  model.DataType,
			"field_type": model.FieldType,
			"match_type": model.MatchType,
			"sort_order": model.SortOrder,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a search field
func (r *GormSearchFieldRepository) Delete(ctx context.Context, definitionName, key string) error {
	result := r.db.WithContext(ctx).
		Where("document_definition_name = ? AND field_key = ?", definitionName, key).
		Delete(&models.SearchFieldModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByDefinitionName lists the fields of a definition in display order
func (r *GormSearchFieldRepository) FindByDefinitionName(ctx context.Context, definitionName string) ([]document.SearchField, error) {
	var fieldModels []models.SearchFieldModel
	err := r.db.WithContext(ctx).
		Where("document_definition_name = ?", definitionName).
		Order("sort_order ASC").Order("field_key ASC").
		Find(&fieldModels).Error
	if err != nil {
		return nil, err
	}
	fields := make([]document.SearchField, len(fieldModels))
	for i, model := range fieldModels {
		fields[i] = *model.ToDomain()
	}
	return fields, nil
}

// FindByKey finds one field of a definition
func (r *GormSearchFieldRepository) FindByKey(ctx context.Context, definitionName, key string) (*document.SearchField, error) {
	var model models.SearchFieldModel
	err := r.db.WithContext(ctx).
		Where("document_definition_name = ? AND field_key = ?", definitionName, key).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// DeleteByDefinitionName removes every field of a definition
func (r *GormSearchFieldRepository) DeleteByDefinitionName(ctx context.Context, definitionName string) error {
	return r.db.WithContext(ctx).
		Where("document_definition_name = ?", definitionName).
		Delete(&models.SearchFieldModel{}).Error
}

// GormResourceRepository implements document.ResourceRepository using GORM
type GormResourceRepository struct {
	db *gorm.DB
}

// NewGormResourceRepository creates a new GormResourceRepository
func NewGormResourceRepository(db *gorm.DB) *GormResourceRepository {
	return &GormResourceRepository{db: db}
}

// Save stores resource metadata
func (r *GormResourceRepository) Save(ctx context.Context, res *document.StoredResource) error {
	return r.db.WithContext(ctx).Create(models.ResourceModelFromDomain(res)).Error
}

// FindByID finds resource metadata by id
func (r *GormResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.StoredResource, error) {
	var model models.ResourceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Delete removes resource metadata
func (r *GormResourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ResourceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var (
	_ document.SearchFieldRepository = (*GormSearchFieldRepository)(nil)
	_ document.ResourceRepository    = (*GormResourceRepository)(nil)
)
