package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/form"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/formlink"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFormDefinitionRepository implements form.FormDefinitionRepository using GORM
type GormFormDefinitionRepository struct {
	db *gorm.DB
}

// NewGormFormDefinitionRepository creates a new GormFormDefinitionRepository
func NewGormFormDefinitionRepository(db *gorm.DB) *GormFormDefinitionRepository {
	return &GormFormDefinitionRepository{db: db}
}

// Create stores a new form definition
func (r *GormFormDefinitionRepository) Create(ctx context.Context, f *form.FormDefinition) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.FormDefinitionModelFromDomain(f))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Form %q already exists", f.Name))
	}
	return nil
}

// Update stores changes of a form definition
func (r *GormFormDefinitionRepository) Update(ctx context.Context, f *form.FormDefinition) error {
	model := models.FormDefinitionModelFromDomain(f)

	var clash int64
	r.db.WithContext(ctx).Model(&models.FormDefinitionModel{}).
		Where("name = ? AND id <> ?", f.Name, f.ID).Count(&clash)
	if clash > 0 {
		return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Form %q already exists", f.Name))
	}

	result := r.db.WithContext(ctx).
		Model(&models.FormDefinitionModel{}).
		Where("id = ?", f.ID).
		Updates(map[string]any{
			"name":       model.Name,
			"definition": model.Definition,
			"read_only":  model.ReadOnly,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a form definition
func (r *GormFormDefinitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FormDefinitionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a form definition by id
func (r *GormFormDefinitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*form.FormDefinition, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByName finds a form definition by its unique name
func (r *GormFormDefinitionRepository) FindByName(ctx context.Context, name string) (*form.FormDefinition, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *GormFormDefinitionRepository) findOne(ctx context.Context, query string, arg any) (*form.FormDefinition, error) {
	var model models.FormDefinitionModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists form definitions, searching by name
func (r *GormFormDefinitionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]form.FormDefinition, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FormDefinitionModel{})
	if filter.Search != "" {
		cond := likeCondition("name", nil, filter.Search)
		query = query.Where(cond.sql, cond.args...)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, FormDefinitionSortFields, "name")
	query = query.Order(sortField + " " + ValidateSortOrder(orDefault(filter.OrderDir, "ASC")))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var formModels []models.FormDefinitionModel
	if err := query.Find(&formModels).Error; err != nil {
		return nil, 0, err
	}
	forms := make([]form.FormDefinition, len(formModels))
	for i, model := range formModels {
		forms[i] = *model.ToDomain()
	}
	return forms, total, nil
}

// ExistsByName reports whether a form with the name exists
func (r *GormFormDefinitionRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FormDefinitionModel{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// GormFormAssociationRepository implements formlink.FormAssociationRepository using GORM
type GormFormAssociationRepository struct {
	db *gorm.DB
}

// NewGormFormAssociationRepository creates a new GormFormAssociationRepository
func NewGormFormAssociationRepository(db *gorm.DB) *GormFormAssociationRepository {
	return &GormFormAssociationRepository{db: db}
}

// Create stores an association
func (r *GormFormAssociationRepository) Create(ctx context.Context, a *formlink.FormAssociation) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.FormAssociationModelFromDomain(a))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("A form is already linked to %s of %s", a.FormLink.ID, a.ProcessDefinitionKey))
	}
	return nil
}

// Update stores changes of an association
func (r *GormFormAssociationRepository) Update(ctx context.Context, a *formlink.FormAssociation) error {
	existing, err := r.FindByFormLinkID(ctx, a.ProcessDefinitionKey, a.FormLink.ID)
	if err == nil && existing.ID != a.ID {
		return shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("A form is already linked to %s of %s", a.FormLink.ID, a.ProcessDefinitionKey))
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	model := models.FormAssociationModelFromDomain(a)
	result := r.db.WithContext(ctx).
		Model(&models.FormAssociationModel{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"type":          model.Type,
			"form_link_id":  model.FormLinkID,
			"link_kind":     model.LinkKind,
			"form_id":       model.FormID,
			"url":           model.URL,
			"angular_state": model.AngularState,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an association
func (r *GormFormAssociationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FormAssociationModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an association by id
func (r *GormFormAssociationRepository) FindByID(ctx context.Context, id uuid.UUID) (*formlink.FormAssociation, error) {
	var model models.FormAssociationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProcessDefinitionKey lists the associations of a process definition
func (r *GormFormAssociationRepository) FindByProcessDefinitionKey(ctx context.Context, processDefinitionKey string) ([]formlink.FormAssociation, error) {
	return r.findMany(ctx, r.db.WithContext(ctx).Where("process_definition_key = ?", processDefinitionKey))
}

// FindByFormLinkID finds the association of a flow element
func (r *GormFormAssociationRepository) FindByFormLinkID(ctx context.Context, processDefinitionKey, formLinkID string) (*formlink.FormAssociation, error) {
	var model models.FormAssociationModel
	err := r.db.WithContext(ctx).
		Where("process_definition_key = ? AND form_link_id = ?", processDefinitionKey, formLinkID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByType lists the associations of a process definition with the given type
func (r *GormFormAssociationRepository) FindByType(ctx context.Context, processDefinitionKey string, associationType formlink.AssociationType) ([]formlink.FormAssociation, error) {
	return r.findMany(ctx, r.db.WithContext(ctx).
		Where("process_definition_key = ? AND type = ?", processDefinitionKey, string(associationType)))
}

// CountByFormID counts associations linking to a form
func (r *GormFormAssociationRepository) CountByFormID(ctx context.Context, formID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FormAssociationModel{}).Where("form_id = ?", formID).Count(&count).Error
	return count, err
}

func (r *GormFormAssociationRepository) findMany(_ context.Context, query *gorm.DB) ([]formlink.FormAssociation, error) {
	var assocModels []models.FormAssociationModel
	if err := query.Order("form_link_id ASC").Find(&assocModels).Error; err != nil {
		return nil, err
	}
	associations := make([]formlink.FormAssociation, len(assocModels))
	for i, model := range assocModels {
		associations[i] = *model.ToDomain()
	}
	return associations, nil
}

var (
	_ form.FormDefinitionRepository      = (*GormFormDefinitionRepository)(nil)
	_ formlink.FormAssociationRepository = (*GormFormAssociationRepository)(nil)
)
