package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDocumentDefinitionRepository implements document.DefinitionRepository using GORM
type GormDocumentDefinitionRepository struct {
	db *gorm.DB
}

// NewGormDocumentDefinitionRepository creates a new GormDocumentDefinitionRepository
func NewGormDocumentDefinitionRepository(db *gorm.DB) *GormDocumentDefinitionRepository {
	return &GormDocumentDefinitionRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormDocumentDefinitionRepository) WithTx(tx *gorm.DB) *GormDocumentDefinitionRepository {
	return &GormDocumentDefinitionRepository{db: tx}
}

// Save stores a definition version
func (r *GormDocumentDefinitionRepository) Save(ctx context.Context, def *document.Definition) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.DocumentDefinitionModelFromDomain(def))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Document definition %s already exists", def.ID))
	}
	return nil
}

// FindLatest returns the highest version of a definition
func (r *GormDocumentDefinitionRepository) FindLatest(ctx context.Context, name string) (*document.Definition, error) {
	var model models.DocumentDefinitionModel
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("version DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID returns a specific definition version
func (r *GormDocumentDefinitionRepository) FindByID(ctx context.Context, id document.DefinitionID) (*document.Definition, error) {
	var model models.DocumentDefinitionModel
	err := r.db.WithContext(ctx).
		Where("name = ? AND version = ?", id.Name, id.Version).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllLatest returns the latest version of every definition ordered by name
func (r *GormDocumentDefinitionRepository) FindAllLatest(ctx context.Context, filter shared.Filter) ([]document.Definition, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.DocumentDefinitionModel{}).
		Joins("JOIN (SELECT name AS latest_name, MAX(version) AS latest_version FROM document_definitions GROUP BY name) latest " +
			"ON latest.latest_name = document_definitions.name AND latest.latest_version = document_definitions.version")
	if filter.Search != "" {
		query = query.Where("LOWER(document_definitions.name) LIKE ?", likePattern(filter.Search))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "document_definitions.name " + ValidateSortOrder(orDefault(filter.OrderDir, "ASC"))
	if filter.OrderBy == "created_on" {
		order = "document_definitions.created_on " + ValidateSortOrder(filter.OrderDir)
	}
	query = query.Order(order)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var defModels []models.DocumentDefinitionModel
	if err := query.Find(&defModels).Error; err != nil {
		return nil, 0, err
	}
	defs := make([]document.Definition, len(defModels))
	for i, model := range defModels {
		defs[i] = *model.ToDomain()
	}
	return defs, total, nil
}

// MarkReadOnly flags a stored definition version as read-only
func (r *GormDocumentDefinitionRepository) MarkReadOnly(ctx context.Context, id document.DefinitionID) error {
	result := r.db.WithContext(ctx).
		Model(&models.DocumentDefinitionModel{}).
		Where("name = ? AND version = ?", id.Name, id.Version).
		Update("read_only", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByName removes all versions of a definition
func (r *GormDocumentDefinitionRepository) DeleteByName(ctx context.Context, name string) error {
	result := r.db.WithContext(ctx).Where("name = ?", name).Delete(&models.DocumentDefinitionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormDocumentRepository implements document.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormDocumentRepository) WithTx(tx *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: tx}
}

// Create stores a new document with its resources
func (r *GormDocumentRepository) Create(ctx context.Context, doc *document.Document) error {
	return r.db.WithContext(ctx).Create(models.DocumentModelFromDomain(doc)).Error
}

// Update stores changes when the stored version equals expectedVersion
func (r *GormDocumentRepository) Update(ctx context.Context, doc *document.Document, expectedVersion int) error {
	model := models.DocumentModelFromDomain(doc)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DocumentModel{}).
			Where("id = ? AND version = ?", doc.ID, expectedVersion).
			Updates(map[string]any{
				"definition_version": model.DefinitionVersion,
				"content":            model.Content,
				"assignee_id":        model.AssigneeID,
				"assignee_full_name": model.AssigneeFullName,
				"version":            model.Version,
				"updated_at":         model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.DocumentModel{}).Where("id = ?", doc.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.NewDomainError("CONCURRENCY_CONFLICT", "Document was modified by another transaction")
		}

		if err := tx.Where("document_id = ?", doc.ID).Delete(&models.DocumentResourceModel{}).Error; err != nil {
			return err
		}
		if len(model.Resources) > 0 {
			return tx.Create(&model.Resources).Error
		}
		return nil
	})
}

// FindByID finds a document by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	var model models.DocumentModel
	err := r.db.WithContext(ctx).
		Preload("Resources", func(db *gorm.DB) *gorm.DB { return db.Order("created_on ASC") }).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Delete removes a document and its resource links
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentResourceModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.DocumentModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Search returns a page of documents matching the criteria
func (r *GormDocumentRepository) Search(ctx context.Context, criteria document.Criteria) ([]document.Document, int64, error) {
	query, err := r.applyCriteria(r.db.WithContext(ctx).Model(&models.DocumentModel{}), criteria)
	if err != nil {
		return nil, 0, err
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	filter := criteria.Filter
	sortField := ValidateSortField(filter.OrderBy, DocumentSortFields, "created_at")
	query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var docModels []models.DocumentModel
	if err := query.Preload("Resources").Find(&docModels).Error; err != nil {
		return nil, 0, err
	}
	docs := make([]document.Document, len(docModels))
	for i, model := range docModels {
		docs[i] = *model.ToDomain()
	}
	return docs, total, nil
}

// CountByDefinitionName counts documents of all versions of a definition
func (r *GormDocumentRepository) CountByDefinitionName(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DocumentModel{}).Where("definition_name = ?", name).Count(&count).Error
	return count, err
}

// NextSequence increments and returns the sequence counter of a definition name
func (r *GormDocumentRepository) NextSequence(ctx context.Context, definitionName string) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DocumentSequenceModel{}).
			Where("definition_name = ?", definitionName).
			Update("value", gorm.Expr("value + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			created := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.DocumentSequenceModel{DefinitionName: definitionName, Value: 1})
			if created.Error != nil {
				return created.Error
			}
			if created.RowsAffected == 0 {
				// another transaction created the counter first
				if err := tx.Model(&models.DocumentSequenceModel{}).
					Where("definition_name = ?", definitionName).
					Update("value", gorm.Expr("value + 1")).Error; err != nil {
					return err
				}
			}
		}
		var seq models.DocumentSequenceModel
		if err := tx.Where("definition_name = ?", definitionName).First(&seq).Error; err != nil {
			return err
		}
		next = seq.Value
		return nil
	})
	return next, err
}

func (r *GormDocumentRepository) applyCriteria(query *gorm.DB, c document.Criteria) (*gorm.DB, error) {
	if c.DefinitionName != "" {
		query = query.Where("definition_name = ?", c.DefinitionName)
	}
	if c.Sequence != nil {
		query = query.Where("sequence = ?", *c.Sequence)
	}
	if c.CreatedBy != "" {
		query = query.Where("created_by = ?", c.CreatedBy)
	}
	if c.AssigneeID != "" {
		query = query.Where("assignee_id = ?", c.AssigneeID)
	}
	if c.Unassigned {
		query = query.Where("(assignee_id IS NULL OR assignee_id = '')")
	}
	if c.GlobalSearch != "" {
		global := likeCondition("CAST(content AS TEXT)", nil, c.GlobalSearch)
		query = query.Where(global.sql, global.args...)
	}

	if len(c.Predicates) == 0 {
		return query, nil
	}
	conds := make([]condition, 0, len(c.Predicates))
	for _, p := range c.Predicates {
		cond, err := r.predicateCondition(p)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	op := "AND"
	if c.Operator == document.SearchOperatorOr {
		op = "OR"
	}
	combined := joinConditions(conds, op)
	return query.Where("("+combined.sql+")", combined.args...), nil
}

func (r *GormDocumentRepository) predicateCondition(p document.Predicate) (condition, error) {
	expr, args := jsonText(r.db, "content", p.Path)
	withArgs := func(extra ...any) []any {
		return append(append([]any{}, args...), extra...)
	}

	switch p.Kind {
	case document.PredicateLike:
		conds := make([]condition, len(p.Values))
		for i, v := range p.Values {
			conds[i] = likeCondition(expr, args, v)
		}
		return joinConditions(conds, "OR"), nil

	case document.PredicateIn:
		values, err := r.typedValues(p.DataType, p.Values)
		if err != nil {
			return condition{}, err
		}
		return condition{sql: r.typedExpr(expr, p.DataType) + " IN ?", args: withArgs(values)}, nil

	case document.PredicateRange:
		target := r.typedExpr(expr, p.DataType)
		var conds []condition
		if p.From != "" {
			from, err := r.typedValue(p.DataType, p.From)
			if err != nil {
				return condition{}, err
			}
			conds = append(conds, condition{sql: target + " >= ?", args: withArgs(from)})
		}
		if p.To != "" {
			to, err := r.typedValue(p.DataType, p.To)
			if err != nil {
				return condition{}, err
			}
			conds = append(conds, condition{sql: target + " <= ?", args: withArgs(to)})
		}
		if len(conds) == 0 {
			return condition{sql: "1 = 1"}, nil
		}
		return joinConditions(conds, "AND"), nil

	default:
		if len(p.Values) == 0 {
			return condition{sql: "1 = 1"}, nil
		}
		value, err := r.typedValue(p.DataType, p.Values[0])
		if err != nil {
			return condition{}, err
		}
		return condition{sql: r.typedExpr(expr, p.DataType) + " = ?", args: withArgs(value)}, nil
	}
}

func (r *GormDocumentRepository) typedExpr(expr string, dataType document.DataType) string {
	if dataType == document.DataTypeNumber {
		return jsonNumber(r.db, expr)
	}
	return expr
}

// typedValue converts a filter value to the bind type of its data type.
// Dates compare as ISO-8601 text. Booleans extracted by sqlite read as 1 and 0.
func (r *GormDocumentRepository) typedValue(dataType document.DataType, value string) (any, error) {
	switch dataType {
	case document.DataTypeNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("%q is not a number", value))
		}
		return n, nil
	case document.DataTypeBoolean:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("%q is not a boolean", value))
		}
		if r.db.Dialector.Name() == dialectSQLite {
			if b {
				return "1", nil
			}
			return "0", nil
		}
		return strconv.FormatBool(b), nil
	}
	return value, nil
}

func (r *GormDocumentRepository) typedValues(dataType document.DataType, values []string) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		tv, err := r.typedValue(dataType, v)
		if err != nil {
			return nil, err
		}
		out[i] = tv
	}
	return out, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Ensure the GORM repositories implement the document repositories
var (
	_ document.DefinitionRepository = (*GormDocumentDefinitionRepository)(nil)
	_ document.DocumentRepository   = (*GormDocumentRepository)(nil)
)
