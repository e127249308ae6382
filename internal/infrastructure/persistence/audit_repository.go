package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/audit"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditRecordRepository implements audit.AuditRecordRepository using GORM
type GormAuditRecordRepository struct {
	db *gorm.DB
}

// NewGormAuditRecordRepository creates a new GormAuditRecordRepository
func NewGormAuditRecordRepository(db *gorm.DB) *GormAuditRecordRepository {
	return &GormAuditRecordRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormAuditRecordRepository) WithTx(tx *gorm.DB) *GormAuditRecordRepository {
	return &GormAuditRecordRepository{db: tx}
}

// Save stores a new audit record
func (r *GormAuditRecordRepository) Save(ctx context.Context, record *audit.AuditRecord) error {
	return r.db.WithContext(ctx).Create(models.AuditRecordModelFromDomain(record)).Error
}

// FindByID finds an audit record by its ID
func (r *GormAuditRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.AuditRecord, error) {
	var model models.AuditRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Search returns a page of audit records, newest first
func (r *GormAuditRecordRepository) Search(ctx context.Context, criteria audit.SearchCriteria) ([]audit.AuditRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditRecordModel{})
	query = r.applyCriteria(query, criteria).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	filter := criteria.Filter
	sortField := ValidateSortField(filter.OrderBy, AuditRecordSortFields, "occurred_on")
	query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var recordModels []models.AuditRecordModel
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}

	records := make([]audit.AuditRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, total, nil
}

// DeleteOlderThan removes records that occurred before cutoff
func (r *GormAuditRecordRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("occurred_on < ?", cutoff).
		Delete(&models.AuditRecordModel{})
	return result.RowsAffected, result.Error
}

func (r *GormAuditRecordRepository) applyCriteria(query *gorm.DB, c audit.SearchCriteria) *gorm.DB {
	if len(c.EventTypes) > 0 {
		query = query.Where("event_type IN ?", c.EventTypes)
	}
	if c.DocumentID != nil {
		query = query.Where("document_id = ?", *c.DocumentID)
	}
	if c.User != "" {
		query = query.Where("actor = ?", c.User)
	}
	if c.Origin != "" {
		query = query.Where("origin = ?", c.Origin)
	}
	if c.From != nil {
		query = query.Where("occurred_on >= ?", *c.From)
	}
	if c.To != nil {
		query = query.Where("occurred_on <= ?", *c.To)
	}
	if c.PropertyPath != "" {
		expr, args := jsonText(r.db, "payload", c.PropertyPath)
		query = query.Where(expr+" = ?", append(args, c.PropertyValue)...)
	}
	return query
}

// Ensure GormAuditRecordRepository implements AuditRecordRepository
var _ audit.AuditRecordRepository = (*GormAuditRecordRepository)(nil)
