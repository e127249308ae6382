package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/audit"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditService records and queries the audit trail
type AuditService struct {
	repo   audit.AuditRecordRepository
	logger *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo audit.AuditRecordRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record stores a record
func (s *AuditService) Record(ctx context.Context, record *audit.AuditRecord) error {
	return s.repo.Save(ctx, record)
}

// GetByID returns a single record
func (s *AuditService) GetByID(ctx context.Context, id uuid.UUID) (*AuditRecordResponse, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToAuditRecordResponse(record)
	return &resp, nil
}

// Search returns a page of records, newest first
func (s *AuditService) Search(ctx context.Context, req SearchAuditRequest) (shared.Paginated[AuditRecordResponse], error) {
	criteria, err := req.ToCriteria()
	if err != nil {
		return shared.Paginated[AuditRecordResponse]{}, err
	}
	return s.search(ctx, criteria)
}

// FindByDocument returns the audit trail of one document
func (s *AuditService) FindByDocument(ctx context.Context, documentID uuid.UUID, eventTypes []string, page, pageSize int) (shared.Paginated[AuditRecordResponse], error) {
	return s.search(ctx, audit.SearchCriteria{
		DocumentID: &documentID,
		EventTypes: eventTypes,
		Filter:     pageFilter(page, pageSize),
	})
}

func (s *AuditService) search(ctx context.Context, criteria audit.SearchCriteria) (shared.Paginated[AuditRecordResponse], error) {
	records, total, err := s.repo.Search(ctx, criteria)
	if err != nil {
		return shared.Paginated[AuditRecordResponse]{}, err
	}
	items := make([]AuditRecordResponse, len(records))
	for i := range records {
		items[i] = ToAuditRecordResponse(&records[i])
	}
	return shared.NewPaginated(items, total, criteria.Filter.Page, criteria.Filter.PageSize), nil
}

// DeleteOlderThan removes records that occurred before cutoff
func (s *AuditService) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Audit retention applied", zap.Time("cutoff", cutoff), zap.Int64("deleted", deleted))
	return deleted, nil
}
