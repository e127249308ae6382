package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DocumentService handles the lifecycle of documents
type DocumentService struct {
	definitions  document.DefinitionRepository
	documents    document.DocumentRepository
	searchFields document.SearchFieldRepository
	resources    document.ResourceRepository
	users        contract.UserManagementService
	events       shared.EventPublisher
	logger       *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	definitions document.DefinitionRepository,
	documents document.DocumentRepository,
	searchFields document.SearchFieldRepository,
	resources document.ResourceRepository,
	users contract.UserManagementService,
	events shared.EventPublisher,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		definitions:  definitions,
		documents:    documents,
		searchFields: searchFields,
		resources:    resources,
		users:        users,
		events:       events,
		logger:       logger,
	}
}

// Create validates content against the latest definition version and stores a new document
func (s *DocumentService) Create(ctx context.Context, req CreateDocumentRequest) (_ *DocumentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DocumentService", "Create",
		attribute.String("document.definition", req.DefinitionName))
	defer func() { telemetry.End(span, err) }()

	doc, err := s.create(ctx, req.DefinitionName, req.Content)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// CreateDocument is Create for callers inside the application layer
func (s *DocumentService) CreateDocument(ctx context.Context, definitionName string, content json.RawMessage) (*document.Document, error) {
	return s.create(ctx, definitionName, content)
}

func (s *DocumentService) create(ctx context.Context, definitionName string, content json.RawMessage) (*document.Document, error) {
	def, err := s.definitions.FindLatest(ctx, definitionName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, definitionNotFound(definitionName)
		}
		return nil, err
	}
	if err := def.Validate(content); err != nil {
		return nil, err
	}

	seq, err := s.documents.NextSequence(ctx, def.ID.Name)
	if err != nil {
		return nil, fmt.Errorf("next sequence for %s: %w", def.ID.Name, err)
	}
	doc, err := document.NewDocument(def, content, seq, contract.ActorFrom(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.publish(ctx, doc)
	return doc, nil
}

// Modify replaces the content of a document. VersionBasedOn must match the stored version.
func (s *DocumentService) Modify(ctx context.Context, req ModifyDocumentRequest) (_ *DocumentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DocumentService", "Modify",
		attribute.String("document.id", req.DocumentID.String()))
	defer func() { telemetry.End(span, err) }()

	doc, err := s.ModifyDocument(ctx, req.DocumentID, req.Content, req.VersionBasedOn)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// ModifyDocument is Modify for callers inside the application layer.
// A versionBasedOn of 0 skips the version check.
func (s *DocumentService) ModifyDocument(ctx context.Context, id uuid.UUID, content json.RawMessage, versionBasedOn int) (*document.Document, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	def, err := s.definitions.FindLatest(ctx, doc.DefinitionID.Name)
	if err != nil {
		return nil, err
	}
	if versionBasedOn == 0 {
		versionBasedOn = doc.Version
	}

	expected := doc.Version
	if err := doc.Modify(def, content, versionBasedOn, contract.ActorFrom(ctx)); err != nil {
		return nil, err
	}
	if len(doc.GetDomainEvents()) == 0 {
		return doc, nil
	}
	if err := s.documents.Update(ctx, doc, expected); err != nil {
		return nil, err
	}
	s.publish(ctx, doc)
	return doc, nil
}

// Get returns a document
func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// GetDocument returns the domain document
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	return s.find(ctx, id)
}

// Assign makes an existing user the assignee of a document
func (s *DocumentService) Assign(ctx context.Context, id uuid.UUID, req AssignRequest) (*DocumentResponse, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, req.AssigneeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "Assignee not found: "+req.AssigneeID)
		}
		return nil, err
	}
	if err := doc.Assign(user.ID, user.FullName(), contract.ActorFrom(ctx)); err != nil {
		return nil, err
	}
	return s.save(ctx, doc)
}

// Unassign clears the assignee of a document
func (s *DocumentService) Unassign(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Unassign(contract.ActorFrom(ctx))
	if len(doc.GetDomainEvents()) == 0 {
		resp := ToDocumentResponse(doc)
		return &resp, nil
	}
	return s.save(ctx, doc)
}

// AddResource links an uploaded resource to a document
func (s *DocumentService) AddResource(ctx context.Context, id, resourceID uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.resources.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, resourceNotFound(resourceID)
		}
		return nil, err
	}
	if err := doc.AddResource(res.Resource, contract.ActorFrom(ctx)); err != nil {
		return nil, err
	}
	return s.save(ctx, doc)
}

// RemoveResource unlinks a resource from a document
func (s *DocumentService) RemoveResource(ctx context.Context, id, resourceID uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := doc.RemoveResource(resourceID, contract.ActorFrom(ctx)); err != nil {
		return nil, err
	}
	return s.save(ctx, doc)
}

// Delete removes a document
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return err
	}
	doc.MarkDeleted(contract.ActorFrom(ctx))
	s.publish(ctx, doc)
	return nil
}

// Search runs a basic search
func (s *DocumentService) Search(ctx context.Context, req DocumentSearchRequest) (shared.Paginated[DocumentResponse], error) {
	criteria, err := document.SearchRequest{
		DefinitionName:     req.DefinitionName,
		Sequence:           req.Sequence,
		CreatedBy:          req.CreatedBy,
		AssigneeID:         req.AssigneeID,
		GlobalSearchFilter: req.GlobalSearchFilter,
		OtherFilters:       req.OtherFilters,
		Filter:             req.Filter(),
	}.ToCriteria()
	if err != nil {
		return shared.Paginated[DocumentResponse]{}, err
	}
	return s.search(ctx, criteria)
}

// AdvancedSearch searches documents of one definition through its search fields
func (s *DocumentService) AdvancedSearch(ctx context.Context, definitionName string, req AdvancedSearchRequest) (shared.Paginated[DocumentResponse], error) {
	if _, err := s.definitions.FindLatest(ctx, definitionName); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Paginated[DocumentResponse]{}, definitionNotFound(definitionName)
		}
		return shared.Paginated[DocumentResponse]{}, err
	}
	fields, err := s.searchFields.FindByDefinitionName(ctx, definitionName)
	if err != nil {
		return shared.Paginated[DocumentResponse]{}, err
	}

	var currentUserID string
	if u, ok := contract.CurrentUserFrom(ctx); ok {
		currentUserID = u.ID
	}
	criteria, err := document.AdvancedSearchRequest{
		DefinitionName: definitionName,
		AssigneeFilter: req.AssigneeFilter,
		SearchOperator: req.SearchOperator,
		OtherFilters:   req.OtherFilters,
		Filter:         req.Filter(),
	}.ToCriteria(fields, currentUserID)
	if err != nil {
		return shared.Paginated[DocumentResponse]{}, err
	}
	return s.search(ctx, criteria)
}

func (s *DocumentService) search(ctx context.Context, criteria document.Criteria) (shared.Paginated[DocumentResponse], error) {
	docs, total, err := s.documents.Search(ctx, criteria)
	if err != nil {
		return shared.Paginated[DocumentResponse]{}, err
	}
	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = ToDocumentResponse(&docs[i])
	}
	return shared.NewPaginated(items, total, criteria.Filter.Page, criteria.Filter.PageSize), nil
}

func (s *DocumentService) find(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found: "+id.String())
		}
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) save(ctx context.Context, doc *document.Document) (*DocumentResponse, error) {
	if err := s.documents.Update(ctx, doc, doc.Version); err != nil {
		return nil, err
	}
	s.publish(ctx, doc)
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// publish hands pending events to the bus after the change is stored.
// Handler failures are logged; the change itself already succeeded.
func (s *DocumentService) publish(ctx context.Context, doc *document.Document) {
	events := doc.GetDomainEvents()
	doc.ClearDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish document events",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
	}
}

func resourceNotFound(id uuid.UUID) error {
	return shared.NewDomainError("RESOURCE_NOT_FOUND", "Resource not found: "+id.String())
}
