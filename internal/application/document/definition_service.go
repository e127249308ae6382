package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// DefinitionService deploys and manages document definitions
type DefinitionService struct {
	definitions  document.DefinitionRepository
	documents    document.DocumentRepository
	searchFields document.SearchFieldRepository
	events       shared.EventPublisher
	logger       *zap.Logger
}

// NewDefinitionService creates a new DefinitionService
func NewDefinitionService(
	definitions document.DefinitionRepository,
	documents document.DocumentRepository,
	searchFields document.SearchFieldRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *DefinitionService {
	return &DefinitionService{
		definitions:  definitions,
		documents:    documents,
		searchFields: searchFields,
		events:       events,
		logger:       logger,
	}
}

// Deploy stores a schema as a new definition or a new version of an existing one.
// Redeploying an identical schema is a no-op.
func (s *DefinitionService) Deploy(ctx context.Context, req DeployDefinitionRequest, readOnly bool) (*DeployResult, error) {
	name, err := document.NameFromSchema(req.Schema)
	if err != nil {
		return nil, err
	}

	current, err := s.definitions.FindLatest(ctx, name)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	var def *document.Definition
	switch {
	case current == nil:
		def, err = document.NewDefinition(name, req.Schema, readOnly)
	case current.SameSchema(req.Schema):
		if readOnly && !current.ReadOnly {
			if err := s.definitions.MarkReadOnly(ctx, current.ID); err != nil {
				return nil, err
			}
			current.ReadOnly = true
		}
		return &DeployResult{Definition: ToDefinitionResponse(current)}, nil
	default:
		def, err = current.NextVersion(req.Schema, readOnly)
	}
	if err != nil {
		return nil, err
	}

	if err := s.definitions.Save(ctx, def); err != nil {
		return nil, err
	}
	s.logger.Info("Document definition deployed",
		zap.String("name", def.ID.Name),
		zap.Int("version", def.ID.Version),
		zap.Bool("read_only", def.ReadOnly),
	)

	if err := s.events.Publish(ctx, document.NewDefinitionDeployedEvent(def, contract.ActorFrom(ctx))); err != nil {
		s.logger.Warn("Failed to publish definition deployed event", zap.Error(err))
	}
	return &DeployResult{Definition: ToDefinitionResponse(def), Deployed: true}, nil
}

// FindLatest returns the newest version of a definition
func (s *DefinitionService) FindLatest(ctx context.Context, name string) (*DefinitionResponse, error) {
	def, err := s.latest(ctx, name)
	if err != nil {
		return nil, err
	}
	resp := ToDefinitionResponse(def)
	return &resp, nil
}

// FindVersion returns one version of a definition
func (s *DefinitionService) FindVersion(ctx context.Context, name string, version int) (*DefinitionResponse, error) {
	def, err := s.definitions.FindByID(ctx, document.DefinitionID{Name: name, Version: version})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, definitionNotFound(fmt.Sprintf("%s version %d", name, version))
		}
		return nil, err
	}
	resp := ToDefinitionResponse(def)
	return &resp, nil
}

// List returns the latest version of every definition
func (s *DefinitionService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[DefinitionResponse], error) {
	defs, total, err := s.definitions.FindAllLatest(ctx, filter)
	if err != nil {
		return shared.Paginated[DefinitionResponse]{}, err
	}
	items := make([]DefinitionResponse, len(defs))
	for i := range defs {
		items[i] = ToDefinitionResponse(&defs[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Delete removes all versions of a definition and its search fields.
// Definitions that still have documents cannot be deleted.
func (s *DefinitionService) Delete(ctx context.Context, name string) error {
	def, err := s.latest(ctx, name)
	if err != nil {
		return err
	}
	if def.ReadOnly {
		return shared.NewDomainError("READ_ONLY", fmt.Sprintf("Document definition %s is read-only", name))
	}

	count, err := s.documents.CountByDefinitionName(ctx, name)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("DOCUMENT_DEFINITION_IN_USE",
			fmt.Sprintf("Document definition %s still has %d documents", name, count))
	}

	if err := s.searchFields.DeleteByDefinitionName(ctx, name); err != nil {
		return err
	}
	if err := s.definitions.DeleteByName(ctx, name); err != nil {
		return err
	}

	if err := s.events.Publish(ctx, document.NewDefinitionDeletedEvent(name, contract.ActorFrom(ctx))); err != nil {
		s.logger.Warn("Failed to publish definition deleted event", zap.Error(err))
	}
	return nil
}

func (s *DefinitionService) latest(ctx context.Context, name string) (*document.Definition, error) {
	def, err := s.definitions.FindLatest(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, definitionNotFound(name)
		}
		return nil, err
	}
	return def, nil
}

func definitionNotFound(what string) error {
	return shared.NewDomainError("DOCUMENT_DEFINITION_NOT_FOUND", "Document definition not found: "+what)
}
