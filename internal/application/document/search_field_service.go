package document

import (
	"context"
	"errors"
	"sort"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// SearchFieldService manages the search fields of document definitions
type SearchFieldService struct {
	definitions  document.DefinitionRepository
	searchFields document.SearchFieldRepository
}

// NewSearchFieldService creates a new SearchFieldService
func NewSearchFieldService(definitions document.DefinitionRepository, searchFields document.SearchFieldRepository) *SearchFieldService {
	return &SearchFieldService{definitions: definitions, searchFields: searchFields}
}

// List returns the fields of a definition in display order
func (s *SearchFieldService) List(ctx context.Context, definitionName string) ([]document.SearchField, error) {
	fields, err := s.searchFields.FindByDefinitionName(ctx, definitionName)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })
	return fields, nil
}

// Create adds a field; keys are unique per definition
func (s *SearchFieldService) Create(ctx context.Context, definitionName string, req SearchFieldRequest) (*document.SearchField, error) {
	if _, err := s.definitions.FindLatest(ctx, definitionName); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, definitionNotFound(definitionName)
		}
		return nil, err
	}
	field, err := document.NewSearchField(definitionName, req.Key, req.Path, req.DataType, req.FieldType, req.MatchType)
	if err != nil {
		return nil, err
	}
	field.Order = req.Order
	if err := s.searchFields.Create(ctx, field); err != nil {
		return nil, err
	}
	return field, nil
}

// Update replaces a field identified by key
func (s *SearchFieldService) Update(ctx context.Context, definitionName, key string, req SearchFieldRequest) (*document.SearchField, error) {
	field, err := s.searchFields.FindByKey(ctx, definitionName, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, searchFieldNotFound(key)
		}
		return nil, err
	}
	field.Key = req.Key
	field.Path = shared.JSONPointer(req.Path)
	field.DataType = req.DataType
	field.FieldType = req.FieldType
	field.MatchType = req.MatchType
	field.Order = req.Order
	if err := field.Validate(); err != nil {
		return nil, err
	}
	if err := s.searchFields.Update(ctx, field); err != nil {
		return nil, err
	}
	return field, nil
}

// Delete removes a field
func (s *SearchFieldService) Delete(ctx context.Context, definitionName, key string) error {
	if err := s.searchFields.Delete(ctx, definitionName, key); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return searchFieldNotFound(key)
		}
		return err
	}
	return nil
}

func searchFieldNotFound(key string) error {
	return shared.NewDomainError("SEARCH_FIELD_NOT_FOUND", "Search field not found: "+key)
}
