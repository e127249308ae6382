package document

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// DataType is the type a search field value is compared as
type DataType string

const (
	DataTypeText     DataType = "text"
	DataTypeNumber   DataType = "number"
	DataTypeDate     DataType = "date"
	DataTypeDateTime DataType = "datetime"
	DataTypeBoolean  DataType = "boolean"
)

// IsValid checks if the data type is known
func (t DataType) IsValid() bool {
	switch t {
	case DataTypeText, DataTypeNumber, DataTypeDate, DataTypeDateTime, DataTypeBoolean:
		return true
	}
	return false
}

// FieldType is how a search field is filled in the search form
type FieldType string

const (
	FieldTypeSingle   FieldType = "single"
	FieldTypeRange    FieldType = "range"
	FieldTypeMultiple FieldType = "multiple"
)

// IsValid checks if the field type is known
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeSingle, FieldTypeRange, FieldTypeMultiple:
		return true
	}
	return false
}

// MatchType is how a single text value is compared
type MatchType string

const (
	MatchTypeExact MatchType = "exact"
	MatchTypeLike  MatchType = "like"
)

// SearchField configures a searchable path of a definition's content
type SearchField struct {
	ID                     uuid.UUID `json:"id"`
	DocumentDefinitionName string    `json:"document_definition_name"`
	Key                    string    `json:"key"`
	Path                   string    `json:"path"`
	DataType               DataType  `json:"data_type"`
	FieldType              FieldType `json:"field_type"`
	MatchType              MatchType `json:"match_type"`
	Order                  int       `json:"order"`
}

// NewSearchField validates and creates a search field
func NewSearchField(definitionName, key, path string, dataType DataType, fieldType FieldType, matchType MatchType) (*SearchField, error) {
	sf := &SearchField{
		ID:                     uuid.New(),
		DocumentDefinitionName: definitionName,
		Key:                    strings.TrimSpace(key),
		Path:                   shared.JSONPointer(path),
		DataType:               dataType,
		FieldType:              fieldType,
		MatchType:              matchType,
	}
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	return sf, nil
}

// Validate checks the field configuration
func (f *SearchField) Validate() error {
	if f.DocumentDefinitionName == "" {
		return shared.NewDomainError("INVALID_INPUT", "Search field needs a document definition name")
	}
	if f.Key == "" {
		return shared.NewDomainError("INVALID_INPUT", "Search field key cannot be empty")
	}
	if f.Path == "" {
		return shared.NewDomainError("INVALID_INPUT", "Search field path cannot be empty")
	}
	if !f.DataType.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown data type %q", f.DataType))
	}
	if f.FieldType == "" {
		f.FieldType = FieldTypeSingle
	}
	if !f.FieldType.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown field type %q", f.FieldType))
	}
	if f.MatchType == "" {
		f.MatchType = MatchTypeExact
	}
	if f.MatchType != MatchTypeExact && f.MatchType != MatchTypeLike {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown match type %q", f.MatchType))
	}
	if f.MatchType == MatchTypeLike && f.DataType != DataTypeText {
		return shared.NewDomainError("INVALID_INPUT", "Match type like is only supported for text fields")
	}
	if f.FieldType == FieldTypeRange && (f.DataType == DataTypeText || f.DataType == DataTypeBoolean) {
		return shared.NewDomainError("INVALID_INPUT", "Range fields must be numbers or dates")
	}
	return nil
}

// PredicateKind is the comparison a predicate performs
type PredicateKind string

const (
	PredicateEqual PredicateKind = "equal"
	PredicateLike  PredicateKind = "like"
	PredicateIn    PredicateKind = "in"
	PredicateRange PredicateKind = "range"
)

// Predicate is one condition on a content path
type Predicate struct {
	Path     string
	DataType DataType
	Kind     PredicateKind
	Values   []string
	From     string
	To       string
}

// SearchOperator combines content predicates
type SearchOperator string

const (
	SearchOperatorAnd SearchOperator = "and"
	SearchOperatorOr  SearchOperator = "or"
)

// AssigneeFilter restricts results by assignment
type AssigneeFilter string

const (
	AssigneeFilterAll  AssigneeFilter = "all"
	AssigneeFilterOpen AssigneeFilter = "open"
	AssigneeFilterMine AssigneeFilter = "mine"
)

// Criteria is a compiled document search
type Criteria struct {
	DefinitionName string
	Sequence       *int64
	CreatedBy      string
	AssigneeID     string
	Unassigned     bool
	GlobalSearch   string
	Operator       SearchOperator
	Predicates     []Predicate
	Filter         shared.Filter
}

// PathFilter is a simple equality filter on a content path
type PathFilter struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// SearchRequest is the basic document search
type SearchRequest struct {
	DefinitionName     string
	Sequence           *int64
	CreatedBy          string
	AssigneeID         string
	GlobalSearchFilter string
	OtherFilters       []PathFilter
	Filter             shared.Filter
}

// ToCriteria compiles a basic search; path filters are case-insensitive contains matches
func (r SearchRequest) ToCriteria() (Criteria, error) {
	c := Criteria{
		DefinitionName: r.DefinitionName,
		Sequence:       r.Sequence,
		CreatedBy:      r.CreatedBy,
		AssigneeID:     r.AssigneeID,
		GlobalSearch:   strings.TrimSpace(r.GlobalSearchFilter),
		Operator:       SearchOperatorAnd,
		Filter:         r.Filter,
	}
	for _, f := range r.OtherFilters {
		path := shared.JSONPointer(f.Path)
		if path == "" {
			return Criteria{}, shared.NewDomainError("INVALID_INPUT", "Search filter path cannot be empty")
		}
		c.Predicates = append(c.Predicates, Predicate{
			Path:     path,
			DataType: DataTypeText,
			Kind:     PredicateLike,
			Values:   []string{f.Value},
		})
	}
	return c, nil
}

// FieldFilter filters on a configured search field by key
type FieldFilter struct {
	Key       string   `json:"key"`
	Values    []string `json:"values,omitempty"`
	RangeFrom string   `json:"range_from,omitempty"`
	RangeTo   string   `json:"range_to,omitempty"`
}

// AdvancedSearchRequest searches a single definition through its search fields
type AdvancedSearchRequest struct {
	DefinitionName string
	AssigneeFilter AssigneeFilter
	SearchOperator SearchOperator
	OtherFilters   []FieldFilter
	Filter         shared.Filter
}

// ToCriteria resolves filter keys against the definition's search fields.
// currentUserID is used for the "mine" assignee filter.
func (r AdvancedSearchRequest) ToCriteria(fields []SearchField, currentUserID string) (Criteria, error) {
	c := Criteria{
		DefinitionName: r.DefinitionName,
		Operator:       r.SearchOperator,
		Filter:         r.Filter,
	}
	if c.Operator == "" {
		c.Operator = SearchOperatorAnd
	}
	if c.Operator != SearchOperatorAnd && c.Operator != SearchOperatorOr {
		return Criteria{}, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown search operator %q", r.SearchOperator))
	}

	switch r.AssigneeFilter {
	case "", AssigneeFilterAll:
	case AssigneeFilterOpen:
		c.Unassigned = true
	case AssigneeFilterMine:
		if currentUserID == "" {
			return Criteria{}, shared.NewDomainError("UNAUTHORIZED", "Assignee filter mine requires an authenticated user")
		}
		c.AssigneeID = currentUserID
	default:
		return Criteria{}, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown assignee filter %q", r.AssigneeFilter))
	}

	byKey := make(map[string]SearchField, len(fields))
	for _, f := range fields {
		byKey[f.Key] = f
	}

	for _, filter := range r.OtherFilters {
		field, ok := byKey[filter.Key]
		if !ok {
			return Criteria{}, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown search field %q", filter.Key))
		}
		p, err := predicateFor(field, filter)
		if err != nil {
			return Criteria{}, err
		}
		if p != nil {
			c.Predicates = append(c.Predicates, *p)
		}
	}
	return c, nil
}

func predicateFor(field SearchField, filter FieldFilter) (*Predicate, error) {
	p := &Predicate{Path: field.Path, DataType: field.DataType}

	if filter.RangeFrom != "" || filter.RangeTo != "" {
		if field.FieldType != FieldTypeRange {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Search field %q does not support ranges", field.Key))
		}
		p.Kind = PredicateRange
		p.From = filter.RangeFrom
		p.To = filter.RangeTo
		return p, nil
	}

	values := make([]string, 0, len(filter.Values))
	for _, v := range filter.Values {
		if strings.TrimSpace(v) != "" {
			values = append(values, v)
		}
	}
	switch {
	case len(values) == 0:
		return nil, nil
	case len(values) > 1 && field.FieldType != FieldTypeMultiple:
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Search field %q accepts a single value", field.Key))
	case field.MatchType == MatchTypeLike:
		// one LIKE per value, ORed by the repository
		p.Kind = PredicateLike
	case len(values) > 1:
		p.Kind = PredicateIn
	default:
		p.Kind = PredicateEqual
	}
	p.Values = values
	return p, nil
}
