package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

func TestNewSearchField(t *testing.T) {
	t.Run("normalizes path and applies defaults", func(t *testing.T) {
		sf, err := NewSearchField("person", "city", "address.city", DataTypeText, "", "")
		require.NoError(t, err)
		assert.Equal(t, "/address/city", sf.Path)
		assert.Equal(t, FieldTypeSingle, sf.FieldType)
		assert.Equal(t, MatchTypeExact, sf.MatchType)
	})

	t.Run("rejects like on numbers", func(t *testing.T) {
		_, err := NewSearchField("person", "age", "/age", DataTypeNumber, FieldTypeSingle, MatchTypeLike)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects text ranges", func(t *testing.T) {
		_, err := NewSearchField("person", "name", "/name", DataTypeText, FieldTypeRange, MatchTypeExact)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects unknown data type", func(t *testing.T) {
		_, err := NewSearchField("person", "name", "/name", "money", FieldTypeSingle, MatchTypeExact)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestSearchRequest_ToCriteria(t *testing.T) {
	c, err := SearchRequest{
		DefinitionName:     "person",
		GlobalSearchFilter: "  jane ",
		OtherFilters:       []PathFilter{{Path: "address.city", Value: "Utrecht"}},
	}.ToCriteria()
	require.NoError(t, err)
	assert.Equal(t, "jane", c.GlobalSearch)
	require.Len(t, c.Predicates, 1)
	assert.Equal(t, Predicate{Path: "/address/city", DataType: DataTypeText, Kind: PredicateLike, Values: []string{"Utrecht"}}, c.Predicates[0])

	_, err = SearchRequest{OtherFilters: []PathFilter{{Path: "", Value: "x"}}}.ToCriteria()
	assert.Error(t, err)
}

func TestAdvancedSearchRequest_ToCriteria(t *testing.T) {
	fields := []SearchField{
		{Key: "name", Path: "/firstName", DataType: DataTypeText, FieldType: FieldTypeSingle, MatchType: MatchTypeLike},
		{Key: "city", Path: "/address/city", DataType: DataTypeText, FieldType: FieldTypeMultiple, MatchType: MatchTypeExact},
		{Key: "age", Path: "/age", DataType: DataTypeNumber, FieldType: FieldTypeRange, MatchType: MatchTypeExact},
		{Key: "single", Path: "/single", DataType: DataTypeText, FieldType: FieldTypeSingle, MatchType: MatchTypeExact},
		{Key: "street", Path: "/address/street", DataType: DataTypeText, FieldType: FieldTypeMultiple, MatchType: MatchTypeLike},
	}

	t.Run("builds predicates per field type", func(t *testing.T) {
		c, err := AdvancedSearchRequest{
			DefinitionName: "person",
			AssigneeFilter: AssigneeFilterMine,
			SearchOperator: SearchOperatorOr,
			OtherFilters: []FieldFilter{
				{Key: "name", Values: []string{"jan"}},
				{Key: "city", Values: []string{"Utrecht", "Amsterdam"}},
				{Key: "age", RangeFrom: "18", RangeTo: "65"},
				{Key: "single", Values: []string{" "}},
			},
		}.ToCriteria(fields, "user-1")
		require.NoError(t, err)

		assert.Equal(t, "user-1", c.AssigneeID)
		assert.Equal(t, SearchOperatorOr, c.Operator)
		require.Len(t, c.Predicates, 3)
		assert.Equal(t, PredicateLike, c.Predicates[0].Kind)
		assert.Equal(t, PredicateIn, c.Predicates[1].Kind)
		assert.Equal(t, PredicateRange, c.Predicates[2].Kind)
		assert.Equal(t, "18", c.Predicates[2].From)
	})

	t.Run("like field with several values keeps the wildcard match", func(t *testing.T) {
		c, err := AdvancedSearchRequest{OtherFilters: []FieldFilter{{Key: "street", Values: []string{"dam", "gracht"}}}}.ToCriteria(fields, "")
		require.NoError(t, err)
		require.Len(t, c.Predicates, 1)
		assert.Equal(t, Predicate{Path: "/address/street", DataType: DataTypeText, Kind: PredicateLike, Values: []string{"dam", "gracht"}}, c.Predicates[0])
	})

	t.Run("open filter selects unassigned documents", func(t *testing.T) {
		c, err := AdvancedSearchRequest{AssigneeFilter: AssigneeFilterOpen}.ToCriteria(fields, "")
		require.NoError(t, err)
		assert.True(t, c.Unassigned)
		assert.Equal(t, SearchOperatorAnd, c.Operator)
	})

	t.Run("mine requires a user", func(t *testing.T) {
		_, err := AdvancedSearchRequest{AssigneeFilter: AssigneeFilterMine}.ToCriteria(fields, "")
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := AdvancedSearchRequest{OtherFilters: []FieldFilter{{Key: "nope", Values: []string{"x"}}}}.ToCriteria(fields, "")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("multiple values on single field", func(t *testing.T) {
		_, err := AdvancedSearchRequest{OtherFilters: []FieldFilter{{Key: "single", Values: []string{"a", "b"}}}}.ToCriteria(fields, "")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("range on non-range field", func(t *testing.T) {
		_, err := AdvancedSearchRequest{OtherFilters: []FieldFilter{{Key: "name", RangeFrom: "a"}}}.ToCriteria(fields, "")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown operator", func(t *testing.T) {
		_, err := AdvancedSearchRequest{SearchOperator: "xor"}.ToCriteria(fields, "")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
