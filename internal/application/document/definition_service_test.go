package document

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

const personSchema = `{
  "$id": "person.schema",
  "type": "object",
  "properties": {
    "firstName": {"type": "string"},
    "age": {"type": "integer"}
  },
  "required": ["firstName"]
}`

const personSchemaV2 = `{
  "$id": "person.schema",
  "type": "object",
  "properties": {
    "firstName": {"type": "string"},
    "lastName": {"type": "string"},
    "age": {"type": "integer"}
  },
  "required": ["firstName"]
}`

type definitionFixture struct {
	defs      *MockDefinitionRepository
	docs      *MockDocumentRepository
	fields    *MockSearchFieldRepository
	publisher *recordingPublisher
	svc       *DefinitionService
}

func newDefinitionFixture() *definitionFixture {
	f := &definitionFixture{
		defs:      new(MockDefinitionRepository),
		docs:      new(MockDocumentRepository),
		fields:    new(MockSearchFieldRepository),
		publisher: &recordingPublisher{},
	}
	f.svc = NewDefinitionService(f.defs, f.docs, f.fields, f.publisher, zap.NewNop())
	return f
}

func mustDefinition(t *testing.T, schema string, readOnly bool) *document.Definition {
	t.Helper()
	def, err := document.NewDefinition("person", json.RawMessage(schema), readOnly)
	require.NoError(t, err)
	return def
}

func TestDefinitionService_Deploy(t *testing.T) {
	ctx := contract.WithCurrentUser(context.Background(), contract.CurrentUser{ID: "1", Username: "admin"})

	t.Run("first deployment creates version 1", func(t *testing.T) {
		f := newDefinitionFixture()
		f.defs.On("FindLatest", ctx, "person").Return(nil, shared.ErrNotFound)
		f.defs.On("Save", ctx, mock.AnythingOfType("*document.Definition")).Return(nil)

		res, err := f.svc.Deploy(ctx, DeployDefinitionRequest{Schema: json.RawMessage(personSchema)}, false)
		require.NoError(t, err)
		assert.True(t, res.Deployed)
		assert.Equal(t, 1, res.Definition.Version)
		assert.Equal(t, []string{document.EventTypeDefinitionDeployed}, f.publisher.types())
		assert.Equal(t, "admin", f.publisher.events[0].Actor())
	})

	t.Run("identical schema is a no-op", func(t *testing.T) {
		f := newDefinitionFixture()
		f.defs.On("FindLatest", ctx, "person").Return(mustDefinition(t, personSchema, false), nil)

		res, err := f.svc.Deploy(ctx, DeployDefinitionRequest{Schema: json.RawMessage(personSchema)}, false)
		require.NoError(t, err)
		assert.False(t, res.Deployed)
		f.defs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.events)
	})

	t.Run("changed schema creates next version", func(t *testing.T) {
		f := newDefinitionFixture()
		f.defs.On("FindLatest", ctx, "person").Return(mustDefinition(t, personSchema, false), nil)
		f.defs.On("Save", ctx, mock.MatchedBy(func(d *document.Definition) bool { return d.ID.Version == 2 })).Return(nil)

		res, err := f.svc.Deploy(ctx, DeployDefinitionRequest{Schema: json.RawMessage(personSchemaV2)}, false)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Definition.Version)
	})

	t.Run("deployment resources produce a read-only next version", func(t *testing.T) {
		f := newDefinitionFixture()
		f.defs.On("FindLatest", ctx, "person").Return(mustDefinition(t, personSchema, false), nil)
		var saved *document.Definition
		f.defs.On("Save", ctx, mock.AnythingOfType("*document.Definition")).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*document.Definition) }).
			Return(nil)

		res, err := f.svc.Deploy(ctx, DeployDefinitionRequest{Schema: json.RawMessage(personSchemaV2)}, true)
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, 2, saved.ID.Version)
		assert.True(t, saved.ReadOnly)
		assert.True(t, res.Definition.ReadOnly)
	})

	t.Run("identical schema from deployment resources marks current version read-only", func(t *testing.T) {
		f := newDefinitionFixture()
		current := mustDefinition(t, personSchema, false)
		f.defs.On("FindLatest", ctx, "person").Return(current, nil)
		f.defs.On("MarkReadOnly", ctx, current.ID).Return(nil)

		res, err := f.svc.Deploy(ctx, DeployDefinitionRequest{Schema: json.RawMessage(personSchema)}, true)
		require.NoError(t, err)
		assert.False(t, res.Deployed)
		assert.True(t, res.Definition.ReadOnly)
		f.defs.AssertExpectations(t)
		f.defs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("read-only definitions cannot be redeployed", func(t *testing.T) {
		f := newDefinitionFixture()
		f.defs.On("FindLatest", ctx, "person").Return(mustDefinition(t, personSchema, true), nil)

		_, err := f.svc.Deploy(ctx, DeployDefinitionRequest{Schema: json.RawMessage(personSchemaV2)}, false)
		assert.True(t, shared.IsDomainError(err, "READ_ONLY"))
	})
}

func TestDefinitionService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects definitions with documents", func(t *testing.T) {
		f := newDefinitionFixture()
		f.defs.On("FindLatest", ctx, "person").Return(mustDefinition(t, personSchema, false), nil)
		f.docs.On("CountByDefinitionName", ctx, "person").Return(int64(3), nil)

		err := f.svc.Delete(ctx, "person")
		assert.True(t, shared.IsDomainError(err, "DOCUMENT_DEFINITION_IN_USE"))
		f.defs.AssertNotCalled(t, "DeleteByName", mock.Anything, mock.Anything)
	})

	t.Run("removes search fields and all versions", func(t *testing.T) {
		f := newDefinitionFixture()
		f.defs.On("FindLatest", ctx, "person").Return(mustDefinition(t, personSchema, false), nil)
		f.docs.On("CountByDefinitionName", ctx, "person").Return(int64(0), nil)
		f.fields.On("DeleteByDefinitionName", ctx, "person").Return(nil)
		f.defs.On("DeleteByName", ctx, "person").Return(nil)

		require.NoError(t, f.svc.Delete(ctx, "person"))
		assert.Equal(t, []string{document.EventTypeDefinitionDeleted}, f.publisher.types())
	})

	t.Run("missing definition", func(t *testing.T) {
		f := newDefinitionFixture()
		f.defs.On("FindLatest", ctx, "nope").Return(nil, shared.ErrNotFound)

		err := f.svc.Delete(ctx, "nope")
		assert.True(t, shared.IsDomainError(err, "DOCUMENT_DEFINITION_NOT_FOUND"))
	})
}
