package document

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

type documentFixture struct {
	defs      *MockDefinitionRepository
	docs      *MockDocumentRepository
	fields    *MockSearchFieldRepository
	resources *MockResourceRepository
	users     *MockUserService
	publisher *recordingPublisher
	svc       *DocumentService
}

func newDocumentFixture() *documentFixture {
	f := &documentFixture{
		defs:      new(MockDefinitionRepository),
		docs:      new(MockDocumentRepository),
		fields:    new(MockSearchFieldRepository),
		resources: new(MockResourceRepository),
		users:     new(MockUserService),
		publisher: &recordingPublisher{},
	}
	f.svc = NewDocumentService(f.defs, f.docs, f.fields, f.resources, f.users, f.publisher, zap.NewNop())
	return f
}

func userCtx() context.Context {
	return contract.WithCurrentUser(context.Background(), contract.CurrentUser{ID: "u-1", Username: "jdoe", Roles: []string{"ROLE_USER"}})
}

func mustDocument(t *testing.T, def *document.Definition, content string) *document.Document {
	t.Helper()
	doc, err := document.NewDocument(def, json.RawMessage(content), 1, "jdoe")
	require.NoError(t, err)
	doc.ClearDomainEvents()
	return doc
}

func TestDocumentService_Create(t *testing.T) {
	ctx := userCtx()

	t.Run("creates with next sequence", func(t *testing.T) {
		f := newDocumentFixture()
		f.defs.On("FindLatest", ctx, "person").Return(mustDefinition(t, personSchema, false), nil)
		f.docs.On("NextSequence", ctx, "person").Return(int64(7), nil)
		f.docs.On("Create", ctx, mock.AnythingOfType("*document.Document")).Return(nil)

		resp, err := f.svc.Create(ctx, CreateDocumentRequest{
			DefinitionName: "person",
			Content:        json.RawMessage(`{"firstName":"Jane"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), resp.Sequence)
		assert.Equal(t, "jdoe", resp.CreatedBy)
		assert.Equal(t, 1, resp.Version)
		assert.Equal(t, []string{document.EventTypeDocumentCreated}, f.publisher.types())
	})

	t.Run("invalid content is rejected before a sequence is taken", func(t *testing.T) {
		f := newDocumentFixture()
		f.defs.On("FindLatest", ctx, "person").Return(mustDefinition(t, personSchema, false), nil)

		_, err := f.svc.Create(ctx, CreateDocumentRequest{
			DefinitionName: "person",
			Content:        json.RawMessage(`{"age":3}`),
		})
		assert.True(t, shared.IsDomainError(err, "DOCUMENT_CONTENT_INVALID"))
		f.docs.AssertNotCalled(t, "NextSequence", mock.Anything, mock.Anything)
	})

	t.Run("unknown definition", func(t *testing.T) {
		f := newDocumentFixture()
		f.defs.On("FindLatest", ctx, "nope").Return(nil, shared.ErrNotFound)

		_, err := f.svc.Create(ctx, CreateDocumentRequest{DefinitionName: "nope", Content: json.RawMessage(`{}`)})
		assert.True(t, shared.IsDomainError(err, "DOCUMENT_DEFINITION_NOT_FOUND"))
	})
}

func TestDocumentService_Modify(t *testing.T) {
	ctx := userCtx()

	t.Run("updates with the previous version as expectation", func(t *testing.T) {
		f := newDocumentFixture()
		def := mustDefinition(t, personSchema, false)
		doc := mustDocument(t, def, `{"firstName":"Jane"}`)
		f.docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
		f.defs.On("FindLatest", ctx, "person").Return(def, nil)
		f.docs.On("Update", ctx, doc, 1).Return(nil)

		resp, err := f.svc.Modify(ctx, ModifyDocumentRequest{
			DocumentID:     doc.ID,
			Content:        json.RawMessage(`{"firstName":"John"}`),
			VersionBasedOn: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Version)
		assert.JSONEq(t, `{"firstName":"John"}`, string(resp.Content))
		assert.Equal(t, []string{document.EventTypeDocumentModified}, f.publisher.types())
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		f := newDocumentFixture()
		def := mustDefinition(t, personSchema, false)
		doc := mustDocument(t, def, `{"firstName":"Jane"}`)
		doc.Version = 3
		f.docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
		f.defs.On("FindLatest", ctx, "person").Return(def, nil)

		_, err := f.svc.Modify(ctx, ModifyDocumentRequest{
			DocumentID:     doc.ID,
			Content:        json.RawMessage(`{"firstName":"John"}`),
			VersionBasedOn: 2,
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		f.docs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unchanged content is not stored", func(t *testing.T) {
		f := newDocumentFixture()
		def := mustDefinition(t, personSchema, false)
		doc := mustDocument(t, def, `{"firstName":"Jane"}`)
		f.docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
		f.defs.On("FindLatest", ctx, "person").Return(def, nil)

		resp, err := f.svc.Modify(ctx, ModifyDocumentRequest{
			DocumentID:     doc.ID,
			Content:        json.RawMessage(`{"firstName":"Jane"}`),
			VersionBasedOn: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Version)
		f.docs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.events)
	})
}

func TestDocumentService_Assign(t *testing.T) {
	ctx := userCtx()

	t.Run("assigns an existing user", func(t *testing.T) {
		f := newDocumentFixture()
		doc := mustDocument(t, mustDefinition(t, personSchema, false), `{"firstName":"Jane"}`)
		f.docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
		f.users.On("FindByID", ctx, "u-2").Return(&contract.ManageableUser{ID: "u-2", FirstName: "Ann", LastName: "Lee"}, nil)
		f.docs.On("Update", ctx, doc, 1).Return(nil)

		resp, err := f.svc.Assign(ctx, doc.ID, AssignRequest{AssigneeID: "u-2"})
		require.NoError(t, err)
		assert.Equal(t, "u-2", resp.AssigneeID)
		assert.Equal(t, "Ann Lee", resp.AssigneeFullName)
		assert.Equal(t, []string{document.EventTypeDocumentAssigned}, f.publisher.types())
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newDocumentFixture()
		doc := mustDocument(t, mustDefinition(t, personSchema, false), `{"firstName":"Jane"}`)
		f.docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
		f.users.On("FindByID", ctx, "ghost").Return(nil, shared.ErrNotFound)

		_, err := f.svc.Assign(ctx, doc.ID, AssignRequest{AssigneeID: "ghost"})
		assert.True(t, shared.IsDomainError(err, "USER_NOT_FOUND"))
	})

	t.Run("unassign without assignee is a no-op", func(t *testing.T) {
		f := newDocumentFixture()
		doc := mustDocument(t, mustDefinition(t, personSchema, false), `{"firstName":"Jane"}`)
		f.docs.On("FindByID", ctx, doc.ID).Return(doc, nil)

		_, err := f.svc.Unassign(ctx, doc.ID)
		require.NoError(t, err)
		f.docs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Resources(t *testing.T) {
	ctx := userCtx()
	f := newDocumentFixture()
	doc := mustDocument(t, mustDefinition(t, personSchema, false), `{"firstName":"Jane"}`)
	res, err := document.NewStoredResource("id.pdf", 10, "application/pdf")
	require.NoError(t, err)

	f.docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
	f.resources.On("FindByID", ctx, res.ResourceID).Return(res, nil)
	f.docs.On("Update", ctx, doc, 1).Return(nil)

	resp, err := f.svc.AddResource(ctx, doc.ID, res.ResourceID)
	require.NoError(t, err)
	require.Len(t, resp.Resources, 1)
	assert.Equal(t, "id.pdf", resp.Resources[0].FileName)

	resp, err = f.svc.RemoveResource(ctx, doc.ID, res.ResourceID)
	require.NoError(t, err)
	assert.Empty(t, resp.Resources)
	assert.Equal(t, []string{document.EventTypeDocumentResourceAdded, document.EventTypeDocumentResourceRemoved}, f.publisher.types())
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := userCtx()
	f := newDocumentFixture()
	doc := mustDocument(t, mustDefinition(t, personSchema, false), `{"firstName":"Jane"}`)
	f.docs.On("FindByID", ctx, doc.ID).Return(doc, nil)
	f.docs.On("Delete", ctx, doc.ID).Return(nil)

	require.NoError(t, f.svc.Delete(ctx, doc.ID))
	assert.Equal(t, []string{document.EventTypeDocumentDeleted}, f.publisher.types())

	missing := uuid.New()
	f.docs.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)
	err := f.svc.Delete(ctx, missing)
	assert.True(t, shared.IsDomainError(err, "DOCUMENT_NOT_FOUND"))
}

func TestDocumentService_AdvancedSearch(t *testing.T) {
	ctx := userCtx()

	t.Run("resolves keys and mine filter", func(t *testing.T) {
		f := newDocumentFixture()
		field, err := document.NewSearchField("person", "name", "firstName", document.DataTypeText, document.FieldTypeSingle, document.MatchTypeLike)
		require.NoError(t, err)
		f.defs.On("FindLatest", ctx, "person").Return(mustDefinition(t, personSchema, false), nil)
		f.fields.On("FindByDefinitionName", ctx, "person").Return([]document.SearchField{*field}, nil)
		f.docs.On("Search", ctx, mock.MatchedBy(func(c document.Criteria) bool {
			return c.DefinitionName == "person" &&
				c.AssigneeID == "u-1" &&
				len(c.Predicates) == 1 &&
				c.Predicates[0].Kind == document.PredicateLike &&
				c.Predicates[0].Path == "/firstName"
		})).Return([]document.Document{}, int64(0), nil)

		page, err := f.svc.AdvancedSearch(ctx, "person", AdvancedSearchRequest{
			AssigneeFilter: document.AssigneeFilterMine,
			OtherFilters:   []document.FieldFilter{{Key: "name", Values: []string{"ja"}}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), page.Total)
		f.docs.AssertExpectations(t)
	})

	t.Run("unknown key is invalid input", func(t *testing.T) {
		f := newDocumentFixture()
		f.defs.On("FindLatest", ctx, "person").Return(mustDefinition(t, personSchema, false), nil)
		f.fields.On("FindByDefinitionName", ctx, "person").Return([]document.SearchField{}, nil)

		_, err := f.svc.AdvancedSearch(ctx, "person", AdvancedSearchRequest{
			OtherFilters: []document.FieldFilter{{Key: "unknown", Values: []string{"x"}}},
		})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestDocumentService_SearchPaging(t *testing.T) {
	ctx := userCtx()
	f := newDocumentFixture()
	f.docs.On("Search", ctx, mock.MatchedBy(func(c document.Criteria) bool {
		return c.Filter.Page == 3 && c.Filter.PageSize == 10 && c.Filter.OrderBy == "sequence" && c.Filter.OrderDir == "asc"
	})).Return([]document.Document{}, int64(25), nil)

	page, err := f.svc.Search(ctx, DocumentSearchRequest{
		PageRequest:    PageRequest{Page: 3, Size: 10, Sort: "sequence,ASC"},
		DefinitionName: "person",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
}

func TestResourceService(t *testing.T) {
	ctx := context.Background()
	repo := new(MockResourceRepository)
	store := new(MockStorage)
	svc := NewResourceService(repo, store, zap.NewNop())

	store.On("Store", ctx, mock.MatchedBy(func(k string) bool { return len(k) > len("resources/") }), mock.Anything, int64(5), "text/plain").Return(nil)
	var saved *document.StoredResource
	repo.On("Save", ctx, mock.AnythingOfType("*document.StoredResource")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*document.StoredResource)
	}).Return(nil)

	resp, err := svc.Upload(ctx, "a.txt", 5, "text/plain", bytes.NewBufferString("hello"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", resp.FileName)
	require.NotNil(t, saved)

	repo.On("FindByID", ctx, saved.ResourceID).Return(saved, nil)
	store.On("Get", ctx, saved.StorageKey).Return(io.NopCloser(bytes.NewBufferString("hello")), &contract.StoredObject{Key: saved.StorageKey}, nil)
	body, meta, err := svc.Open(ctx, saved.ResourceID)
	require.NoError(t, err)
	defer body.Close()
	data, _ := io.ReadAll(body)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "text/plain", meta.ContentType)

	store.On("Delete", ctx, saved.StorageKey).Return(nil)
	repo.On("Delete", ctx, saved.ResourceID).Return(nil)
	require.NoError(t, svc.Delete(ctx, saved.ResourceID))
}
