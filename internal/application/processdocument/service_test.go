package processdocument

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/processdocument"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, def *processdocument.Definition) error {
	return m.Called(ctx, def).Error(0)
}

func (m *MockLinkRepository) Delete(ctx context.Context, id processdocument.DefinitionID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLinkRepository) FindByID(ctx context.Context, id processdocument.DefinitionID) (*processdocument.Definition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processdocument.Definition), args.Error(1)
}

func (m *MockLinkRepository) FindByDocumentDefinitionName(ctx context.Context, name string) ([]processdocument.Definition, error) {
	args := m.Called(ctx, name)
	return args.Get(0).([]processdocument.Definition), args.Error(1)
}

func (m *MockLinkRepository) FindByProcessDefinitionKey(ctx context.Context, key string) ([]processdocument.Definition, error) {
	args := m.Called(ctx, key)
	return args.Get(0).([]processdocument.Definition), args.Error(1)
}

type MockInstanceRepository struct {
	mock.Mock
}

func (m *MockInstanceRepository) Create(ctx context.Context, instance *processdocument.Instance) error {
	return m.Called(ctx, instance).Error(0)
}

func (m *MockInstanceRepository) FindByDocumentID(ctx context.Context, documentID uuid.UUID) ([]processdocument.Instance, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).([]processdocument.Instance), args.Error(1)
}

func (m *MockInstanceRepository) FindByProcessInstanceID(ctx context.Context, id string) (*processdocument.Instance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processdocument.Instance), args.Error(1)
}

func (m *MockInstanceRepository) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	return m.Called(ctx, documentID).Error(0)
}

type MockDocuments struct {
	mock.Mock
}

func (m *MockDocuments) CreateDocument(ctx context.Context, name string, content json.RawMessage) (*document.Document, error) {
	args := m.Called(ctx, name, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockDocuments) ModifyDocument(ctx context.Context, id uuid.UUID, content json.RawMessage, versionBasedOn int) (*document.Document, error) {
	args := m.Called(ctx, id, content, versionBasedOn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockDocuments) GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockDocuments) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) StartProcess(ctx context.Context, key, businessKey string, variables map[string]any) (*contract.ProcessInstance, error) {
	args := m.Called(ctx, key, businessKey, variables)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.ProcessInstance), args.Error(1)
}

func (m *MockEngine) GetProcessInstance(ctx context.Context, id string) (*contract.ProcessInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.ProcessInstance), args.Error(1)
}

func (m *MockEngine) DeleteProcessInstance(ctx context.Context, id, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

func (m *MockEngine) GetTask(ctx context.Context, taskID string) (*contract.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Task), args.Error(1)
}

func (m *MockEngine) GetTaskVariables(ctx context.Context, taskID string) (map[string]any, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockEngine) CompleteTask(ctx context.Context, taskID string, variables map[string]any) error {
	return m.Called(ctx, taskID, variables).Error(0)
}

func (m *MockEngine) GetFlowNodes(ctx context.Context, processDefinitionID string) ([]contract.FlowNode, error) {
	args := m.Called(ctx, processDefinitionID)
	return args.Get(0).([]contract.FlowNode), args.Error(1)
}

type stubDocumentDefinitions struct {
	document.DefinitionRepository
	names map[string]bool
}

func (s stubDocumentDefinitions) FindLatest(_ context.Context, name string) (*document.Definition, error) {
	if !s.names[name] {
		return nil, shared.ErrNotFound
	}
	return &document.Definition{ID: document.DefinitionID{Name: name, Version: 1}}, nil
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

type fixture struct {
	links     *MockLinkRepository
	instances *MockInstanceRepository
	documents *MockDocuments
	engine    *MockEngine
	publisher *recordingPublisher
	svc       *ProcessDocumentService
}

func newFixture() *fixture {
	f := &fixture{
		links:     new(MockLinkRepository),
		instances: new(MockInstanceRepository),
		documents: new(MockDocuments),
		engine:    new(MockEngine),
		publisher: &recordingPublisher{},
	}
	f.svc = NewProcessDocumentService(f.links, f.instances,
		stubDocumentDefinitions{names: map[string]bool{"loan": true}},
		f.documents, f.engine, f.publisher, zap.NewNop())
	return f
}

func loanDocument(t *testing.T) *document.Document {
	t.Helper()
	def, err := document.NewDefinition("loan", json.RawMessage(`{"$id":"loan.schema","type":"object"}`), false)
	require.NoError(t, err)
	doc, err := document.NewDocument(def, json.RawMessage(`{"amount":100}`), 1, "jdoe")
	require.NoError(t, err)
	return doc
}

var loanLink = processdocument.DefinitionID{ProcessDefinitionKey: "loan-request", DocumentDefinitionName: "loan"}

func TestCreateDefinition(t *testing.T) {
	ctx := context.Background()

	t.Run("links to existing document definition", func(t *testing.T) {
		f := newFixture()
		f.links.On("Create", ctx, mock.AnythingOfType("*processdocument.Definition")).Return(nil)

		resp, err := f.svc.CreateDefinition(ctx, CreateDefinitionRequest{
			ProcessDefinitionKey:   "loan-request",
			DocumentDefinitionName: "loan",
			CanInitializeDocument:  true,
		})
		require.NoError(t, err)
		assert.True(t, resp.CanInitializeDocument)
		assert.False(t, resp.ReadOnly)
	})

	t.Run("unknown document definition", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.CreateDefinition(ctx, CreateDefinitionRequest{ProcessDefinitionKey: "x", DocumentDefinitionName: "nope"})
		assert.True(t, shared.IsDomainError(err, "DOCUMENT_DEFINITION_NOT_FOUND"))
	})

	t.Run("deploy tolerates existing link", func(t *testing.T) {
		f := newFixture()
		existing := &processdocument.Definition{ID: loanLink, CanInitializeDocument: true}
		f.links.On("Create", ctx, mock.Anything).Return(shared.ErrAlreadyExists)
		f.links.On("FindByID", ctx, loanLink).Return(existing, nil)

		resp, err := f.svc.DeployDefinition(ctx, CreateDefinitionRequest{ProcessDefinitionKey: "loan-request", DocumentDefinitionName: "loan"})
		require.NoError(t, err)
		assert.True(t, resp.CanInitializeDocument)
	})

	t.Run("read-only link cannot be deleted", func(t *testing.T) {
		f := newFixture()
		f.links.On("FindByID", ctx, loanLink).Return(&processdocument.Definition{ID: loanLink, ReadOnly: true}, nil)

		err := f.svc.DeleteDefinition(ctx, DefinitionIDRequest{ProcessDefinitionKey: "loan-request", DocumentDefinitionName: "loan"})
		assert.ErrorIs(t, err, shared.ErrReadOnly)
	})
}

func TestNewDocumentAndStartProcess(t *testing.T) {
	ctx := context.Background()
	content := json.RawMessage(`{"amount":100}`)
	req := NewDocumentAndStartProcessRequest{
		ProcessDefinitionKey:   "loan-request",
		DocumentDefinitionName: "loan",
		Content:                content,
	}

	t.Run("starts process with document id as business key", func(t *testing.T) {
		f := newFixture()
		doc := loanDocument(t)
		f.links.On("FindByID", ctx, loanLink).Return(&processdocument.Definition{ID: loanLink, CanInitializeDocument: true}, nil)
		f.documents.On("CreateDocument", ctx, "loan", content).Return(doc, nil)
		f.engine.On("StartProcess", ctx, "loan-request", doc.ID.String(), map[string]any(nil)).
			Return(&contract.ProcessInstance{ID: "pi-1", BusinessKey: doc.ID.String()}, nil)
		f.instances.On("Create", ctx, mock.MatchedBy(func(i *processdocument.Instance) bool {
			return i.ProcessInstanceID == "pi-1" && i.DocumentID == doc.ID && i.Active
		})).Return(nil)

		res, err := f.svc.NewDocumentAndStartProcess(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "pi-1", res.ProcessInstanceID)
		assert.Equal(t, doc.ID, res.Document.ID)
		assert.Equal(t, []string{processdocument.EventTypeProcessStarted}, f.publisher.types)
	})

	t.Run("link must allow initialization", func(t *testing.T) {
		f := newFixture()
		f.links.On("FindByID", ctx, loanLink).Return(&processdocument.Definition{ID: loanLink}, nil)

		_, err := f.svc.NewDocumentAndStartProcess(ctx, req)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		f.documents.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing link", func(t *testing.T) {
		f := newFixture()
		f.links.On("FindByID", ctx, loanLink).Return(nil, shared.ErrNotFound)

		_, err := f.svc.NewDocumentAndStartProcess(ctx, req)
		assert.True(t, shared.IsDomainError(err, "PROCESS_DOCUMENT_DEFINITION_NOT_FOUND"))
	})

	t.Run("document removed when engine fails", func(t *testing.T) {
		f := newFixture()
		doc := loanDocument(t)
		engineErr := errors.New("engine down")
		f.links.On("FindByID", ctx, loanLink).Return(&processdocument.Definition{ID: loanLink, CanInitializeDocument: true}, nil)
		f.documents.On("CreateDocument", ctx, "loan", content).Return(doc, nil)
		f.engine.On("StartProcess", ctx, "loan-request", doc.ID.String(), map[string]any(nil)).Return(nil, engineErr)
		f.documents.On("Delete", ctx, doc.ID).Return(nil)

		_, err := f.svc.NewDocumentAndStartProcess(ctx, req)
		assert.ErrorIs(t, err, engineErr)
		f.documents.AssertCalled(t, "Delete", ctx, doc.ID)
	})
}

func TestNewDocumentAndStartProcess_InstanceStoreFailure(t *testing.T) {
	ctx := context.Background()
	content := json.RawMessage(`{"amount":100}`)
	storeErr := errors.New("insert failed")

	t.Run("engine process and document are removed", func(t *testing.T) {
		f := newFixture()
		doc := loanDocument(t)
		f.links.On("FindByID", ctx, loanLink).Return(&processdocument.Definition{ID: loanLink, CanInitializeDocument: true}, nil)
		f.documents.On("CreateDocument", ctx, "loan", content).Return(doc, nil)
		f.engine.On("StartProcess", ctx, "loan-request", doc.ID.String(), map[string]any(nil)).
			Return(&contract.ProcessInstance{ID: "pi-9", BusinessKey: doc.ID.String()}, nil)
		f.instances.On("Create", ctx, mock.Anything).Return(storeErr)
		f.engine.On("DeleteProcessInstance", ctx, "pi-9", mock.AnythingOfType("string")).Return(nil)
		f.documents.On("Delete", ctx, doc.ID).Return(nil)

		_, err := f.svc.NewDocumentAndStartProcess(ctx, NewDocumentAndStartProcessRequest{
			ProcessDefinitionKey:   "loan-request",
			DocumentDefinitionName: "loan",
			Content:                content,
		})
		assert.ErrorIs(t, err, storeErr)
		f.engine.AssertCalled(t, "DeleteProcessInstance", ctx, "pi-9", mock.AnythingOfType("string"))
		f.documents.AssertCalled(t, "Delete", ctx, doc.ID)
		assert.Empty(t, f.publisher.types)
	})

	t.Run("failed cancellation still returns the store error", func(t *testing.T) {
		f := newFixture()
		doc := loanDocument(t)
		f.links.On("FindByID", ctx, loanLink).Return(&processdocument.Definition{ID: loanLink, CanInitializeDocument: true}, nil)
		f.documents.On("CreateDocument", ctx, "loan", content).Return(doc, nil)
		f.engine.On("StartProcess", ctx, "loan-request", doc.ID.String(), map[string]any(nil)).
			Return(&contract.ProcessInstance{ID: "pi-9"}, nil)
		f.instances.On("Create", ctx, mock.Anything).Return(storeErr)
		f.engine.On("DeleteProcessInstance", ctx, "pi-9", mock.AnythingOfType("string")).Return(errors.New("engine down"))
		f.documents.On("Delete", ctx, doc.ID).Return(nil)

		_, err := f.svc.NewDocumentAndStartProcess(ctx, NewDocumentAndStartProcessRequest{
			ProcessDefinitionKey:   "loan-request",
			DocumentDefinitionName: "loan",
			Content:                content,
		})
		assert.ErrorIs(t, err, storeErr)
		f.documents.AssertCalled(t, "Delete", ctx, doc.ID)
	})
}

func TestModifyDocumentAndStartProcess(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	doc := loanDocument(t)
	content := json.RawMessage(`{"amount":200}`)
	vars := map[string]any{"urgent": true}

	f.documents.On("GetDocument", ctx, doc.ID).Return(doc, nil)
	f.links.On("FindByID", ctx, loanLink).Return(&processdocument.Definition{ID: loanLink}, nil)
	f.documents.On("ModifyDocument", ctx, doc.ID, content, 1).Return(doc, nil)
	f.engine.On("StartProcess", ctx, "loan-request", doc.ID.String(), vars).Return(&contract.ProcessInstance{ID: "pi-2"}, nil)
	f.instances.On("Create", ctx, mock.Anything).Return(nil)

	res, err := f.svc.ModifyDocumentAndStartProcess(ctx, ModifyDocumentAndStartProcessRequest{
		ProcessDefinitionKey: "loan-request",
		DocumentID:           doc.ID,
		Content:              content,
		VersionBasedOn:       1,
		Variables:            vars,
	})
	require.NoError(t, err)
	assert.Equal(t, "pi-2", res.ProcessInstanceID)
	f.documents.AssertExpectations(t)
}

func TestModifyDocumentAndCompleteTask(t *testing.T) {
	ctx := context.Background()
	task := &contract.Task{ID: "task-1", Name: "Review", ProcessInstanceID: "pi-1"}

	t.Run("completes task of a recorded instance", func(t *testing.T) {
		f := newFixture()
		doc := loanDocument(t)
		content := json.RawMessage(`{"amount":300}`)
		f.engine.On("GetTask", ctx, "task-1").Return(task, nil)
		f.instances.On("FindByProcessInstanceID", ctx, "pi-1").Return(&processdocument.Instance{ProcessInstanceID: "pi-1", DocumentID: doc.ID}, nil)
		f.documents.On("ModifyDocument", ctx, doc.ID, content, 0).Return(doc, nil)
		f.engine.On("CompleteTask", ctx, "task-1", map[string]any{"approved": true}).Return(nil)

		res, err := f.svc.ModifyDocumentAndCompleteTask(ctx, ModifyDocumentAndCompleteTaskRequest{
			TaskID:     "task-1",
			DocumentID: doc.ID,
			Content:    content,
			Variables:  map[string]any{"approved": true},
		})
		require.NoError(t, err)
		assert.Equal(t, "pi-1", res.ProcessInstanceID)
		assert.Equal(t, []string{processdocument.EventTypeTaskCompleted}, f.publisher.types)
	})

	t.Run("falls back to business key", func(t *testing.T) {
		f := newFixture()
		doc := loanDocument(t)
		f.engine.On("GetTask", ctx, "task-1").Return(task, nil)
		f.instances.On("FindByProcessInstanceID", ctx, "pi-1").Return(nil, shared.ErrNotFound)
		f.engine.On("GetProcessInstance", ctx, "pi-1").Return(&contract.ProcessInstance{ID: "pi-1", BusinessKey: doc.ID.String()}, nil)
		f.documents.On("GetDocument", ctx, doc.ID).Return(doc, nil)
		f.engine.On("CompleteTask", ctx, "task-1", map[string]any(nil)).Return(nil)

		_, err := f.svc.ModifyDocumentAndCompleteTask(ctx, ModifyDocumentAndCompleteTaskRequest{TaskID: "task-1", DocumentID: doc.ID})
		require.NoError(t, err)
	})

	t.Run("task of another document", func(t *testing.T) {
		f := newFixture()
		f.engine.On("GetTask", ctx, "task-1").Return(task, nil)
		f.instances.On("FindByProcessInstanceID", ctx, "pi-1").Return(&processdocument.Instance{ProcessInstanceID: "pi-1", DocumentID: uuid.New()}, nil)

		_, err := f.svc.ModifyDocumentAndCompleteTask(ctx, ModifyDocumentAndCompleteTaskRequest{TaskID: "task-1", DocumentID: uuid.New()})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
		f.engine.AssertNotCalled(t, "CompleteTask", mock.Anything, mock.Anything, mock.Anything)
		f.documents.AssertNotCalled(t, "ModifyDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("business key of another document", func(t *testing.T) {
		f := newFixture()
		f.engine.On("GetTask", ctx, "task-1").Return(task, nil)
		f.instances.On("FindByProcessInstanceID", ctx, "pi-1").Return(nil, shared.ErrNotFound)
		f.engine.On("GetProcessInstance", ctx, "pi-1").Return(&contract.ProcessInstance{ID: "pi-1", BusinessKey: uuid.NewString()}, nil)

		_, err := f.svc.ModifyDocumentAndCompleteTask(ctx, ModifyDocumentAndCompleteTaskRequest{TaskID: "task-1", DocumentID: uuid.New()})
		assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
		f.engine.AssertNotCalled(t, "CompleteTask", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestFindInstancesByDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	docID := uuid.New()
	inst, err := processdocument.NewInstance("pi-1", docID, "loan-request", "Loan request")
	require.NoError(t, err)
	f.instances.On("FindByDocumentID", ctx, docID).Return([]processdocument.Instance{*inst}, nil)

	out, err := f.svc.FindInstancesByDocument(ctx, docID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Loan request", out[0].ProcessName)
}
