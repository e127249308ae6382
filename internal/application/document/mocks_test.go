package document

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

type MockDefinitionRepository struct {
	mock.Mock
}

func (m *MockDefinitionRepository) Save(ctx context.Context, def *document.Definition) error {
	return m.Called(ctx, def).Error(0)
}

func (m *MockDefinitionRepository) FindLatest(ctx context.Context, name string) (*document.Definition, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Definition), args.Error(1)
}

func (m *MockDefinitionRepository) FindByID(ctx context.Context, id document.DefinitionID) (*document.Definition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Definition), args.Error(1)
}

func (m *MockDefinitionRepository) FindAllLatest(ctx context.Context, filter shared.Filter) ([]document.Definition, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]document.Definition), args.Get(1).(int64), args.Error(2)
}

func (m *MockDefinitionRepository) MarkReadOnly(ctx context.Context, id document.DefinitionID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDefinitionRepository) DeleteByName(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *document.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *document.Document, expectedVersion int) error {
	return m.Called(ctx, doc, expectedVersion).Error(0)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDocumentRepository) Search(ctx context.Context, criteria document.Criteria) ([]document.Document, int64, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).([]document.Document), args.Get(1).(int64), args.Error(2)
}

func (m *MockDocumentRepository) CountByDefinitionName(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) NextSequence(ctx context.Context, definitionName string) (int64, error) {
	args := m.Called(ctx, definitionName)
	return args.Get(0).(int64), args.Error(1)
}

type MockSearchFieldRepository struct {
	mock.Mock
}

func (m *MockSearchFieldRepository) Create(ctx context.Context, field *document.SearchField) error {
	return m.Called(ctx, field).Error(0)
}

func (m *MockSearchFieldRepository) Update(ctx context.Context, field *document.SearchField) error {
	return m.Called(ctx, field).Error(0)
}

func (m *MockSearchFieldRepository) Delete(ctx context.Context, definitionName, key string) error {
	return m.Called(ctx, definitionName, key).Error(0)
}

func (m *MockSearchFieldRepository) FindByDefinitionName(ctx context.Context, definitionName string) ([]document.SearchField, error) {
	args := m.Called(ctx, definitionName)
	return args.Get(0).([]document.SearchField), args.Error(1)
}

func (m *MockSearchFieldRepository) FindByKey(ctx context.Context, definitionName, key string) (*document.SearchField, error) {
	args := m.Called(ctx, definitionName, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.SearchField), args.Error(1)
}

func (m *MockSearchFieldRepository) DeleteByDefinitionName(ctx context.Context, definitionName string) error {
	return m.Called(ctx, definitionName).Error(0)
}

type MockResourceRepository struct {
	mock.Mock
}

func (m *MockResourceRepository) Save(ctx context.Context, res *document.StoredResource) error {
	return m.Called(ctx, res).Error(0)
}

func (m *MockResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.StoredResource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.StoredResource), args.Error(1)
}

func (m *MockResourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetCurrentUser(ctx context.Context) (*contract.ManageableUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.ManageableUser), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, id string) (*contract.ManageableUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.ManageableUser), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*contract.ManageableUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.ManageableUser), args.Error(1)
}

func (m *MockUserService) FindByRole(ctx context.Context, role string) ([]contract.ManageableUser, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]contract.ManageableUser), args.Error(1)
}

func (m *MockUserService) FindByRoles(ctx context.Context, query contract.RoleQuery) ([]contract.ManageableUser, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]contract.ManageableUser), args.Error(1)
}

func (m *MockUserService) GetAllUsers(ctx context.Context, first, max int) ([]contract.ManageableUser, error) {
	args := m.Called(ctx, first, max)
	return args.Get(0).([]contract.ManageableUser), args.Error(1)
}

// recordingPublisher keeps published events for assertions
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, body, size, contentType).Error(0)
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, *contract.StoredObject, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*contract.StoredObject), args.Error(2)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStorage) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}
