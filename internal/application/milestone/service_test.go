package milestone

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/milestone"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

type MockMilestoneRepository struct {
	mock.Mock
}

func (m *MockMilestoneRepository) Save(ctx context.Context, ms *milestone.Milestone) error {
	return m.Called(ctx, ms).Error(0)
}

func (m *MockMilestoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*milestone.Milestone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*milestone.Milestone), args.Error(1)
}

func (m *MockMilestoneRepository) FindAll(ctx context.Context) ([]milestone.Milestone, error) {
	args := m.Called(ctx)
	return args.Get(0).([]milestone.Milestone), args.Error(1)
}

func (m *MockMilestoneRepository) FindByProcessAndTask(ctx context.Context, pdID, taskKey string) (*milestone.Milestone, error) {
	args := m.Called(ctx, pdID, taskKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*milestone.Milestone), args.Error(1)
}

func (m *MockMilestoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockSetRepository struct {
	mock.Mock
}

func (m *MockSetRepository) Save(ctx context.Context, set *milestone.MilestoneSet) error {
	return m.Called(ctx, set).Error(0)
}

func (m *MockSetRepository) FindByID(ctx context.Context, id uuid.UUID) (*milestone.MilestoneSet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*milestone.MilestoneSet), args.Error(1)
}

func (m *MockSetRepository) FindAll(ctx context.Context) ([]milestone.MilestoneSet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]milestone.MilestoneSet), args.Error(1)
}

func (m *MockSetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type flowNodeEngine struct {
	contract.ProcessEngine
	nodes []contract.FlowNode
}

func (e flowNodeEngine) GetFlowNodes(context.Context, string) ([]contract.FlowNode, error) {
	return e.nodes, nil
}

func TestMilestoneService_Save(t *testing.T) {
	ctx := context.Background()
	setID := uuid.New()
	req := SaveMilestoneRequest{
		Title:               "Intake done",
		ProcessDefinitionID: "loan:1:abc",
		TaskDefinitionKey:   "intake",
		Color:               "#ff0000",
		MilestoneSetID:      setID,
	}

	t.Run("creates milestone", func(t *testing.T) {
		milestones, sets := new(MockMilestoneRepository), new(MockSetRepository)
		svc := NewMilestoneService(milestones, sets, nil, zap.NewNop())
		sets.On("FindByID", ctx, setID).Return(&milestone.MilestoneSet{ID: setID, Title: "Loan"}, nil)
		milestones.On("FindByProcessAndTask", ctx, "loan:1:abc", "intake").Return(nil, shared.ErrNotFound)
		milestones.On("Save", ctx, mock.AnythingOfType("*milestone.Milestone")).Return(nil)

		resp, err := svc.Save(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "#FF0000", resp.Color)
		assert.NotEqual(t, uuid.Nil, resp.ID)
	})

	t.Run("set must exist", func(t *testing.T) {
		milestones, sets := new(MockMilestoneRepository), new(MockSetRepository)
		svc := NewMilestoneService(milestones, sets, nil, zap.NewNop())
		sets.On("FindByID", ctx, setID).Return(nil, shared.ErrNotFound)

		_, err := svc.Save(ctx, req)
		assert.True(t, shared.IsDomainError(err, "MILESTONE_SET_NOT_FOUND"))
	})

	t.Run("task already has a milestone", func(t *testing.T) {
		milestones, sets := new(MockMilestoneRepository), new(MockSetRepository)
		svc := NewMilestoneService(milestones, sets, nil, zap.NewNop())
		sets.On("FindByID", ctx, setID).Return(&milestone.MilestoneSet{ID: setID}, nil)
		milestones.On("FindByProcessAndTask", ctx, "loan:1:abc", "intake").
			Return(&milestone.Milestone{ID: uuid.New()}, nil)

		_, err := svc.Save(ctx, req)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("updating keeps its own task", func(t *testing.T) {
		milestones, sets := new(MockMilestoneRepository), new(MockSetRepository)
		svc := NewMilestoneService(milestones, sets, nil, zap.NewNop())
		id := uuid.New()
		update := req
		update.ID = &id
		sets.On("FindByID", ctx, setID).Return(&milestone.MilestoneSet{ID: setID}, nil)
		milestones.On("FindByProcessAndTask", ctx, "loan:1:abc", "intake").Return(&milestone.Milestone{ID: id}, nil)
		milestones.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := svc.Save(ctx, update)
		require.NoError(t, err)
		assert.Equal(t, id, resp.ID)
	})

	t.Run("bad color", func(t *testing.T) {
		svc := NewMilestoneService(new(MockMilestoneRepository), new(MockSetRepository), nil, zap.NewNop())
		bad := req
		bad.Color = "red"
		_, err := svc.Save(ctx, bad)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestMilestoneService_Sets(t *testing.T) {
	ctx := context.Background()
	milestones, sets := new(MockMilestoneRepository), new(MockSetRepository)
	svc := NewMilestoneService(milestones, sets, nil, zap.NewNop())

	sets.On("Save", ctx, mock.AnythingOfType("*milestone.MilestoneSet")).Return(nil)
	created, err := svc.SaveSet(ctx, SaveMilestoneSetRequest{Title: "Loan"})
	require.NoError(t, err)

	sets.On("FindByID", ctx, created.ID).Return(&milestone.MilestoneSet{ID: created.ID, Title: "Loan"}, nil)
	sets.On("Delete", ctx, created.ID).Return(nil)
	require.NoError(t, svc.DeleteSet(ctx, created.ID))

	missing := uuid.New()
	sets.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)
	assert.True(t, shared.IsDomainError(svc.DeleteSet(ctx, missing), "MILESTONE_SET_NOT_FOUND"))
}

func TestMilestoneService_GetFlowNodes(t *testing.T) {
	engine := flowNodeEngine{nodes: []contract.FlowNode{{ID: "intake", Name: "Intake", Type: "userTask"}}}
	svc := NewMilestoneService(new(MockMilestoneRepository), new(MockSetRepository), engine, zap.NewNop())

	nodes, err := svc.GetFlowNodes(context.Background(), "loan:1:abc")
	require.NoError(t, err)
	assert.Equal(t, "intake", nodes[0].ID)
}
