package milestone

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/milestone"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"go.uber.org/zap"
)

// MilestoneService manages milestones and milestone sets
type MilestoneService struct {
	milestones milestone.MilestoneRepository
	sets       milestone.MilestoneSetRepository
	engine     contract.ProcessEngine
	logger     *zap.Logger
}

// NewMilestoneService creates a new MilestoneService
func NewMilestoneService(
	milestones milestone.MilestoneRepository,
	sets milestone.MilestoneSetRepository,
	engine contract.ProcessEngine,
	logger *zap.Logger,
) *MilestoneService {
	return &MilestoneService{milestones: milestones, sets: sets, engine: engine, logger: logger}
}

// List returns all milestones
func (s *MilestoneService) List(ctx context.Context) ([]MilestoneResponse, error) {
	list, err := s.milestones.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MilestoneResponse, len(list))
	for i := range list {
		out[i] = ToMilestoneResponse(&list[i])
	}
	return out, nil
}

// Get returns a milestone
func (s *MilestoneService) Get(ctx context.Context, id uuid.UUID) (*MilestoneResponse, error) {
	m, err := s.milestones.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, milestoneNotFound(id)
		}
		return nil, err
	}
	resp := ToMilestoneResponse(m)
	return &resp, nil
}

// Save creates or updates a milestone. The set must exist and the task may
// carry only one milestone per process definition.
func (s *MilestoneService) Save(ctx context.Context, req SaveMilestoneRequest) (*MilestoneResponse, error) {
	var id uuid.UUID
	if req.ID != nil {
		id = *req.ID
	}
	m, err := milestone.NewMilestone(id, req.Title, req.ProcessDefinitionID, req.TaskDefinitionKey, req.Color, req.MilestoneSetID)
	if err != nil {
		return nil, err
	}
	if _, err := s.sets.FindByID(ctx, m.MilestoneSetID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, setNotFound(m.MilestoneSetID)
		}
		return nil, err
	}

	existing, err := s.milestones.FindByProcessAndTask(ctx, m.ProcessDefinitionID, m.TaskDefinitionKey)
	switch {
	case err == nil && existing.ID != m.ID:
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			"Task "+m.TaskDefinitionKey+" of "+m.ProcessDefinitionID+" already has a milestone")
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	if err := s.milestones.Save(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMilestoneResponse(m)
	return &resp, nil
}

// Delete removes a milestone
func (s *MilestoneService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.milestones.Delete(ctx, id)
}

// ListSets returns all milestone sets
func (s *MilestoneService) ListSets(ctx context.Context) ([]MilestoneSetResponse, error) {
	sets, err := s.sets.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MilestoneSetResponse, len(sets))
	for i, set := range sets {
		out[i] = MilestoneSetResponse{ID: set.ID, Title: set.Title}
	}
	return out, nil
}

// GetSet returns a milestone set
func (s *MilestoneService) GetSet(ctx context.Context, id uuid.UUID) (*MilestoneSetResponse, error) {
	set, err := s.sets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, setNotFound(id)
		}
		return nil, err
	}
	return &MilestoneSetResponse{ID: set.ID, Title: set.Title}, nil
}

// SaveSet creates or renames a milestone set
func (s *MilestoneService) SaveSet(ctx context.Context, req SaveMilestoneSetRequest) (*MilestoneSetResponse, error) {
	var id uuid.UUID
	if req.ID != nil {
		id = *req.ID
	}
	set, err := milestone.NewMilestoneSet(id, req.Title)
	if err != nil {
		return nil, err
	}
	if err := s.sets.Save(ctx, set); err != nil {
		return nil, err
	}
	return &MilestoneSetResponse{ID: set.ID, Title: set.Title}, nil
}

// DeleteSet removes a set and its milestones
func (s *MilestoneService) DeleteSet(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetSet(ctx, id); err != nil {
		return err
	}
	if err := s.sets.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Milestone set deleted", zap.String("id", id.String()))
	return nil
}

// GetFlowNodes lists the flow nodes of a process definition a milestone can be placed on
func (s *MilestoneService) GetFlowNodes(ctx context.Context, processDefinitionID string) ([]contract.FlowNode, error) {
	return s.engine.GetFlowNodes(ctx, processDefinitionID)
}

func milestoneNotFound(id uuid.UUID) error {
	return shared.NewDomainError("MILESTONE_NOT_FOUND", "Milestone not found: "+id.String())
}

func setNotFound(id uuid.UUID) error {
	return shared.NewDomainError("MILESTONE_SET_NOT_FOUND", "Milestone set not found: "+id.String())
}
