package viewconfig

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/viewconfig"
)

// CreateViewConfigRequest maps a process, or one of its tasks, to a view
type CreateViewConfigRequest struct {
	ViewID               string   `json:"view_id" binding:"required"`
	ProcessDefinitionKey string   `json:"process_definition_key" binding:"required"`
	TaskDefinitionKey    string   `json:"task_definition_key"`
	Roles                []string `json:"roles"`
}

// UpdateViewConfigRequest changes view and roles of a configuration
type UpdateViewConfigRequest struct {
	ViewID string   `json:"view_id" binding:"required"`
	Roles  []string `json:"roles"`
}

// ViewConfigResponse is the API view of a configuration
type ViewConfigResponse struct {
	ID                   uuid.UUID `json:"id"`
	ViewID               string    `json:"view_id"`
	ProcessDefinitionKey string    `json:"process_definition_key"`
	TaskDefinitionKey    string    `json:"task_definition_key,omitempty"`
	Roles                []string  `json:"roles"`
}

func toResponse(v *viewconfig.ViewConfig) ViewConfigResponse {
	return ViewConfigResponse{
		ID:                   v.ID,
		ViewID:               v.ViewID,
		ProcessDefinitionKey: v.ProcessDefinitionKey,
		TaskDefinitionKey:    v.TaskDefinitionKey,
		Roles:                v.Roles,
	}
}

// ViewConfigService manages and resolves view configurations
type ViewConfigService struct {
	repo  viewconfig.ViewConfigRepository
	views []string
}

// NewViewConfigService creates a new ViewConfigService for the registered view ids
func NewViewConfigService(repo viewconfig.ViewConfigRepository, availableViews []string) *ViewConfigService {
	views := slices.Clone(availableViews)
	slices.Sort(views)
	return &ViewConfigService{repo: repo, views: slices.Compact(views)}
}

// Views returns the registered view ids
func (s *ViewConfigService) Views() []string {
	return slices.Clone(s.views)
}

// Create stores a configuration
func (s *ViewConfigService) Create(ctx context.Context, req CreateViewConfigRequest) (*ViewConfigResponse, error) {
	vc, err := viewconfig.NewViewConfig(req.ViewID, req.ProcessDefinitionKey, req.TaskDefinitionKey, req.Roles, s.views)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, vc); err != nil {
		return nil, err
	}
	resp := toResponse(vc)
	return &resp, nil
}

// Update changes view and roles
func (s *ViewConfigService) Update(ctx context.Context, id uuid.UUID, req UpdateViewConfigRequest) (*ViewConfigResponse, error) {
	vc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := vc.Update(req.ViewID, req.Roles, s.views); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, vc); err != nil {
		return nil, err
	}
	resp := toResponse(vc)
	return &resp, nil
}

// Delete removes a configuration
func (s *ViewConfigService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// List returns the configurations of a process, or all when the key is empty
func (s *ViewConfigService) List(ctx context.Context, processDefinitionKey string) ([]ViewConfigResponse, error) {
	var (
		list []viewconfig.ViewConfig
		err  error
	)
	if processDefinitionKey == "" {
		list, err = s.repo.FindAll(ctx)
	} else {
		list, err = s.repo.FindByProcessDefinitionKey(ctx, processDefinitionKey)
	}
	if err != nil {
		return nil, err
	}
	out := make([]ViewConfigResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	return out, nil
}

// Resolve returns the configuration the current user sees for a task of a process
func (s *ViewConfigService) Resolve(ctx context.Context, processDefinitionKey, taskDefinitionKey string) (*ViewConfigResponse, error) {
	configs, err := s.repo.FindByProcessDefinitionKey(ctx, processDefinitionKey)
	if err != nil {
		return nil, err
	}
	var roles []string
	if u, ok := contract.CurrentUserFrom(ctx); ok {
		roles = u.Roles
	}
	vc, err := viewconfig.Resolve(configs, taskDefinitionKey, roles)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("VIEW_CONFIG_NOT_FOUND",
				"No view configuration for "+processDefinitionKey+" applies")
		}
		return nil, err
	}
	resp := toResponse(vc)
	return &resp, nil
}

func (s *ViewConfigService) find(ctx context.Context, id uuid.UUID) (*viewconfig.ViewConfig, error) {
	vc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("VIEW_CONFIG_NOT_FOUND", "View configuration not found: "+id.String())
		}
		return nil, err
	}
	return vc, nil
}
