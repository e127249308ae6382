package viewconfig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// ViewConfig maps a process, or one of its user tasks, to a front-end view
type ViewConfig struct {
	ID                   uuid.UUID
	ViewID               string
	ProcessDefinitionKey string
	// TaskDefinitionKey is empty for a process level configuration
	TaskDefinitionKey string
	// Roles restricts visibility; empty means everyone
	Roles []string
}

// NewViewConfig validates and creates a view configuration
func NewViewConfig(viewID, processDefinitionKey, taskDefinitionKey string, roles []string, availableViews []string) (*ViewConfig, error) {
	vc := &ViewConfig{
		ID:                   uuid.New(),
		ViewID:               strings.TrimSpace(viewID),
		ProcessDefinitionKey: strings.TrimSpace(processDefinitionKey),
		TaskDefinitionKey:    strings.TrimSpace(taskDefinitionKey),
		Roles:                normalizeRoles(roles),
	}
	if err := vc.Validate(availableViews); err != nil {
		return nil, err
	}
	return vc, nil
}

// Validate checks the configuration against the registered view ids
func (v *ViewConfig) Validate(availableViews []string) error {
	if v.ProcessDefinitionKey == "" {
		return shared.NewDomainError("INVALID_INPUT", "Process definition key cannot be empty")
	}
	if v.ViewID == "" {
		return shared.NewDomainError("INVALID_INPUT", "View id cannot be empty")
	}
	if !slices.Contains(availableViews, v.ViewID) {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("View %q is not registered", v.ViewID))
	}
	return nil
}

// Update changes view and roles
func (v *ViewConfig) Update(viewID string, roles []string, availableViews []string) error {
	updated := *v
	updated.ViewID = strings.TrimSpace(viewID)
	updated.Roles = normalizeRoles(roles)
	if err := updated.Validate(availableViews); err != nil {
		return err
	}
	*v = updated
	return nil
}

// VisibleTo reports whether a user with the given roles may use this view
func (v *ViewConfig) VisibleTo(userRoles []string) bool {
	if len(v.Roles) == 0 {
		return true
	}
	for _, r := range userRoles {
		if slices.Contains(v.Roles, r) {
			return true
		}
	}
	return false
}

// Resolve picks the configuration for a task of a process: a task specific
// configuration wins over the process level one. Configurations the user may
// not see are skipped. Returns shared.ErrNotFound when nothing applies.
func Resolve(configs []ViewConfig, taskDefinitionKey string, userRoles []string) (*ViewConfig, error) {
	var processLevel *ViewConfig
	for i := range configs {
		c := &configs[i]
		if !c.VisibleTo(userRoles) {
			continue
		}
		if taskDefinitionKey != "" && c.TaskDefinitionKey == taskDefinitionKey {
			return c, nil
		}
		if c.TaskDefinitionKey == "" && processLevel == nil {
			processLevel = c
		}
	}
	if processLevel == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "No view configuration applies")
	}
	return processLevel, nil
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r != "" && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}
