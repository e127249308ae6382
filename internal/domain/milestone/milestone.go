package milestone

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// MilestoneSet groups milestones shown together on a case
type MilestoneSet struct {
	ID    uuid.UUID
	Title string
}

// NewMilestoneSet creates a set. A nil id generates a new one.
func NewMilestoneSet(id uuid.UUID, title string) (*MilestoneSet, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Milestone set title cannot be empty")
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &MilestoneSet{ID: id, Title: title}, nil
}

// Milestone marks reaching a task of a process definition
type Milestone struct {
	ID                  uuid.UUID
	Title               string
	ProcessDefinitionID string
	TaskDefinitionKey   string
	Color               string
	MilestoneSetID      uuid.UUID
}

// NewMilestone validates and creates a milestone. A nil id generates a new one.
func NewMilestone(id uuid.UUID, title, processDefinitionID, taskDefinitionKey, color string, setID uuid.UUID) (*Milestone, error) {
	m := &Milestone{
		ID:                  id,
		Title:               strings.TrimSpace(title),
		ProcessDefinitionID: strings.TrimSpace(processDefinitionID),
		TaskDefinitionKey:   strings.TrimSpace(taskDefinitionKey),
		Color:               strings.ToUpper(strings.TrimSpace(color)),
		MilestoneSetID:      setID,
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the milestone fields
func (m *Milestone) Validate() error {
	switch {
	case m.Title == "":
		return shared.NewDomainError("INVALID_INPUT", "Milestone title cannot be empty")
	case m.ProcessDefinitionID == "":
		return shared.NewDomainError("INVALID_INPUT", "Milestone needs a process definition id")
	case m.TaskDefinitionKey == "":
		return shared.NewDomainError("INVALID_INPUT", "Milestone needs a task definition key")
	case !colorPattern.MatchString(m.Color):
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Milestone color %q is not a #rrggbb value", m.Color))
	case m.MilestoneSetID == uuid.Nil:
		return shared.NewDomainError("INVALID_INPUT", "Milestone needs a milestone set")
	}
	return nil
}
