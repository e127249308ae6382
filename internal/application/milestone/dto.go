package milestone

import (
	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/milestone"
)

// SaveMilestoneRequest creates a milestone, or updates it when ID is set
type SaveMilestoneRequest struct {
	ID                  *uuid.UUID `json:"id"`
	Title               string     `json:"title" binding:"required,max=255"`
	ProcessDefinitionID string     `json:"process_definition_id" binding:"required"`
	TaskDefinitionKey   string     `json:"task_definition_key" binding:"required"`
	Color               string     `json:"color" binding:"required,hexcolor"`
	MilestoneSetID      uuid.UUID  `json:"milestone_set_id" binding:"required"`
}

// SaveMilestoneSetRequest creates a set, or renames it when ID is set
type SaveMilestoneSetRequest struct {
	ID    *uuid.UUID `json:"id"`
	Title string     `json:"title" binding:"required,max=255"`
}

// MilestoneResponse is the API view of a milestone
type MilestoneResponse struct {
	ID                  uuid.UUID `json:"id"`
	Title               string    `json:"title"`
	ProcessDefinitionID string    `json:"process_definition_id"`
	TaskDefinitionKey   string    `json:"task_definition_key"`
	Color               string    `json:"color"`
	MilestoneSetID      uuid.UUID `json:"milestone_set_id"`
}

// ToMilestoneResponse converts a milestone
func ToMilestoneResponse(m *milestone.Milestone) MilestoneResponse {
	return MilestoneResponse{
		ID:                  m.ID,
		Title:               m.Title,
		ProcessDefinitionID: m.ProcessDefinitionID,
		TaskDefinitionKey:   m.TaskDefinitionKey,
		Color:               m.Color,
		MilestoneSetID:      m.MilestoneSetID,
	}
}

// MilestoneSetResponse is the API view of a milestone set
type MilestoneSetResponse struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}
