package models

import (
	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/milestone"
)

// MilestoneSetModel is the persistence model for milestone sets
type MilestoneSetModel struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key"`
	Title string    `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (MilestoneSetModel) TableName() string {
	return "milestone_sets"
}

// ToDomain converts the model to a milestone set
func (m *MilestoneSetModel) ToDomain() *milestone.MilestoneSet {
	return &milestone.MilestoneSet{ID: m.ID, Title: m.Title}
}

// MilestoneModel is the persistence model for milestones
type MilestoneModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key"`
	Title               string    `gorm:"type:varchar(255);not null"`
	ProcessDefinitionID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_milestone_task"`
	TaskDefinitionKey   string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_milestone_task"`
	Color               string    `gorm:"type:varchar(7);not null"`
	MilestoneSetID      uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (MilestoneModel) TableName() string {
	return "milestones"
}

// ToDomain converts the model to a milestone
func (m *MilestoneModel) ToDomain() *milestone.Milestone {
	return &milestone.Milestone{
		ID:                  m.ID,
		Title:               m.Title,
		ProcessDefinitionID: m.ProcessDefinitionID,
		TaskDefinitionKey:   m.TaskDefinitionKey,
		Color:               m.Color,
		MilestoneSetID:      m.MilestoneSetID,
	}
}

// MilestoneModelFromDomain converts a milestone to its model
func MilestoneModelFromDomain(m *milestone.Milestone) *MilestoneModel {
	return &MilestoneModel{
		ID:                  m.ID,
		Title:               m.Title,
		ProcessDefinitionID: m.ProcessDefinitionID,
		TaskDefinitionKey:   m.TaskDefinitionKey,
		Color:               m.Color,
		MilestoneSetID:      m.MilestoneSetID,
	}
}

// MilestoneSetModelFromDomain converts a milestone set to its model
func MilestoneSetModelFromDomain(s *milestone.MilestoneSet) *MilestoneSetModel {
	return &MilestoneSetModel{ID: s.ID, Title: s.Title}
}
