package milestone

import (
	"context"

	"github.com/google/uuid"
)

// MilestoneRepository persists milestones
type MilestoneRepository interface {
	// Save inserts or updates by id; a second milestone for the same process
	// definition and task returns ALREADY_EXISTS
	Save(ctx context.Context, m *Milestone) error
	FindByID(ctx context.Context, id uuid.UUID) (*Milestone, error)
	FindAll(ctx context.Context) ([]Milestone, error)
	FindByProcessAndTask(ctx context.Context, processDefinitionID, taskDefinitionKey string) (*Milestone, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MilestoneSetRepository persists milestone sets
type MilestoneSetRepository interface {
	Save(ctx context.Context, set *MilestoneSet) error
	FindByID(ctx context.Context, id uuid.UUID) (*MilestoneSet, error)
	FindAll(ctx context.Context) ([]MilestoneSet, error)
	// Delete removes the set together with its milestones
	Delete(ctx context.Context, id uuid.UUID) error
}
