package milestone

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

func TestNewMilestoneSet(t *testing.T) {
	set, err := NewMilestoneSet(uuid.Nil, " Intake ")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, set.ID)
	assert.Equal(t, "Intake", set.Title)

	id := uuid.New()
	set, err = NewMilestoneSet(id, "Intake")
	require.NoError(t, err)
	assert.Equal(t, id, set.ID)

	_, err = NewMilestoneSet(uuid.Nil, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNewMilestone(t *testing.T) {
	setID := uuid.New()

	m, err := NewMilestone(uuid.Nil, "Received", "loan:1:abc", "receive", "#a1b2c3", setID)
	require.NoError(t, err)
	assert.Equal(t, "#A1B2C3", m.Color)
	assert.NotEqual(t, uuid.Nil, m.ID)

	tests := []struct {
		name, title, process, task, color string
		set                               uuid.UUID
	}{
		{"empty title", "", "loan:1", "receive", "#000000", setID},
		{"empty process", "Received", "", "receive", "#000000", setID},
		{"empty task", "Received", "loan:1", "", "#000000", setID},
		{"named color", "Received", "loan:1", "receive", "red", setID},
		{"short hex", "Received", "loan:1", "receive", "#fff", setID},
		{"no set", "Received", "loan:1", "receive", "#000000", uuid.Nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMilestone(uuid.Nil, tt.title, tt.process, tt.task, tt.color, tt.set)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}
