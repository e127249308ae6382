package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("u1", "jane@example.com")
	assert.True(t, s.NotifyOnAssignment())
	assert.False(t, s.NotifyTasksOn(time.Monday))

	assert.False(t, DefaultSettings("u2", "").NotifyOnAssignment())
}

func TestEmailNotificationSettings_Update(t *testing.T) {
	s := DefaultSettings("u1", "")

	err := s.Update("not-an-address", false, false, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	err = s.Update("", true, false, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	err = s.Update("jane@example.com", true, false, []time.Weekday{time.Friday, time.Monday, time.Friday})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, s.Days)
	assert.True(t, s.NotifyTasksOn(time.Monday))
	assert.False(t, s.NotifyTasksOn(time.Tuesday))
	assert.False(t, s.NotifyOnAssignment())

	err = s.Update("jane@example.com", true, true, []time.Weekday{7})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
