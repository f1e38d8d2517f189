package tasks_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/taskflow/internal/events"
	"github.com/mtlprog/taskflow/internal/tasks"
)

var now = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newTask(t *testing.T) *tasks.Task {
	t.Helper()
	task, err := tasks.New("Write report", "", tasks.PriorityHigh, nil, uuid.New(), now)
	require.NoError(t, err)
	return task
}

// taskIn returns a task already in status, with an empty ledger.
func taskIn(t *testing.T, status tasks.Status) *tasks.Task {
	t.Helper()
	task := newTask(t)
	switch status {
	case tasks.StatusInProgress:
		require.NoError(t, task.Start(now))
	case tasks.StatusDone:
		require.NoError(t, task.Complete(now))
	case tasks.StatusCancelled:
		require.NoError(t, task.Cancel(now))
	}
	task.DrainEvents()
	return task
}

func TestNewRecordsTaskCreated(t *testing.T) {
	due := now.Add(48 * time.Hour)
	for _, p := range []tasks.Priority{tasks.PriorityLow, tasks.PriorityMedium, tasks.PriorityHigh, tasks.PriorityCritical} {
		for _, dueDate := range []*time.Time{nil, &due} {
			owner := uuid.New()
			task, err := tasks.New("Plan sprint", "scope and goals", p, dueDate, owner, now)
			require.NoError(t, err)

			assert.Equal(t, tasks.StatusTodo, task.Status())
			assert.Nil(t, task.CompletedAt())

			pending := task.PendingEvents()
			require.Len(t, pending, 1)
			created, ok := pending[0].(events.TaskCreated)
			require.True(t, ok)
			assert.Equal(t, task.ID(), created.TaskID)
			assert.Equal(t, "Plan sprint", created.Title)
			assert.Equal(t, string(p), created.Priority)
			assert.Equal(t, owner, created.OwnerID)
			assert.Equal(t, now, created.OccurredAt())
		}
	}
}

func TestNewAcceptsDueDateToday(t *testing.T) {
	earlierToday := time.Date(2026, 3, 14, 0, 5, 0, 0, time.UTC)
	_, err := tasks.New("Today", "", tasks.PriorityLow, &earlierToday, uuid.New(), now)
	assert.NoError(t, err)
}

func TestNewRejectsDueDateInPast(t *testing.T) {
	yesterday := now.AddDate(0, 0, -1)
	task, err := tasks.New("Too late", "", tasks.PriorityLow, &yesterday, uuid.New(), now)
	assert.ErrorIs(t, err, tasks.ErrDueDateInPast)
	assert.Nil(t, task)
}

func TestNewRequiresOwner(t *testing.T) {
	_, err := tasks.New("Orphan", "", tasks.PriorityLow, nil, uuid.Nil, now)
	assert.ErrorIs(t, err, tasks.ErrOwnerRequired)
}

func TestStart(t *testing.T) {
	task := taskIn(t, tasks.StatusTodo)
	require.NoError(t, task.Start(now))
	assert.Equal(t, tasks.StatusInProgress, task.Status())

	pending := task.PendingEvents()
	require.Len(t, pending, 1)
	changed, ok := pending[0].(events.TaskStatusChanged)
	require.True(t, ok)
	assert.Equal(t, "Todo", changed.OldStatus)
	assert.Equal(t, "InProgress", changed.NewStatus)

	for _, status := range []tasks.Status{tasks.StatusInProgress, tasks.StatusDone, tasks.StatusCancelled} {
		task := taskIn(t, status)
		assert.ErrorIs(t, task.Start(now), tasks.ErrCannotStart, status)
		assert.Equal(t, status, task.Status())
		assert.Empty(t, task.PendingEvents())
	}
}

func TestComplete(t *testing.T) {
	for _, from := range []tasks.Status{tasks.StatusTodo, tasks.StatusInProgress} {
		task := taskIn(t, from)
		require.NoError(t, task.Complete(now))

		assert.Equal(t, tasks.StatusDone, task.Status())
		require.NotNil(t, task.CompletedAt())
		assert.Equal(t, now, *task.CompletedAt())

		pending := task.PendingEvents()
		require.Len(t, pending, 2)
		assert.Equal(t, events.TypeTaskCompleted, pending[0].Type())
		changed, ok := pending[1].(events.TaskStatusChanged)
		require.True(t, ok)
		assert.Equal(t, string(from), changed.OldStatus)
		assert.Equal(t, "Done", changed.NewStatus)
	}

	for _, from := range []tasks.Status{tasks.StatusDone, tasks.StatusCancelled} {
		task := taskIn(t, from)
		assert.ErrorIs(t, task.Complete(now), tasks.ErrCannotComplete, from)
		assert.Empty(t, task.PendingEvents())
	}
}

func TestCancel(t *testing.T) {
	for _, from := range []tasks.Status{tasks.StatusTodo, tasks.StatusInProgress} {
		task := taskIn(t, from)
		require.NoError(t, task.Cancel(now))
		assert.Equal(t, tasks.StatusCancelled, task.Status())
		assert.Nil(t, task.CompletedAt())

		pending := task.PendingEvents()
		require.Len(t, pending, 1)
		assert.Equal(t, "Cancelled", pending[0].(events.TaskStatusChanged).NewStatus)
	}

	done := taskIn(t, tasks.StatusDone)
	assert.ErrorIs(t, done.Cancel(now), tasks.ErrCannotCancel)
	assert.Empty(t, done.PendingEvents())

	cancelled := taskIn(t, tasks.StatusCancelled)
	assert.ErrorIs(t, cancelled.Cancel(now), tasks.ErrAlreadyCancelled)
	assert.Empty(t, cancelled.PendingEvents())
}

func TestFieldEditsRecordNothing(t *testing.T) {
	task := taskIn(t, tasks.StatusInProgress)
	require.NoError(t, task.Rename("New title"))
	require.NoError(t, task.Describe("details"))
	require.NoError(t, task.Reprioritize(tasks.PriorityCritical))
	due := now.Add(time.Hour)
	require.NoError(t, task.Reschedule(&due, now))

	assert.Empty(t, task.PendingEvents())
	assert.Equal(t, tasks.Title("New title"), task.Title())
	assert.Equal(t, tasks.PriorityCritical, task.Priority())

	past := now.AddDate(0, 0, -2)
	assert.ErrorIs(t, task.Reschedule(&past, now), tasks.ErrDueDateInPast)
	assert.Equal(t, due, *task.DueDate())
}

func TestNewRejectsUncheckedValues(t *testing.T) {
	cases := []struct {
		name        string
		title       tasks.Title
		description tasks.Description
		priority    tasks.Priority
		want        error
	}{
		{"empty title", "", "", tasks.PriorityLow, tasks.ErrTitleEmpty},
		{"blank title", "   ", "", tasks.PriorityLow, tasks.ErrTitleEmpty},
		{"long title", tasks.Title(strings.Repeat("y", tasks.MaxTitleLength+1)), "", tasks.PriorityLow, tasks.ErrTitleTooLong},
		{"long description", "Fine", tasks.Description(strings.Repeat("x", 5000)), tasks.PriorityLow, tasks.ErrDescriptionTooLong},
		{"unknown priority", "Fine", "", tasks.Priority("Urgent"), tasks.ErrInvalidPriority},
		{"zero priority", "Fine", "", "", tasks.ErrInvalidPriority},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task, err := tasks.New(tc.title, tc.description, tc.priority, nil, uuid.New(), now)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, task)
		})
	}
}

func TestFieldEditsRejectUncheckedValues(t *testing.T) {
	task := newTask(t)

	assert.ErrorIs(t, task.Rename(tasks.Title(strings.Repeat("y", 500))), tasks.ErrTitleTooLong)
	assert.ErrorIs(t, task.Rename(""), tasks.ErrTitleEmpty)
	assert.ErrorIs(t, task.Describe(tasks.Description(strings.Repeat("x", tasks.MaxDescriptionLength+1))), tasks.ErrDescriptionTooLong)
	assert.ErrorIs(t, task.Reprioritize("Urgent"), tasks.ErrInvalidPriority)

	assert.Equal(t, tasks.Title("Write report"), task.Title())
	assert.Equal(t, tasks.Description(""), task.Description())
	assert.Equal(t, tasks.PriorityHigh, task.Priority())
	assert.Len(t, task.PendingEvents(), 1)
}

func TestDrainEventsTwice(t *testing.T) {
	task := newTask(t)
	require.NoError(t, task.Complete(now))

	assert.Len(t, task.DrainEvents(), 3)
	assert.Empty(t, task.DrainEvents())
}

func TestSnapshotRoundTripKeepsLedgerEmpty(t *testing.T) {
	task := newTask(t)
	require.NoError(t, task.Complete(now))

	restored := tasks.Rehydrate(task.Snapshot())
	assert.Equal(t, task.Snapshot(), restored.Snapshot())
	assert.Empty(t, restored.PendingEvents())
}
