// Package tasks owns the task aggregate and its lifecycle, the Postgres
// persistence for tasks and their activity log, and the commands and queries
// the rest of the application calls.
package tasks

import (
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/taskflow/internal/events"
)

// Task is the aggregate whose lifecycle is
//
//	Todo -> InProgress -> Done
//	  |        |
//	  +--------+-> Cancelled
//
// with Todo -> Done also allowed. Done and Cancelled are terminal. Every
// accepted transition records events in the ledger; rejected ones record
// nothing and leave the task unchanged.
type Task struct {
	id          uuid.UUID
	title       Title
	description Description
	priority    Priority
	status      Status
	dueDate     *time.Time
	ownerID     uuid.UUID
	createdAt   time.Time
	completedAt *time.Time
	version     int

	ledger events.Ledger
}

// New creates a task in Todo and records TaskCreated. Every field is checked
// and the first violation is returned with nothing recorded.
func New(title Title, description Description, priority Priority, dueDate *time.Time, ownerID uuid.UUID, now time.Time) (*Task, error) {
	if err := title.Validate(); err != nil {
		return nil, err
	}
	if err := description.Validate(); err != nil {
		return nil, err
	}
	if !priority.IsValid() {
		return nil, ErrInvalidPriority
	}
	if ownerID == uuid.Nil {
		return nil, ErrOwnerRequired
	}
	if err := checkDueDate(dueDate, now); err != nil {
		return nil, err
	}

	t := &Task{
		id:          uuid.New(),
		title:       title,
		description: description,
		priority:    priority,
		status:      StatusTodo,
		dueDate:     copyTime(dueDate),
		ownerID:     ownerID,
		createdAt:   now,
		version:     1,
	}
	t.ledger.Record(events.TaskCreated{
		TaskID:   t.id,
		Title:    string(t.title),
		Priority: string(t.priority),
		OwnerID:  t.ownerID,
		At:       now,
	})
	return t, nil
}

// Start moves a Todo task to InProgress.
func (t *Task) Start(now time.Time) error {
	if t.status != StatusTodo {
		return ErrCannotStart
	}
	t.changeStatus(StatusInProgress, now)
	return nil
}

// Complete moves a Todo or InProgress task to Done and stamps the completion
// time. TaskCompleted is recorded before TaskStatusChanged.
func (t *Task) Complete(now time.Time) error {
	if t.status != StatusTodo && t.status != StatusInProgress {
		return ErrCannotComplete
	}
	completed := now
	t.completedAt = &completed
	t.ledger.Record(events.TaskCompleted{
		TaskID:  t.id,
		Title:   string(t.title),
		OwnerID: t.ownerID,
		At:      now,
	})
	t.changeStatus(StatusDone, now)
	return nil
}

// Cancel moves a Todo or InProgress task to Cancelled. Cancelling twice is
// reported with ErrAlreadyCancelled rather than silently accepted.
func (t *Task) Cancel(now time.Time) error {
	switch t.status {
	case StatusDone:
		return ErrCannotCancel
	case StatusCancelled:
		return ErrAlreadyCancelled
	}
	t.changeStatus(StatusCancelled, now)
	return nil
}

func (t *Task) changeStatus(next Status, now time.Time) {
	old := t.status
	t.status = next
	t.ledger.Record(events.TaskStatusChanged{
		TaskID:    t.id,
		Title:     string(t.title),
		OldStatus: string(old),
		NewStatus: string(next),
		OwnerID:   t.ownerID,
		At:        now,
	})
}

// Rename replaces the title. Field edits record no events, and a rejected
// edit leaves the task unchanged.
func (t *Task) Rename(title Title) error {
	if err := title.Validate(); err != nil {
		return err
	}
	t.title = title
	return nil
}

// Describe replaces the description.
func (t *Task) Describe(description Description) error {
	if err := description.Validate(); err != nil {
		return err
	}
	t.description = description
	return nil
}

// Reprioritize replaces the priority.
func (t *Task) Reprioritize(priority Priority) error {
	if !priority.IsValid() {
		return ErrInvalidPriority
	}
	t.priority = priority
	return nil
}

// Reschedule replaces the due date; nil clears it. A date before today is
// rejected and the task keeps its previous due date.
func (t *Task) Reschedule(dueDate *time.Time, now time.Time) error {
	if err := checkDueDate(dueDate, now); err != nil {
		return err
	}
	t.dueDate = copyTime(dueDate)
	return nil
}

// IsOwnedBy checks if the task belongs to the given user.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	return t.ownerID == userID
}

func (t *Task) ID() uuid.UUID            { return t.id }
func (t *Task) Title() Title             { return t.title }
func (t *Task) Description() Description { return t.description }
func (t *Task) Priority() Priority       { return t.priority }
func (t *Task) Status() Status           { return t.status }
func (t *Task) DueDate() *time.Time      { return copyTime(t.dueDate) }
func (t *Task) OwnerID() uuid.UUID       { return t.ownerID }
func (t *Task) CreatedAt() time.Time     { return t.createdAt }
func (t *Task) CompletedAt() *time.Time  { return copyTime(t.completedAt) }
func (t *Task) Version() int             { return t.version }

// PendingEvents returns a copy of the events not yet published.
func (t *Task) PendingEvents() []events.Event { return t.ledger.Pending() }

// DrainEvents hands the ledger to the unit of work and empties it.
func (t *Task) DrainEvents() []events.Event { return t.ledger.Drain() }

// Snapshot is the persisted shape of a task.
type Snapshot struct {
	ID          uuid.UUID
	Title       string
	Description string
	Priority    string
	Status      string
	DueDate     *time.Time
	OwnerID     uuid.UUID
	CreatedAt   time.Time
	CompletedAt *time.Time
	Version     int
}

// Snapshot captures the task's state for storage.
func (t *Task) Snapshot() Snapshot {
	return Snapshot{
		ID:          t.id,
		Title:       string(t.title),
		Description: string(t.description),
		Priority:    string(t.priority),
		Status:      string(t.status),
		DueDate:     copyTime(t.dueDate),
		OwnerID:     t.ownerID,
		CreatedAt:   t.createdAt,
		CompletedAt: copyTime(t.completedAt),
		Version:     t.version,
	}
}

// Rehydrate rebuilds a task from storage with an empty ledger. Loading a
// task is not a business fact, so nothing is recorded.
func Rehydrate(s Snapshot) *Task {
	return &Task{
		id:          s.ID,
		title:       Title(s.Title),
		description: Description(s.Description),
		priority:    Priority(s.Priority),
		status:      Status(s.Status),
		dueDate:     copyTime(s.DueDate),
		ownerID:     s.OwnerID,
		createdAt:   s.CreatedAt,
		completedAt: copyTime(s.CompletedAt),
		version:     s.Version,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
