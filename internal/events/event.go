// Package events defines the closed set of domain events exchanged between
// modules, the per-aggregate ledger that buffers them, and the bus that fans
// them out to subscribers after a successful commit.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies an event variant.
type Type string

const (
	TypeTaskCreated       Type = "task.created"
	TypeTaskStatusChanged Type = "task.status_changed"
	TypeTaskCompleted     Type = "task.completed"
	TypeUserRegistered    Type = "user.registered"
)

// Types lists every event type in the closed set.
func Types() []Type {
	return []Type{
		TypeTaskCreated,
		TypeTaskStatusChanged,
		TypeTaskCompleted,
		TypeUserRegistered,
	}
}

// IsValid checks if the type belongs to the closed set.
func (t Type) IsValid() bool {
	switch t {
	case TypeTaskCreated, TypeTaskStatusChanged, TypeTaskCompleted, TypeUserRegistered:
		return true
	default:
		return false
	}
}

// Event is an immutable fact raised by an aggregate. Payloads carry only
// primitive data so subscribers never hold references to live aggregates.
// The set is closed: only this package can declare variants.
type Event interface {
	Type() Type
	OccurredAt() time.Time
	sealed()
}

// TaskCreated is raised once when a task is constructed.
type TaskCreated struct {
	TaskID   uuid.UUID
	Title    string
	Priority string
	OwnerID  uuid.UUID
	At       time.Time
}

func (TaskCreated) Type() Type              { return TypeTaskCreated }
func (e TaskCreated) OccurredAt() time.Time { return e.At }
func (TaskCreated) sealed()                 {}

// TaskStatusChanged is raised on every accepted status transition.
type TaskStatusChanged struct {
	TaskID    uuid.UUID
	Title     string
	OldStatus string
	NewStatus string
	OwnerID   uuid.UUID
	At        time.Time
}

func (TaskStatusChanged) Type() Type              { return TypeTaskStatusChanged }
func (e TaskStatusChanged) OccurredAt() time.Time { return e.At }
func (TaskStatusChanged) sealed()                 {}

// TaskCompleted is raised when a task reaches Done, before the matching
// TaskStatusChanged.
type TaskCompleted struct {
	TaskID  uuid.UUID
	Title   string
	OwnerID uuid.UUID
	At      time.Time
}

func (TaskCompleted) Type() Type              { return TypeTaskCompleted }
func (e TaskCompleted) OccurredAt() time.Time { return e.At }
func (TaskCompleted) sealed()                 {}

// UserRegistered is raised when a new account is created.
type UserRegistered struct {
	UserID   uuid.UUID
	Email    string
	FullName string
	At       time.Time
}

func (UserRegistered) Type() Type              { return TypeUserRegistered }
func (e UserRegistered) OccurredAt() time.Time { return e.At }
func (UserRegistered) sealed()                 {}
