package kernel

import (
	"github.com/google/uuid"

	"github.com/mtlprog/taskflow/internal/events"
)

// Aggregate is a consistency boundary with an identity and a ledger of
// events raised by its business methods but not yet published.
type Aggregate interface {
	ID() uuid.UUID
	// PendingEvents returns a read-only view of the ledger.
	PendingEvents() []events.Event
	// DrainEvents returns the ledger contents and empties it.
	DrainEvents() []events.Event
}

// SameIdentity reports whether a and b denote the same aggregate. Attribute
// values are ignored.
func SameIdentity(a, b Aggregate) bool {
	if a == nil || b == nil {
		return false
	}
	return a.ID() == b.ID()
}
