// Package notifications keeps per-user notifications and reacts to events
// published by the tasks and accounts modules.
package notifications

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/taskflow/internal/events"
	"github.com/mtlprog/taskflow/internal/kernel"
)

var (
	ErrNotFound          = kernel.NotFound("Notification.NotFound", "The notification was not found.")
	ErrForbidden         = kernel.Forbidden("Notification.Forbidden", "You do not have access to this notification.")
	ErrRecipientRequired = kernel.Validation("Notification.RecipientRequired", "A notification must have a recipient.")
	ErrTitleEmpty        = kernel.Validation("Notification.TitleEmpty", "Notification title cannot be empty.")
	ErrInvalidType       = kernel.Validation("Notification.InvalidType", "Unknown notification type.")
)

// Type categorizes a notification.
type Type string

const (
	TypeWelcome           Type = "Welcome"
	TypeTaskCreated       Type = "TaskCreated"
	TypeTaskCompleted     Type = "TaskCompleted"
	TypeTaskStatusChanged Type = "TaskStatusChanged"
	TypeSystem            Type = "System"
)

// IsValid reports whether t is one of the known notification types.
func (t Type) IsValid() bool {
	switch t {
	case TypeWelcome, TypeTaskCreated, TypeTaskCompleted, TypeTaskStatusChanged, TypeSystem:
		return true
	}
	return false
}

// Notification is a message addressed to one user. readAt is set if and only
// if the notification has been read.
type Notification struct {
	id          uuid.UUID
	recipientID uuid.UUID
	title       string
	message     string
	typ         Type
	read        bool
	createdAt   time.Time
	readAt      *time.Time

	ledger events.Ledger
}

// New creates an unread notification.
func New(recipientID uuid.UUID, title, message string, typ Type, now time.Time) (*Notification, error) {
	if recipientID == uuid.Nil {
		return nil, ErrRecipientRequired
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleEmpty
	}
	if !typ.IsValid() {
		return nil, ErrInvalidType
	}
	return &Notification{
		id:          uuid.New(),
		recipientID: recipientID,
		title:       title,
		message:     message,
		typ:         typ,
		createdAt:   now,
	}, nil
}

// MarkAsRead flags the notification as read and reports whether anything
// changed. Reading twice keeps the first read time.
func (n *Notification) MarkAsRead(now time.Time) bool {
	if n.read {
		return false
	}
	readAt := now
	n.read = true
	n.readAt = &readAt
	return true
}

// IsAddressedTo checks if the notification belongs to the given user.
func (n *Notification) IsAddressedTo(userID uuid.UUID) bool {
	return n.recipientID == userID
}

func (n *Notification) ID() uuid.UUID          { return n.id }
func (n *Notification) RecipientID() uuid.UUID { return n.recipientID }
func (n *Notification) Title() string          { return n.title }
func (n *Notification) Message() string        { return n.message }
func (n *Notification) Type() Type             { return n.typ }
func (n *Notification) IsRead() bool           { return n.read }
func (n *Notification) CreatedAt() time.Time   { return n.createdAt }

func (n *Notification) ReadAt() *time.Time {
	if n.readAt == nil {
		return nil
	}
	t := *n.readAt
	return &t
}

func (n *Notification) PendingEvents() []events.Event { return n.ledger.Pending() }
func (n *Notification) DrainEvents() []events.Event   { return n.ledger.Drain() }

// Snapshot is the persisted shape of a notification.
type Snapshot struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	Title       string
	Message     string
	Type        string
	IsRead      bool
	CreatedAt   time.Time
	ReadAt      *time.Time
}

// Snapshot captures the notification's state for storage.
func (n *Notification) Snapshot() Snapshot {
	return Snapshot{
		ID:          n.id,
		RecipientID: n.recipientID,
		Title:       n.title,
		Message:     n.message,
		Type:        string(n.typ),
		IsRead:      n.read,
		CreatedAt:   n.createdAt,
		ReadAt:      n.ReadAt(),
	}
}

// Rehydrate rebuilds a notification from storage.
func Rehydrate(s Snapshot) *Notification {
	n := &Notification{
		id:          s.ID,
		recipientID: s.RecipientID,
		title:       s.Title,
		message:     s.Message,
		typ:         Type(s.Type),
		read:        s.IsRead,
		createdAt:   s.CreatedAt,
	}
	if s.ReadAt != nil {
		t := *s.ReadAt
		n.readAt = &t
	}
	return n
}
