package tasks

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// Status is a position in the task lifecycle.
type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "InProgress"
	StatusDone       Status = "Done"
	StatusCancelled  Status = "Cancelled"
)

// IsTerminal returns true if no transition leaves the status.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// ParseStatus converts client input into a Status, ignoring case.
func ParseStatus(raw string) (Status, error) {
	for _, s := range []Status{StatusTodo, StatusInProgress, StatusDone, StatusCancelled} {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", ErrInvalidStatus
}

// Priority is one of four fixed levels.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// IsValid reports whether p is one of the four levels.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ParsePriority converts client input into a Priority, ignoring case. Empty
// input selects Medium.
func ParsePriority(raw string) (Priority, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PriorityMedium, nil
	}
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical} {
		if strings.EqualFold(raw, string(p)) {
			return p, nil
		}
	}
	return "", ErrInvalidPriority
}

// Title is a trimmed, non-empty task title.
type Title string

// NewTitle validates and normalizes a title.
func NewTitle(raw string) (Title, error) {
	title := Title(strings.TrimSpace(raw))
	if err := title.Validate(); err != nil {
		return "", err
	}
	return title, nil
}

// Validate checks that t is non-blank and within MaxTitleLength runes.
func (t Title) Validate() error {
	if strings.TrimSpace(string(t)) == "" {
		return ErrTitleEmpty
	}
	if utf8.RuneCountInString(string(t)) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// Description is a trimmed, possibly empty task description.
type Description string

// NewDescription validates and normalizes a description.
func NewDescription(raw string) (Description, error) {
	description := Description(strings.TrimSpace(raw))
	if err := description.Validate(); err != nil {
		return "", err
	}
	return description, nil
}

// Validate checks that d is within MaxDescriptionLength runes.
func (d Description) Validate() error {
	if utf8.RuneCountInString(string(d)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// checkDueDate rejects due dates on a calendar day (UTC) before today.
func checkDueDate(due *time.Time, now time.Time) error {
	if due == nil {
		return nil
	}
	if day(*due).Before(day(now)) {
		return ErrDueDateInPast
	}
	return nil
}

func day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
