// Package accounts registers and authenticates users. Registration records
// UserRegistered in the user's ledger like every other aggregate, so the
// welcome reaction only ever sees committed accounts.
package accounts

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mtlprog/taskflow/internal/events"
)

const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Email is a lower-cased, syntactically valid address.
type Email string

// NewEmail validates and normalizes an address.
func NewEmail(raw string) (Email, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmailEmpty
	}
	if !emailPattern.MatchString(trimmed) {
		return "", ErrEmailInvalid
	}
	return Email(strings.ToLower(trimmed)), nil
}

// FullName is a person's first and last name.
type FullName struct {
	First string
	Last  string
}

// NewFullName validates and trims both parts.
func NewFullName(first, last string) (FullName, error) {
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	if first == "" {
		return FullName{}, ErrFirstNameEmpty
	}
	if last == "" {
		return FullName{}, ErrLastNameEmpty
	}
	return FullName{First: first, Last: last}, nil
}

func (n FullName) String() string {
	return n.First + " " + n.Last
}

// CheckPassword enforces the password policy on a plaintext password.
func CheckPassword(raw string) error {
	if raw == "" {
		return ErrPasswordEmpty
	}
	if utf8.RuneCountInString(raw) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if !strings.ContainsFunc(raw, unicode.IsUpper) {
		return ErrPasswordNoUppercase
	}
	if !strings.ContainsFunc(raw, unicode.IsDigit) {
		return ErrPasswordNoDigit
	}
	return nil
}

// User is an account. The password is only ever held as a hash.
type User struct {
	id           uuid.UUID
	email        Email
	passwordHash string
	name         FullName
	active       bool
	createdAt    time.Time

	ledger events.Ledger
}

// Register creates an active user and records UserRegistered.
func Register(email Email, passwordHash string, name FullName, now time.Time) *User {
	u := &User{
		id:           uuid.New(),
		email:        email,
		passwordHash: passwordHash,
		name:         name,
		active:       true,
		createdAt:    now,
	}
	u.ledger.Record(events.UserRegistered{
		UserID:   u.id,
		Email:    string(u.email),
		FullName: u.name.String(),
		At:       now,
	})
	return u
}

// Deactivate disables the account.
func (u *User) Deactivate() error {
	if !u.active {
		return ErrInactive
	}
	u.active = false
	return nil
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) Email() Email         { return u.email }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) Name() FullName       { return u.name }
func (u *User) IsActive() bool       { return u.active }
func (u *User) CreatedAt() time.Time { return u.createdAt }

func (u *User) PendingEvents() []events.Event { return u.ledger.Pending() }
func (u *User) DrainEvents() []events.Event   { return u.ledger.Drain() }

// Snapshot is the persisted shape of a user.
type Snapshot struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	CreatedAt    time.Time
}

// Snapshot captures the user's state for storage.
func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID:           u.id,
		Email:        string(u.email),
		PasswordHash: u.passwordHash,
		FirstName:    u.name.First,
		LastName:     u.name.Last,
		IsActive:     u.active,
		CreatedAt:    u.createdAt,
	}
}

// Rehydrate rebuilds a user from storage.
func Rehydrate(s Snapshot) *User {
	return &User{
		id:           s.ID,
		email:        Email(s.Email),
		passwordHash: s.PasswordHash,
		name:         FullName{First: s.FirstName, Last: s.LastName},
		active:       s.IsActive,
		createdAt:    s.CreatedAt,
	}
}
