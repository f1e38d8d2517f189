package accounts

import (
	"context"
	"log/slog"

	"github.com/mtlprog/taskflow/internal/events"
)

// RegistrationLog writes an audit line for every new account.
type RegistrationLog struct {
	logger *slog.Logger
}

// NewRegistrationLog creates a new RegistrationLog.
func NewRegistrationLog(logger *slog.Logger) *RegistrationLog {
	return &RegistrationLog{logger: logger.With("component", "registration_log")}
}

// Subscribe registers the log on the bus.
func (l *RegistrationLog) Subscribe(bus *events.Bus) error {
	return events.Subscribe(bus, "accounts.registration_log", l.OnUserRegistered)
}

// OnUserRegistered logs the registration.
func (l *RegistrationLog) OnUserRegistered(_ context.Context, e events.UserRegistered) error {
	l.logger.Info("new user registered",
		"user_id", e.UserID,
		"email", e.Email,
		"registered_at", e.At)
	return nil
}
