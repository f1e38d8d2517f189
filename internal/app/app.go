// Package app assembles the modules around a single event bus. The bus is
// built and populated here once, frozen, and handed to every module's
// dispatcher.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/taskflow/internal/accounts"
	"github.com/mtlprog/taskflow/internal/database"
	"github.com/mtlprog/taskflow/internal/events"
	"github.com/mtlprog/taskflow/internal/notifications"
	"github.com/mtlprog/taskflow/internal/tasks"
	"github.com/mtlprog/taskflow/internal/unitofwork"
)

// TokenIssuerName is the issuer claim of access tokens.
const TokenIssuerName = "taskflow"

// Config holds the settings the modules need beyond storage.
type Config struct {
	JWTSecret     string
	TokenLifetime time.Duration
	BcryptCost    int
}

// Stores is the persistence each module works against.
type Stores struct {
	Tx            unitofwork.Transactor
	Tasks         tasks.Repository
	Activity      tasks.ActivityRepository
	Notifications notifications.Repository
	Users         accounts.Repository
}

// App exposes the module services to the transport layer.
type App struct {
	Bus           *events.Bus
	Tasks         *tasks.Service
	Notifications *notifications.Service
	Accounts      *accounts.Service
}

// New wires the modules and registers every cross-module reaction.
func New(stores Stores, hasher accounts.PasswordHasher, tokens accounts.TokenIssuer, logger *slog.Logger) (*App, error) {
	bus := events.NewBus(logger)

	a := &App{
		Bus:           bus,
		Tasks:         tasks.NewService(stores.Tx, bus, stores.Tasks, stores.Activity, logger),
		Notifications: notifications.NewService(stores.Tx, bus, stores.Notifications, logger),
		Accounts:      accounts.NewService(stores.Tx, bus, stores.Users, hasher, tokens, logger),
	}

	subscribers := []interface {
		Subscribe(bus *events.Bus) error
	}{
		tasks.NewActivityRecorder(stores.Tx, bus, stores.Activity, logger),
		notifications.NewReactions(a.Notifications),
		accounts.NewRegistrationLog(logger),
	}
	for _, sub := range subscribers {
		if err := sub.Subscribe(bus); err != nil {
			return nil, fmt.Errorf("subscribe %T: %w", sub, err)
		}
	}
	bus.Freeze()

	for _, t := range events.Types() {
		logger.Debug("event subscriptions", "event_type", t, "handlers", bus.Handlers(t))
	}

	return a, nil
}

// NewPostgres wires the modules against Postgres.
func NewPostgres(db *database.DB, cfg Config, logger *slog.Logger) (*App, error) {
	tokens, err := accounts.NewJWTIssuer(cfg.JWTSecret, TokenIssuerName, cfg.TokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("create token issuer: %w", err)
	}

	pool := db.Pool()
	return New(Stores{
		Tx:            db,
		Tasks:         tasks.NewPostgresRepository(pool),
		Activity:      tasks.NewPostgresActivityRepository(pool),
		Notifications: notifications.NewPostgresRepository(pool),
		Users:         accounts.NewPostgresRepository(pool),
	}, accounts.NewBcryptHasher(cfg.BcryptCost), tokens, logger)
}
