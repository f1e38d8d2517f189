// Package unitofwork implements the transactional dispatcher each module uses
// for its commands: stage writes, commit them atomically, then drain the
// tracked aggregates and publish their events in raise order.
package unitofwork

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/taskflow/internal/events"
	"github.com/mtlprog/taskflow/internal/kernel"
)

// ErrCommitted is returned when a unit of work is reused after Commit.
var ErrCommitted = errors.New("unit of work already committed")

// TxFn is one persistence step executed inside the commit transaction.
type TxFn = func(ctx context.Context, tx pgx.Tx) error

// Transactor runs fn inside a single transaction, committing when fn returns
// nil and rolling back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn TxFn) error
}

// Publisher delivers drained events to subscribers.
type Publisher interface {
	PublishAll(ctx context.Context, evs []events.Event) error
}

// UnitOfWork is created per command and used once.
type UnitOfWork struct {
	tx        Transactor
	publisher Publisher
	logger    *slog.Logger

	steps     []TxFn
	tracked   []kernel.Aggregate
	committed bool
}

// New creates a unit of work bound to a module's transactor and the shared bus.
func New(tx Transactor, publisher Publisher, logger *slog.Logger) *UnitOfWork {
	return &UnitOfWork{
		tx:        tx,
		publisher: publisher,
		logger:    logger,
	}
}

// Stage schedules fn for the commit transaction and tracks agg so its events
// are collected after the commit succeeds. agg may be nil for writes that do
// not belong to an aggregate. Aggregates are tracked once per identity: a
// second value with an already tracked ID is not drained.
func (u *UnitOfWork) Stage(agg kernel.Aggregate, fn TxFn) {
	u.steps = append(u.steps, fn)
	if agg == nil {
		return
	}
	if slices.ContainsFunc(u.tracked, func(t kernel.Aggregate) bool {
		return kernel.SameIdentity(t, agg)
	}) {
		return
	}
	u.tracked = append(u.tracked, agg)
}

// Commit persists every staged step in one transaction. If the context is
// already done, or the transaction fails, it returns the error with nothing
// persisted, and tracked aggregates keep their events. After a successful
// commit it drains tracked aggregates in staging order and publishes the
// concatenated events. Fan-out ignores cancellation of ctx but honours its
// deadline. A fan-out failure is returned as an error for which
// events.IsPublishFailure reports true; the state change itself is durable.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.committed {
		return ErrCommitted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.committed = true

	if len(u.steps) > 0 {
		err := u.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
			for _, step := range u.steps {
				if err := step(ctx, tx); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	var collected []events.Event
	for _, agg := range u.tracked {
		collected = append(collected, agg.DrainEvents()...)
	}
	if len(collected) == 0 {
		return nil
	}

	fanCtx, cancel := detach(ctx)
	defer cancel()

	if err := u.publisher.PublishAll(fanCtx, collected); err != nil {
		u.logger.Warn("state committed but event fan-out failed",
			"events", len(collected),
			"error", err)
		return err
	}
	return nil
}

// detach keeps ctx values and deadline but not its cancellation, so a caller
// that goes away mid-request does not cut fan-out short while a deadline still
// bounds chained dispatch cycles.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return base, func() {}
}
