package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrUnknownEventType is returned when registering for a type outside the closed set.
	ErrUnknownEventType = errors.New("unknown event type")
	// ErrBusFrozen is returned when registering after start-up has finished.
	ErrBusFrozen = errors.New("event bus is frozen")
)

// HandlerFunc reacts to one event. Handlers must not block on external
// network collaborators.
type HandlerFunc func(ctx context.Context, e Event) error

type subscription struct {
	name string
	fn   HandlerFunc
}

// Bus maps every event type to an ordered list of handlers. It is populated
// once at start-up, frozen, and only read afterwards, so concurrent Publish
// calls need no locking.
type Bus struct {
	handlers map[Type][]subscription
	frozen   bool
	logger   *slog.Logger
}

// NewBus creates a Bus with an empty handler list for every known type.
func NewBus(logger *slog.Logger) *Bus {
	handlers := make(map[Type][]subscription, len(Types()))
	for _, t := range Types() {
		handlers[t] = nil
	}
	return &Bus{
		handlers: handlers,
		logger:   logger.With("component", "event_bus"),
	}
}

// Register appends a named handler for t. Handlers for the same type run in
// registration order.
func (b *Bus) Register(t Type, name string, fn HandlerFunc) error {
	if b.frozen {
		return fmt.Errorf("register %s for %s: %w", name, t, ErrBusFrozen)
	}
	if !t.IsValid() {
		return fmt.Errorf("register %s for %q: %w", name, t, ErrUnknownEventType)
	}
	if fn == nil {
		return fmt.Errorf("register %s for %s: nil handler", name, t)
	}

	b.handlers[t] = append(b.handlers[t], subscription{name: name, fn: fn})
	b.logger.Debug("registered event handler",
		"event_type", t,
		"handler", name,
		"handler_count", len(b.handlers[t]))
	return nil
}

// Subscribe registers a handler typed to a single event variant.
func Subscribe[E Event](b *Bus, name string, fn func(ctx context.Context, e E) error) error {
	var zero E
	return b.Register(zero.Type(), name, func(ctx context.Context, e Event) error {
		typed, ok := e.(E)
		if !ok {
			return fmt.Errorf("handler %s: unexpected event %T", name, e)
		}
		return fn(ctx, typed)
	})
}

// Freeze ends start-up. Later Register calls fail with ErrBusFrozen.
func (b *Bus) Freeze() {
	b.frozen = true
}

// Handlers returns the names of the handlers registered for t, in order.
func (b *Bus) Handlers(t Type) []string {
	subs := b.handlers[t]
	names := make([]string, 0, len(subs))
	for _, s := range subs {
		names = append(names, s.name)
	}
	return names
}

// Publish delivers e to every handler registered for its type, in order.
// A failing or panicking handler does not stop its siblings. Once ctx is done
// the remaining handlers are skipped. Failures and skips are reported in a
// *PublishError; an event nobody subscribed to is a silent no-op.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	subs := b.handlers[e.Type()]
	if len(subs) == 0 {
		b.logger.Debug("no handlers registered for event", "event_type", e.Type())
		return nil
	}

	var failures []HandlerFailure
	var skipped []string
	for i, s := range subs {
		if err := ctx.Err(); err != nil {
			for _, rest := range subs[i:] {
				skipped = append(skipped, rest.name)
			}
			b.logger.Warn("event fan-out interrupted",
				"event_type", e.Type(),
				"skipped", len(skipped),
				"error", err)
			break
		}

		if err := b.invoke(ctx, s, e); err != nil {
			b.logger.Error("handler failed to process event",
				"error", err,
				"handler", s.name,
				"event_type", e.Type())
			failures = append(failures, HandlerFailure{Handler: s.name, Err: err})
		}
	}

	if len(failures) == 0 && len(skipped) == 0 {
		return nil
	}
	return &PublishError{EventType: e.Type(), Failures: failures, Skipped: skipped}
}

// PublishAll publishes events in order and joins every resulting error.
func (b *Bus) PublishAll(ctx context.Context, evs []Event) error {
	var errs []error
	for _, e := range evs {
		if err := b.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) invoke(ctx context.Context, s subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return s.fn(ctx, e)
}
