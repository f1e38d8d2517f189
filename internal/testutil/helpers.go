package testutil

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mtlprog/taskflow/internal/events"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewBus returns an unfrozen bus with a discarding logger.
func NewBus() *events.Bus {
	return events.NewBus(DiscardLogger())
}

// Recorder collects every event published on a bus it is attached to.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

// Attach registers the recorder for every event type on bus.
func (r *Recorder) Attach(bus *events.Bus) error {
	for _, t := range events.Types() {
		if err := bus.Register(t, "testutil.recorder", r.handle); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns everything recorded so far.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the types of everything recorded so far, in order.
func (r *Recorder) Types() []events.Type {
	evs := r.Events()
	out := make([]events.Type, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Type())
	}
	return out
}
