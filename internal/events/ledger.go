package events

// Ledger is the ordered buffer of events an aggregate has raised since it
// was last drained. The zero value is ready to use. Aggregates keep it in an
// unexported field so only their own business methods can record into it.
type Ledger struct {
	pending []Event
}

// Record appends e in raise order.
func (l *Ledger) Record(e Event) {
	l.pending = append(l.pending, e)
}

// Pending returns a copy of the buffered events.
func (l *Ledger) Pending() []Event {
	if len(l.pending) == 0 {
		return nil
	}
	out := make([]Event, len(l.pending))
	copy(out, l.pending)
	return out
}

// Drain returns the buffered events and empties the ledger. A second drain
// with no intervening Record returns nothing.
func (l *Ledger) Drain() []Event {
	out := l.pending
	l.pending = nil
	return out
}

// Len returns the number of buffered events.
func (l *Ledger) Len() int {
	return len(l.pending)
}
