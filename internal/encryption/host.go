package encryption

import "context"

// EventKind tags a message from a running operation.
type EventKind int

const (
	// EventProgress carries a fraction in [0, 1].
	EventProgress EventKind = iota

	// EventDone is the terminal success message.
	EventDone

	// EventFailed is the terminal failure message; Err carries the cause.
	EventFailed
)

// Event is one message from the background worker. Progress values are
// non-decreasing within an operation; exactly one terminal event (Done or
// Failed) is sent, always last.
type Event struct {
	Kind     EventKind
	Progress float64
	Err      error
}

// Job is a unit of work run by Start. It reports through the supplied
// progress callback and must return promptly once ctx is done.
type Job func(ctx context.Context, progress func(float64)) error

// Operation is a handle to one background encrypt or decrypt run. The caller
// and the worker share nothing but the event channel.
type Operation struct {
	events chan Event
	cancel context.CancelFunc
}

// Start runs job on its own goroutine and returns a handle for consuming its
// event stream. The channel is closed after the terminal event. After Cancel,
// the worker stops emitting and the channel closes once it has torn down; an
// event already buffered when Cancel is called may still be received, but no
// event reflects work performed after cancellation.
func Start(ctx context.Context, job Job) *Operation {
	ctx, cancel := context.WithCancel(ctx)

	op := &Operation{
		events: make(chan Event, 1),
		cancel: cancel,
	}

	go func() {
		defer close(op.events)
		defer cancel()

		last := 0.0
		emit := func(fraction float64) {
			if fraction < last {
				fraction = last
			}

			last = fraction

			select {
			case op.events <- Event{Kind: EventProgress, Progress: fraction}:
			case <-ctx.Done():
			}
		}

		err := job(ctx, emit)

		if ctx.Err() != nil {
			// Abandoned: the caller gets no terminal event.
			return
		}

		terminal := Event{Kind: EventDone, Progress: 1}
		if err != nil {
			terminal = Event{Kind: EventFailed, Err: err}
		}

		select {
		case op.events <- terminal:
		case <-ctx.Done():
		}
	}()

	return op
}

// Events returns the operation's message stream.
func (op *Operation) Events() <-chan Event {
	return op.events
}

// Cancel abandons the operation. The worker is torn down and its output must
// be considered invalid. The event channel may still hold one buffered event
// from before the cancellation.
func (op *Operation) Cancel() {
	op.cancel()
}

// Wait drains the event stream and returns the terminal outcome: nil on
// success, the failure cause, or ErrCancelled when the operation was
// abandoned before completing.
func (op *Operation) Wait() error {
	var (
		terminal bool
		err      error
	)

	for event := range op.events {
		switch event.Kind {
		case EventDone:
			terminal = true
		case EventFailed:
			terminal = true
			err = event.Err
		case EventProgress:
		}
	}

	if !terminal {
		return ErrCancelled
	}

	return err
}
