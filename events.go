package oairouter

import (
	"context"
	"errors"
)

// ErrNoSource is returned by Wait when no document source is configured, in
// which case the router never boots and never signals.
var ErrNoSource = errors.New("oairouter: no api document source configured")

// EventType distinguishes the two lifecycle signals.
type EventType string

const (
	// EventReady fires once every route and explorer endpoint is mounted.
	EventReady EventType = "ready"
	// EventError fires when any boot step fails. Err carries the cause.
	EventError EventType = "error"
)

// Event is a lifecycle signal. Exactly one is delivered per boot.
type Event struct {
	Type EventType
	Err  error
}

// Events delivers the boot outcome. The channel receives one Event and is
// then closed. It never receives anything when no source is configured.
func (r *Router) Events() <-chan Event {
	return r.events
}

// Done is closed when the boot pipeline has finished, either way.
func (r *Router) Done() <-chan struct{} {
	return r.done
}

// Err returns the boot failure after Done is closed, nil otherwise.
func (r *Router) Err() error {
	select {
	case <-r.done:
		return r.bootErr
	default:
		return nil
	}
}

// Ready reports whether boot completed successfully.
func (r *Router) Ready() bool {
	select {
	case <-r.done:
		return r.bootErr == nil
	default:
		return false
	}
}

// Wait blocks until boot finishes or ctx is done and returns the boot error.
func (r *Router) Wait(ctx context.Context) error {
	if r.source == nil {
		return ErrNoSource
	}
	select {
	case <-r.done:
		return r.bootErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Router) signal(err error) {
	r.bootErr = err
	close(r.done)
	if err != nil {
		r.events <- Event{Type: EventError, Err: err}
	} else {
		r.events <- Event{Type: EventReady}
	}
	close(r.events)
}
