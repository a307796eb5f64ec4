package probe

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrBooting is returned by boot probes while the router is still booting.
var ErrBooting = errors.New("oai router is still booting")

// Func represents a health check that returns an error when the resource is unavailable.
type Func func(ctx context.Context) error

// PingFunc represents a health check that returns an error when the resource is unavailable.
type PingFunc func(ctx context.Context) error

// NewPingProbe wraps a PingFunc with standardised error handling suitable for info handler probes.
func NewPingProbe(name string, fn PingFunc) Func {
	return func(ctx context.Context) error {
		if fn == nil {
			return nilComponentError(name, "ping function")
		}
		ctx = contextOrBackground(ctx)

		if err := fn(ctx); err != nil {
			return fmt.Errorf("%s probe failed: %w", name, err)
		}
		return nil
	}
}

// MongoPinger captures the subset of the MongoDB client used for readiness checks.
type MongoPinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// NewMongoPingProbe creates a Func that pings MongoDB using the provided client.
// If readPref is nil it defaults to readpref.Primary.
func NewMongoPingProbe(client MongoPinger, readPref *readpref.ReadPref) Func {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("mongo probe: client is nil")
		}

		ctx = contextOrBackground(ctx)

		rp := readPref
		if rp == nil {
			rp = readpref.Primary()
		}

		if err := client.Ping(ctx, rp); err != nil {
			return fmt.Errorf("mongo probe failed: %w", err)
		}
		return nil
	}
}

// BootWaiter is the lifecycle surface of *oairouter.Router.
type BootWaiter interface {
	Done() <-chan struct{}
	Err() error
}

// NewBootProbe reports ErrBooting until b has finished booting, then the boot
// error if there was one. It never blocks.
func NewBootProbe(name string, b BootWaiter) Func {
	return func(ctx context.Context) error {
		if b == nil {
			return nilComponentError(name, "router")
		}

		select {
		case <-b.Done():
		default:
			return fmt.Errorf("%s probe: %w", name, ErrBooting)
		}
		if err := b.Err(); err != nil {
			return fmt.Errorf("%s probe failed: %w", name, err)
		}
		return nil
	}
}
