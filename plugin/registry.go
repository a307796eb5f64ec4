package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/drblury/oairouter/router"
)

var (
	// ErrNilPlugin is returned when registering a nil plugin.
	ErrNilPlugin = errors.New("plugin: nil plugin")
	// ErrUnnamedPlugin is returned for plugins with an empty name.
	ErrUnnamedPlugin = errors.New("plugin: plugin name is required")
	// ErrDuplicatePlugin is returned when a name is mounted twice.
	ErrDuplicatePlugin = errors.New("plugin: plugin already registered")
)

type entry struct {
	plugin Plugin
	args   any
}

// Registry accumulates plugins at mount time and resolves them into chains
// at route time. It is safe for concurrent use.
type Registry struct {
	opts Options

	mu      sync.RWMutex
	entries []entry
	names   map[string]struct{}
}

// NewRegistry returns an empty registry scoped to opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:  opts,
		names: make(map[string]struct{}),
	}
}

// Options returns the options the registry was created with.
func (r *Registry) Options() Options {
	return r.opts
}

// Register mounts p with args. Plugins implementing Configurer are configured
// before they become visible to Load.
func (r *Registry) Register(ctx context.Context, p Plugin, args any) error {
	if p == nil {
		return ErrNilPlugin
	}
	name := p.Name()
	if name == "" {
		return ErrUnnamedPlugin
	}

	r.mu.RLock()
	_, exists := r.names[name]
	r.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
	}

	if c, ok := p.(Configurer); ok {
		if err := c.Configure(ctx, args, r.opts); err != nil {
			return fmt.Errorf("configure plugin %s: %w", name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
	}
	r.names[name] = struct{}{}
	r.entries = append(r.entries, entry{plugin: p, args: args})
	return nil
}

// Names returns the mounted plugin names in mount order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.plugin.Name())
	}
	return names
}

// Load resolves the chain for req. Plugins run in mount order; plugins whose
// fields are absent from the operation, and plugins returning a nil
// middleware, contribute nothing.
func (r *Registry) Load(ctx context.Context, req Request) ([]router.NamedMiddleware, error) {
	r.mu.RLock()
	entries := make([]entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.RUnlock()

	if req.Options.Values == nil && req.Options.Prefix == "" {
		req.Options = r.opts
	}

	chain := make([]router.NamedMiddleware, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !matches(req.Operation, e.plugin.Fields()) {
			continue
		}

		mw, err := e.plugin.Middleware(ctx, req, e.args)
		if err != nil {
			return nil, fmt.Errorf("plugin %s on %s %s: %w", e.plugin.Name(), req.Method, req.Endpoint, err)
		}
		if mw == nil {
			continue
		}
		chain = append(chain, router.Named(e.plugin.Name(), mw))
	}
	return chain, nil
}
