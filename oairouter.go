package oairouter

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/oairouter/explorer"
	"github.com/drblury/oairouter/loader"
	"github.com/drblury/oairouter/plugin"
	"github.com/drblury/oairouter/responder"
	"github.com/drblury/oairouter/router"
)

// Router builds HTTP routes from OpenAPI documents.
//
// Routes returns the dispatcher immediately and boots in the background:
// requests arriving before the ready event are answered as unmatched routes.
// Callers that must not serve early traffic wait on Events, Done or Wait
// before accepting connections.
type Router struct {
	source   loader.Source
	loader   loader.Loader
	cooker   Cooker
	scope    RouteScope
	logger   *slog.Logger
	baseCtx  context.Context
	mux      *router.Mux
	registry *plugin.Registry
	explorer *explorer.Publisher

	mu   sync.RWMutex
	apis []*openapi3.T

	bootOnce sync.Once
	events   chan Event
	done     chan struct{}
	bootErr  error
}

// New constructs a Router. It panics when WithCooker was given a nil cooker.
func New(opts ...Option) *Router {
	settings := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}
	if settings.cookerSet && settings.cooker == nil {
		panic("oairouter: cooker cannot be nil")
	}
	if settings.logger == nil {
		settings.logger = slog.Default()
	}
	if settings.loader == nil {
		settings.loader = loader.New()
	}
	if settings.responder == nil {
		settings.responder = responder.New(responder.WithLogger(settings.logger))
	}

	mux := settings.mux
	if mux == nil {
		routerOpts := append([]router.Option{
			router.WithPrefix(settings.pluginOpts.Prefix),
			router.WithLogger(settings.logger),
			router.WithResponder(settings.responder),
		}, settings.routerConfig...)
		mux = router.New(routerOpts...)
	}

	pluginOpts := settings.pluginOpts
	if pluginOpts.Prefix == "" {
		pluginOpts.Prefix = mux.Prefix()
	}

	return &Router{
		source:   settings.source,
		loader:   settings.loader,
		cooker:   settings.cooker,
		scope:    settings.scope,
		logger:   settings.logger,
		baseCtx:  settings.baseCtx,
		mux:      mux,
		registry: plugin.NewRegistry(pluginOpts),
		explorer: explorer.New(mux,
			explorer.WithEnabled(settings.explorer),
			explorer.WithAssets(settings.assets),
			explorer.WithResponder(settings.responder),
			explorer.WithLogger(settings.logger),
		),
		events: make(chan Event, 1),
		done:   make(chan struct{}),
	}
}

// Mount registers a plugin with its arguments. Mount every plugin before
// calling Routes; plugins mounted later miss the routes already resolved.
func (r *Router) Mount(ctx context.Context, p plugin.Plugin, args any) error {
	return r.registry.Register(ctx, p, args)
}

// Routes returns the dispatcher and starts the boot pipeline on the first
// call. Without a document source it only returns the dispatcher.
func (r *Router) Routes() http.Handler {
	if r.source == nil {
		return r.mux.Routes()
	}
	r.bootOnce.Do(func() {
		go r.boot(r.baseCtx)
	})
	return r.mux.Routes()
}

// APIs returns the cooked documents in load order. It is empty until the
// cooking step of boot has finished.
func (r *Router) APIs() []*openapi3.T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*openapi3.T, len(r.apis))
	copy(out, r.apis)
	return out
}

// Mux returns the routing layer routes are mounted on.
func (r *Router) Mux() *router.Mux {
	return r.mux
}

// Registry returns the plugin registry.
func (r *Router) Registry() *plugin.Registry {
	return r.registry
}
