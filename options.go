package oairouter

import (
	"context"
	"log/slog"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/oairouter/explorer"
	"github.com/drblury/oairouter/loader"
	"github.com/drblury/oairouter/plugin"
	"github.com/drblury/oairouter/responder"
	"github.com/drblury/oairouter/router"
)

// Cooker transforms a loaded document before routes are built from it. It
// runs once per document; multi-document loads cook concurrently.
type Cooker func(ctx context.Context, doc *openapi3.T) (*openapi3.T, error)

// Identity is the default Cooker.
func Identity(_ context.Context, doc *openapi3.T) (*openapi3.T, error) {
	return doc, nil
}

// RouteScope selects which documents contribute routes.
type RouteScope int

const (
	// ScopeFirstDocument mounts the paths of the first document only, under
	// its base path. Later documents are still published in the explorer.
	ScopeFirstDocument RouteScope = iota
	// ScopeMergedDocuments merges the paths of every document in load order,
	// later documents replacing earlier ones, under the first document's
	// base path.
	ScopeMergedDocuments
)

func (s RouteScope) String() string {
	switch s {
	case ScopeFirstDocument:
		return "first-document"
	case ScopeMergedDocuments:
		return "merged-documents"
	default:
		return "unknown"
	}
}

// Option configures a Router via the functional options pattern.
type Option func(*options)

type options struct {
	source       loader.Source
	explorer     bool
	cooker       Cooker
	cookerSet    bool
	pluginOpts   plugin.Options
	logger       *slog.Logger
	loader       loader.Loader
	mux          *router.Mux
	responder    *responder.Responder
	scope        RouteScope
	baseCtx      context.Context
	assets       explorer.Assets
	routerConfig []router.Option
}

func defaultOptions() *options {
	return &options{
		explorer: true,
		cooker:   Identity,
		scope:    ScopeFirstDocument,
		baseCtx:  context.Background(),
	}
}

// WithAPIDoc sets the document source. Without one the router never boots
// and serves only what is registered on its Mux directly.
func WithAPIDoc(src loader.Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithExplorer toggles the API explorer. Enabled by default.
func WithExplorer(visible bool) Option {
	return func(o *options) {
		o.explorer = visible
	}
}

// WithCooker sets the document transform. Passing nil makes New panic.
func WithCooker(cooker Cooker) Option {
	return func(o *options) {
		o.cooker = cooker
		o.cookerSet = true
	}
}

// WithPluginOptions sets the options shared with every plugin and route
// request. Prefix also becomes the Mux prefix unless WithMux is used.
func WithPluginOptions(opts plugin.Options) Option {
	return func(o *options) {
		o.pluginOpts = opts
	}
}

// WithLogger sets the logger for boot and mount diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLoader replaces the kin-openapi backed loader.
func WithLoader(l loader.Loader) Option {
	return func(o *options) {
		if l != nil {
			o.loader = l
		}
	}
}

// WithMux mounts routes on an existing Mux instead of creating one.
func WithMux(mux *router.Mux) Option {
	return func(o *options) {
		if mux != nil {
			o.mux = mux
		}
	}
}

// WithRouterOptions configures the Mux the router creates. Ignored with WithMux.
func WithRouterOptions(opts ...router.Option) Option {
	return func(o *options) {
		o.routerConfig = append(o.routerConfig, opts...)
	}
}

// WithResponder sets the responder shared by the Mux and the explorer.
func WithResponder(resp *responder.Responder) Option {
	return func(o *options) {
		if resp != nil {
			o.responder = resp
		}
	}
}

// WithRouteScope selects which documents contribute routes.
func WithRouteScope(scope RouteScope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

// WithBaseContext sets the context the boot pipeline runs with. Boot has no
// deadline of its own; cancelling this context is the only way to abort it.
func WithBaseContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.baseCtx = ctx
		}
	}
}

// WithAssets replaces the explorer UI files.
func WithAssets(assets explorer.Assets) Option {
	return func(o *options) {
		o.assets = assets
	}
}
