package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/drblury/oairouter/responder"
)

var (
	// ErrUnsupportedMethod is returned for HTTP verbs the routing tree cannot key on.
	ErrUnsupportedMethod = errors.New("router: unsupported http method")
	// ErrInvalidRoute is returned when the routing tree rejects a pattern.
	ErrInvalidRoute = errors.New("router: invalid route")
)

var supportedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
	http.MethodConnect: {},
}

// Route describes a registered route.
type Route struct {
	Method  string
	Pattern string
	Chain   []string
	handler http.Handler
}

// Mux is a method keyed router that accepts registrations while serving.
// Every registration call rebuilds an immutable chi tree which is swapped in
// atomically, so in-flight requests never observe a half-built table. The
// rebuild costs O(routes); register batches through HandleAll.
// Registering the same method and pattern twice replaces the earlier route.
type Mux struct {
	settings *options
	dispatch http.Handler

	mu     sync.Mutex
	routes []Route
	index  map[string]int
	tree   atomic.Pointer[chi.Mux]
}

// New returns an empty Mux. Until routes are registered every request gets
// the not-found response.
func New(opts ...Option) *Mux {
	settings := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}
	if settings.responder == nil {
		settings.responder = responder.New(responder.WithLogger(settings.logger))
	}
	if settings.terminal == nil {
		resp := settings.responder
		settings.terminal = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp.HandleNotImplementedError(w, r, nil)
		})
	}

	m := &Mux{
		settings: settings,
		index:    make(map[string]int),
	}
	tree, _ := m.build(nil)
	m.tree.Store(tree)
	m.dispatch = applyMiddlewares(http.HandlerFunc(m.serveTree), settings.middlewareChain())
	return m
}

// Routes returns the dispatcher to plug into an http.Server. It is safe to
// call at any time; routes registered later become visible immediately.
func (m *Mux) Routes() http.Handler {
	return m.dispatch
}

// ServeHTTP makes the Mux itself usable as the dispatcher.
func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.dispatch.ServeHTTP(w, r)
}

// Prefix returns the path prefix every route is mounted under.
func (m *Mux) Prefix() string {
	return m.settings.prefix
}

// ParamStyle returns the native path parameter token of the routing tree.
func (m *Mux) ParamStyle() ParamStyle {
	return BraceParams
}

// Get registers chain for GET requests on pattern.
func (m *Mux) Get(pattern string, chain ...NamedMiddleware) error {
	return m.Handle(http.MethodGet, pattern, chain...)
}

// Registration is one route handed to HandleAll.
type Registration struct {
	Method  string
	Pattern string
	Chain   []NamedMiddleware
}

// Handle registers chain for method on pattern below the Mux prefix.
func (m *Mux) Handle(method, pattern string, chain ...NamedMiddleware) error {
	return m.HandleAll(Registration{Method: method, Pattern: pattern, Chain: chain})
}

// HandleAll registers every route and swaps the tree once. Either all routes
// become visible or, on error, none do.
func (m *Mux) HandleAll(regs ...Registration) error {
	if len(regs) == 0 {
		return nil
	}

	pending := make([]Route, 0, len(regs))
	for _, reg := range regs {
		method := strings.ToUpper(strings.TrimSpace(reg.Method))
		if _, ok := supportedMethods[method]; !ok {
			return fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
		}
		if !strings.HasPrefix(reg.Pattern, "/") {
			return fmt.Errorf("%w: pattern %q must begin with '/'", ErrInvalidRoute, reg.Pattern)
		}
		pending = append(pending, Route{
			Method:  method,
			Pattern: JoinPath(m.settings.prefix, reg.Pattern),
			Chain:   Names(reg.Chain),
			handler: Chain(reg.Chain, m.settings.terminal),
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	routes := make([]Route, len(m.routes), len(m.routes)+len(pending))
	copy(routes, m.routes)
	index := make(map[string]int, len(m.index)+len(pending))
	for key, pos := range m.index {
		index[key] = pos
	}
	for _, route := range pending {
		key := route.Method + " " + route.Pattern
		if pos, exists := index[key]; exists {
			routes[pos] = route
			continue
		}
		index[key] = len(routes)
		routes = append(routes, route)
	}

	tree, err := m.build(routes)
	if err != nil {
		return err
	}

	m.routes = routes
	m.index = index
	m.tree.Store(tree)
	return nil
}

// Registered returns a snapshot of the registered routes in registration order.
func (m *Mux) Registered() []Route {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Route, len(m.routes))
	copy(out, m.routes)
	return out
}

// Param returns the value of the named path parameter for r.
func Param(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// Params returns every path parameter captured for r.
func Params(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return map[string]string{}
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// serveTree routes on the decoded path. chi otherwise prefers RawPath, which
// only matches patterns containing characters in their escaped form.
func (m *Mux) serveTree(w http.ResponseWriter, r *http.Request) {
	tree := m.tree.Load()
	rctx := chi.NewRouteContext()
	rctx.Routes = tree
	rctx.RoutePath = r.URL.Path
	tree.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx)))
}

func (m *Mux) build(routes []Route) (tree *chi.Mux, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			tree = nil
			err = fmt.Errorf("%w: %v", ErrInvalidRoute, rec)
		}
	}()

	tree = chi.NewRouter()
	if m.settings.notFound != nil {
		tree.NotFound(m.settings.notFound.ServeHTTP)
	}
	for _, route := range routes {
		tree.Method(route.Method, route.Pattern, route.handler)
	}
	return tree, nil
}
