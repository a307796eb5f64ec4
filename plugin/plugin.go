package plugin

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/oairouter/router"
)

// Options is the global configuration shared by the registry, every plugin
// and every route request. Prefix is the mount prefix of the dispatcher;
// Values carries anything else plugins want to read.
type Options struct {
	Prefix string
	Values map[string]any
}

// Value returns the option stored under key.
func (o Options) Value(key string) (any, bool) {
	v, ok := o.Values[key]
	return v, ok
}

// Request describes one operation about to be mounted.
type Request struct {
	// Endpoint is the routing pattern the chain is mounted on, relative to
	// the dispatcher prefix.
	Endpoint string
	// Method is the upper-case HTTP verb.
	Method string
	// Path is the OpenAPI path template the operation was declared under.
	Path string
	// BasePath is the base path Endpoint was joined with.
	BasePath  string
	Operation *openapi3.Operation
	Document  *openapi3.T
	Options   Options
}

// Plugin produces the middleware one concern contributes to an operation.
type Plugin interface {
	// Name identifies the plugin and its chain unit.
	Name() string
	// Fields lists the operation fields that activate the plugin. A plugin
	// without fields applies to every operation.
	Fields() []string
	// Middleware returns the unit for req, or nil to stay out of the chain.
	Middleware(ctx context.Context, req Request, args any) (router.Middleware, error)
}

// Configurer is implemented by plugins that need to inspect their mount
// arguments once, at registration time.
type Configurer interface {
	Configure(ctx context.Context, args any, opts Options) error
}

// Func builds a Plugin from a function.
func Func(name string, fields []string, fn func(ctx context.Context, req Request, args any) (router.Middleware, error)) Plugin {
	cloned := make([]string, len(fields))
	copy(cloned, fields)
	return funcPlugin{name: name, fields: cloned, fn: fn}
}

type funcPlugin struct {
	name   string
	fields []string
	fn     func(ctx context.Context, req Request, args any) (router.Middleware, error)
}

func (p funcPlugin) Name() string     { return p.name }
func (p funcPlugin) Fields() []string { return p.fields }

func (p funcPlugin) Middleware(ctx context.Context, req Request, args any) (router.Middleware, error) {
	if p.fn == nil {
		return nil, nil
	}
	return p.fn(ctx, req, args)
}
