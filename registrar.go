package oairouter

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/sync/errgroup"

	"github.com/drblury/oairouter/loader"
	"github.com/drblury/oairouter/plugin"
	"github.com/drblury/oairouter/router"
)

type pathEntry struct {
	pattern string
	item    *openapi3.PathItem
	doc     *openapi3.T
}

// routeTable returns the paths that become routes under the selected scope.
func (r *Router) routeTable(apis []*openapi3.T) []pathEntry {
	docs := apis[:1]
	if r.scope == ScopeMergedDocuments {
		docs = apis
	}

	var (
		entries []pathEntry
		index   = make(map[string]int)
	)
	for _, doc := range docs {
		for pattern, item := range doc.Paths.Map() {
			if item == nil {
				continue
			}
			entry := pathEntry{pattern: pattern, item: item, doc: doc}
			if pos, ok := index[pattern]; ok {
				entries[pos] = entry
				continue
			}
			index[pattern] = len(entries)
			entries = append(entries, entry)
		}
	}
	return entries
}

// Endpoint joins basePath and an OpenAPI path template and rewrites its
// parameters into the tokens of style.
func Endpoint(basePath, pattern string, style router.ParamStyle) (string, error) {
	return router.RewritePath(router.JoinPath(basePath, pattern), style)
}

func (r *Router) registerRoutes(ctx context.Context, apis []*openapi3.T) error {
	if len(apis) == 0 {
		return nil
	}

	basePath, err := loader.BasePath(apis[0])
	if err != nil {
		return err
	}

	var requests []plugin.Request
	for _, entry := range r.routeTable(apis) {
		endpoint, err := Endpoint(basePath, entry.pattern, r.mux.ParamStyle())
		if err != nil {
			return fmt.Errorf("path %q: %w", entry.pattern, err)
		}
		for method, op := range entry.item.Operations() {
			requests = append(requests, plugin.Request{
				Endpoint:  endpoint,
				Method:    method,
				Path:      entry.pattern,
				BasePath:  basePath,
				Operation: op,
				Document:  entry.doc,
				Options:   r.registry.Options(),
			})
		}
	}

	chains := make([][]router.NamedMiddleware, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		g.Go(func() error {
			chain, err := r.registry.Load(gctx, req)
			if err != nil {
				return err
			}
			chains[i] = chain
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	regs := make([]router.Registration, len(requests))
	for i, req := range requests {
		regs[i] = router.Registration{Method: req.Method, Pattern: req.Endpoint, Chain: chains[i]}
	}
	if err := r.mux.HandleAll(regs...); err != nil {
		return fmt.Errorf("mount %d operations: %w", len(regs), err)
	}

	for i, req := range requests {
		r.logger.InfoContext(ctx, "oai route mounted",
			"method", req.Method,
			"endpoint", router.JoinPath(r.mux.Prefix(), req.Endpoint),
			"chain", strings.Join(router.Names(chains[i]), " > "),
		)
	}
	return nil
}
