package oairouter

import (
	"context"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/sync/errgroup"

	"github.com/drblury/oairouter/loader"
)

// ErrNilDocument is returned when a loader or cooker yields a nil document.
var ErrNilDocument = errors.New("oairouter: nil api document")

func (r *Router) boot(ctx context.Context) {
	r.logger.InfoContext(ctx, "oai router booting", "source", r.source.String(), "routeScope", r.scope.String())

	err := r.runBoot(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "oai router boot failed", "error", err)
	} else {
		r.logger.InfoContext(ctx, "oai router ready", "apis", len(r.APIs()), "routes", len(r.mux.Registered()))
	}
	r.signal(err)
}

func (r *Router) runBoot(ctx context.Context) error {
	res, err := r.loader.Load(ctx, r.source, r.logger)
	if err != nil {
		return fmt.Errorf("load api documents: %w", err)
	}

	apis, err := r.cookAll(ctx, res)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.apis = append(r.apis, apis...)
	r.mu.Unlock()

	if err := r.registerRoutes(ctx, apis); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}
	if err := r.explorer.Publish(ctx, apis); err != nil {
		return fmt.Errorf("publish api explorer: %w", err)
	}
	return nil
}

func (r *Router) cookAll(ctx context.Context, res loader.Result) ([]*openapi3.T, error) {
	if !res.Multiple {
		if len(res.Documents) != 1 {
			return nil, fmt.Errorf("load api documents: expected one document, got %d", len(res.Documents))
		}
		cooked, err := r.cook(ctx, res.Documents[0])
		if err != nil {
			return nil, err
		}
		return []*openapi3.T{cooked}, nil
	}

	cooked := make([]*openapi3.T, len(res.Documents))
	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range res.Documents {
		g.Go(func() error {
			out, err := r.cook(gctx, doc)
			if err != nil {
				return err
			}
			cooked[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cooked, nil
}

func (r *Router) cook(ctx context.Context, doc *openapi3.T) (*openapi3.T, error) {
	if doc == nil {
		return nil, fmt.Errorf("load api documents: %w", ErrNilDocument)
	}
	out, err := r.cooker(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("cook %q: %w", loader.Title(doc), err)
	}
	if out == nil {
		return nil, fmt.Errorf("cook %q: %w", loader.Title(doc), ErrNilDocument)
	}
	return out, nil
}
