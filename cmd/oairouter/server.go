package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/drblury/oairouter"
	"github.com/drblury/oairouter/info"
	"github.com/drblury/oairouter/loader"
	"github.com/drblury/oairouter/plugin"
	"github.com/drblury/oairouter/plugin/builtin"
	"github.com/drblury/oairouter/probe"
	"github.com/drblury/oairouter/responder"
	"github.com/drblury/oairouter/router"
)

// app is everything run needs to serve and shut down.
type app struct {
	server *http.Server
	router *oairouter.Router
	close  func(context.Context) error
}

func newApp(ctx context.Context, cfg Config, logger *slog.Logger) (*app, error) {
	resp := responder.New(responder.WithLogger(logger))
	mux := router.New(
		router.WithPrefix(cfg.Prefix),
		router.WithLogger(logger),
		router.WithResponder(resp),
		router.WithConfig(cfg.RouterConfig()),
	)

	var loaderOpts []loader.Option
	if cfg.ValidateDocs {
		loaderOpts = append(loaderOpts, loader.WithValidation())
	}

	r := oairouter.New(
		oairouter.WithAPIDoc(cfg.Source()),
		oairouter.WithLoader(loader.New(loaderOpts...)),
		oairouter.WithMux(mux),
		oairouter.WithResponder(resp),
		oairouter.WithLogger(logger),
		oairouter.WithExplorer(cfg.Explorer),
		oairouter.WithRouteScope(cfg.RouteScope()),
		oairouter.WithBaseContext(ctx),
		oairouter.WithPluginOptions(plugin.Options{
			Prefix: cfg.Prefix,
			Values: map[string]any{"mock": cfg.Mock},
		}),
	)

	closers := []func(context.Context) error{}
	closeAll := func(ctx context.Context) error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	infoOpts := []info.InfoOption{
		info.WithInfoResponder(resp),
		info.WithBootState(r),
		info.WithInfoProvider(func() any {
			return map[string]any{"service": appName, "version": Version, "build": BuildTime, "apis": len(r.APIs())}
		}),
	}
	if cfg.Mongo.URI != "" {
		client, err := mongo.Connect(ctx, options.Client().
			ApplyURI(cfg.Mongo.URI).
			SetServerSelectionTimeout(duration(cfg.Mongo.Timeout, 5*time.Second)))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		closers = append(closers, client.Disconnect)
		infoOpts = append(infoOpts, info.WithReadinessChecks(info.Named("mongo", probe.NewMongoPingProbe(client, nil))))
	}
	if err := info.NewInfoHandler(infoOpts...).Mount(mux); err != nil {
		_ = closeAll(ctx)
		return nil, err
	}

	if err := mountPlugins(ctx, r, cfg, resp, mux); err != nil {
		_ = closeAll(ctx)
		return nil, err
	}

	return &app{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: r,
		close:  closeAll,
	}, nil
}

// mountPlugins mounts the built-in plugins in chain order: metrics outermost,
// then rate limits and validation, then the mock answering the request.
func mountPlugins(ctx context.Context, r *oairouter.Router, cfg Config, resp *responder.Responder, mux *router.Mux) error {
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, err := builtin.NewMetrics(reg, cfg.Metrics.Namespace)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		if err := r.Mount(ctx, metrics, nil); err != nil {
			return err
		}
		handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
		if err := mux.Get(cfg.Metrics.Path, router.Handler("promhttp", handler)); err != nil {
			return fmt.Errorf("mount %s: %w", cfg.Metrics.Path, err)
		}
	}

	if cfg.RateLimit {
		if err := r.Mount(ctx, builtin.NewRateLimit(resp, builtin.WithRateLimitKey(builtin.ClientIP)), nil); err != nil {
			return err
		}
	}
	if cfg.ValidateRequest {
		if err := r.Mount(ctx, builtin.NewValidator(resp), nil); err != nil {
			return err
		}
	}
	if cfg.Mock {
		if err := r.Mount(ctx, builtin.NewMock(resp), nil); err != nil {
			return err
		}
	}
	return nil
}

// logEvents reports the boot outcome.
func logEvents(r *oairouter.Router, logger *slog.Logger) {
	for ev := range r.Events() {
		if ev.Err != nil {
			logger.Error("oai routes unavailable", "event", ev.Type, "error", ev.Err)
			continue
		}
		logger.Info("oai routes ready", "event", ev.Type, "apis", len(r.APIs()))
	}
}
