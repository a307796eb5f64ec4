package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/oairouter/jsonutil"
	"github.com/drblury/oairouter/loader"
	"github.com/drblury/oairouter/responder"
	"github.com/drblury/oairouter/router"
)

// Explorer endpoints, relative to the dispatcher prefix.
const (
	IndexPath  = "/api-explorer"
	CSSPath    = "/swagger-ui.css"
	BundlePath = "/swagger-ui-bundle.js"
	PresetPath = "/swagger-ui-standalone-preset.js"
	ConfigPath = "/api-explorer-config.json"
)

// URL is one entry of the UI's document picker.
type URL struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Config is the swagger-ui configuration served at ConfigPath.
type Config struct {
	URLs                     []URL `json:"urls"`
	DisplayOperationID       bool  `json:"displayOperationId"`
	DisplayRequestDuration   bool  `json:"displayRequestDuration"`
	ShowExtensions           bool  `json:"showExtensions"`
	DefaultModelsExpandDepth int   `json:"defaultModelsExpandDepth"`
}

// NewConfig lists docs in order, each under prefix/<title>.json.
func NewConfig(prefix string, docs []*openapi3.T) Config {
	urls := make([]URL, 0, len(docs))
	for _, doc := range docs {
		title := loader.Title(doc)
		urls = append(urls, URL{Name: title, URL: router.JoinPath(prefix, DocumentPath(title))})
	}
	return Config{
		URLs:                     urls,
		DisplayOperationID:       true,
		DisplayRequestDuration:   true,
		ShowExtensions:           true,
		DefaultModelsExpandDepth: 0,
	}
}

// DocumentPath is the endpoint a document with title is published at.
func DocumentPath(title string) string {
	return "/" + title + ".json"
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithEnabled turns publishing on or off. Enabled by default.
func WithEnabled(enabled bool) Option {
	return func(p *Publisher) {
		p.enabled = enabled
	}
}

// WithAssets replaces the UI files. Empty fields keep the embedded default.
func WithAssets(assets Assets) Option {
	return func(p *Publisher) {
		p.assets = assets
	}
}

// WithResponder sets the responder used to write every explorer response.
func WithResponder(resp *responder.Responder) Option {
	return func(p *Publisher) {
		if resp != nil {
			p.resp = resp
		}
	}
}

// WithLogger sets the logger used for mount diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Publisher registers the explorer endpoints on a Mux.
type Publisher struct {
	mux     *router.Mux
	resp    *responder.Responder
	logger  *slog.Logger
	assets  Assets
	enabled bool
}

// New returns a Publisher mounting on mux.
func New(mux *router.Mux, opts ...Option) *Publisher {
	if mux == nil {
		panic("explorer: mux cannot be nil")
	}
	p := &Publisher{
		mux:     mux,
		logger:  slog.Default(),
		enabled: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.resp == nil {
		p.resp = responder.New(responder.WithLogger(p.logger))
	}
	p.assets = p.assets.withDefaults()
	return p
}

// Enabled reports whether Publish mounts anything.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// Publish mounts the UI, its assets, one endpoint per document and the UI
// configuration. Documents sharing a title resolve to the last one. It does
// nothing when the publisher is disabled.
func (p *Publisher) Publish(ctx context.Context, docs []*openapi3.T) error {
	if !p.enabled {
		return nil
	}

	p.logger.InfoContext(ctx, "api explorer", "endpoint", router.JoinPath(p.mux.Prefix(), IndexPath))

	static := []struct {
		path        string
		contentType string
		body        []byte
	}{
		{IndexPath, "text/html; charset=utf-8", p.assets.Index},
		{CSSPath, "text/css; charset=utf-8", p.assets.CSS},
		{BundlePath, "application/javascript", p.assets.Bundle},
		{PresetPath, "application/javascript", p.assets.Preset},
	}
	for _, asset := range static {
		if err := p.mux.Get(asset.path, p.content(asset.path, asset.contentType, asset.body)); err != nil {
			return fmt.Errorf("mount %s: %w", asset.path, err)
		}
	}

	for _, doc := range docs {
		body, err := jsonutil.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode document %q: %w", loader.Title(doc), err)
		}
		path := DocumentPath(loader.Title(doc))
		if err := p.mux.Get(path, p.content(path, "application/json", body)); err != nil {
			return fmt.Errorf("mount %s: %w", path, err)
		}
	}

	body, err := jsonutil.Marshal(NewConfig(p.mux.Prefix(), docs))
	if err != nil {
		return fmt.Errorf("encode explorer config: %w", err)
	}
	if err := p.mux.Get(ConfigPath, p.content(ConfigPath, "application/json", body)); err != nil {
		return fmt.Errorf("mount %s: %w", ConfigPath, err)
	}
	return nil
}

func (p *Publisher) content(name, contentType string, body []byte) router.NamedMiddleware {
	return router.HandlerFunc("explorer"+name, func(w http.ResponseWriter, r *http.Request) {
		p.resp.RespondWithContent(w, r, http.StatusOK, contentType, body)
	})
}
