package builtin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/oairouter/plugin"
	"github.com/drblury/oairouter/responder"
	"github.com/drblury/oairouter/router"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func loadItems(t *testing.T) *openapi3.T {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "items.yaml"))
	require.NoError(t, err)
	doc, err := openapi3.NewLoader().LoadFromData(data)
	require.NoError(t, err)
	return doc
}

func request(doc *openapi3.T, method, path, endpoint string) plugin.Request {
	return plugin.Request{
		Endpoint:  endpoint,
		Method:    method,
		Path:      path,
		BasePath:  "/v1",
		Operation: doc.Paths.Value(path).GetOperation(method),
		Document:  doc,
		Options:   plugin.Options{Prefix: "/api"},
	}
}

func newMux() *router.Mux {
	return router.New(
		router.WithPrefix("/api"),
		router.WithLogger(discard),
		router.WithResponder(responder.New(responder.WithLogger(discard))),
		router.WithoutLoggingMiddleware(),
		router.WithoutTimeoutMiddleware(),
	)
}

func mount(t *testing.T, mux *router.Mux, reg *plugin.Registry, req plugin.Request) {
	t.Helper()
	chain, err := reg.Load(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, mux.Handle(req.Method, req.Endpoint, chain...))
}

func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlersBindByOperationID(t *testing.T) {
	doc := loadItems(t)
	handlers := NewHandlers(map[string]http.Handler{
		"listItems": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "listed")
		}),
	})

	reg := plugin.NewRegistry(plugin.Options{Prefix: "/api"})
	require.NoError(t, reg.Register(context.Background(), handlers, map[string]http.HandlerFunc{
		"getItem": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "item "+router.Param(r, "id"))
		},
	}))

	mux := newMux()
	mount(t, mux, reg, request(doc, http.MethodGet, "/items", "/v1/items"))
	mount(t, mux, reg, request(doc, http.MethodGet, "/items/{id}", "/v1/items/{id}"))
	mount(t, mux, reg, request(doc, http.MethodPost, "/items", "/v1/items"))

	assert.Equal(t, "listed", serve(mux, http.MethodGet, "/api/v1/items", nil).Body.String())
	assert.Equal(t, "item 7", serve(mux, http.MethodGet, "/api/v1/items/7", nil).Body.String())

	// Bound to nothing: the terminal answers.
	rec := serve(mux, http.MethodPost, "/api/v1/items", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandlersRejectUnknownBindings(t *testing.T) {
	err := NewHandlers(nil).Configure(context.Background(), "nope", plugin.Options{})
	require.Error(t, err)
}

func TestMockServesFirstSuccessExample(t *testing.T) {
	doc := loadItems(t)
	reg := plugin.NewRegistry(plugin.Options{Prefix: "/api"})
	require.NoError(t, reg.Register(context.Background(), NewMock(responder.New(responder.WithLogger(discard))), nil))

	mux := newMux()
	mount(t, mux, reg, request(doc, http.MethodGet, "/items", "/v1/items"))
	mount(t, mux, reg, request(doc, http.MethodPost, "/items", "/v1/items"))
	mount(t, mux, reg, request(doc, http.MethodGet, "/items/{id}", "/v1/items/{id}"))

	rec := serve(mux, http.MethodGet, "/api/v1/items", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"hammer"}]`, rec.Body.String())

	rec = serve(mux, http.MethodPost, "/api/v1/items", strings.NewReader(`{"name":"saw"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":2,"name":"saw"}`, rec.Body.String())

	// No example declared, so the mock stays out of the chain.
	chain, err := reg.Load(context.Background(), request(doc, http.MethodGet, "/items/{id}", "/v1/items/{id}"))
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestSuccessExampleIgnoresNonSuccess(t *testing.T) {
	doc := loadItems(t)
	_, ok := successExample(doc.Paths.Value("/health").Get)
	assert.False(t, ok)
}

func TestValidatorRejectsInvalidRequests(t *testing.T) {
	doc := loadItems(t)
	resp := responder.New(responder.WithLogger(discard))
	reg := plugin.NewRegistry(plugin.Options{Prefix: "/api"})
	require.NoError(t, reg.Register(context.Background(), NewValidator(resp), nil))
	require.NoError(t, reg.Register(context.Background(), NewHandlers(map[string]http.Handler{
		"getItem": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, r.URL.Path)
		}),
		"createItem": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(body)
		}),
	}), nil))

	mux := newMux()
	mount(t, mux, reg, request(doc, http.MethodGet, "/items/{id}", "/v1/items/{id}"))
	mount(t, mux, reg, request(doc, http.MethodPost, "/items", "/v1/items"))

	rec := serve(mux, http.MethodGet, "/api/v1/items/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = serve(mux, http.MethodGet, "/api/v1/items/12", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/v1/items/12", rec.Body.String(), "handlers see the original path")

	rec = serve(mux, http.MethodPost, "/api/v1/items", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodPost, "/api/v1/items", strings.NewReader(`{"name":"saw"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"name":"saw"}`, rec.Body.String())
}

func TestRelativePath(t *testing.T) {
	assert.Equal(t, "/items/1", relativePath("/api/v1/items/1", "/api/v1"))
	assert.Equal(t, "/", relativePath("/api/v1", "/api/v1"))
	assert.Equal(t, "/items", relativePath("/items", ""))
	assert.Equal(t, "/other", relativePath("/other", "/api"))
}

func TestRateLimitAppliesDeclaredBudget(t *testing.T) {
	doc := loadItems(t)
	reg := plugin.NewRegistry(plugin.Options{Prefix: "/api"})
	require.NoError(t, reg.Register(context.Background(), NewRateLimit(responder.New(responder.WithLogger(discard))), nil))
	require.NoError(t, reg.Register(context.Background(), NewHandlers(map[string]http.Handler{
		"listItems": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	}), nil))

	mux := newMux()
	mount(t, mux, reg, request(doc, http.MethodGet, "/items", "/v1/items"))

	assert.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "/api/v1/items", nil).Code)
	assert.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "/api/v1/items", nil).Code)

	rec := serve(mux, http.MethodGet, "/api/v1/items", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Operations without the extension are not limited.
	chain, err := reg.Load(context.Background(), request(doc, http.MethodGet, "/items/{id}", "/v1/items/{id}"))
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestParseRateLimit(t *testing.T) {
	spec, err := ParseRateLimit(map[string]any{"rate": 2.5})
	require.NoError(t, err)
	assert.Equal(t, RateLimitSpec{Rate: 2.5, Burst: 3}, spec)

	spec, err = ParseRateLimit(float64(10))
	require.NoError(t, err)
	assert.Equal(t, RateLimitSpec{Rate: 10, Burst: 10}, spec)

	_, err = ParseRateLimit(map[string]any{"rate": 0})
	require.Error(t, err)

	_, err = ParseRateLimit("fast")
	require.Error(t, err)
}

func TestMetricsRecordsPerOperation(t *testing.T) {
	doc := loadItems(t)
	promReg := prometheus.NewRegistry()
	metrics, err := NewMetrics(promReg, "oairouter")
	require.NoError(t, err)

	again, err := NewMetrics(promReg, "oairouter")
	require.NoError(t, err, "collectors are reused on re-registration")
	assert.Same(t, metrics.requests, again.requests)

	reg := plugin.NewRegistry(plugin.Options{Prefix: "/api"})
	require.NoError(t, reg.Register(context.Background(), metrics, nil))

	mux := newMux()
	mount(t, mux, reg, request(doc, http.MethodGet, "/items", "/v1/items"))

	serve(mux, http.MethodGet, "/api/v1/items", nil)
	serve(mux, http.MethodGet, "/api/v1/items", nil)

	families, err := promReg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range m.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			assert.Equal(t, map[string]string{"operation": "listItems", "method": http.MethodGet, "status": "501"}, labels)
			if c := m.GetCounter(); c != nil {
				counts[family.GetName()] = c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				counts[family.GetName()] = float64(h.GetSampleCount())
			}
		}
	}
	assert.Equal(t, map[string]float64{
		"oairouter_operation_requests_total":           2,
		"oairouter_operation_request_duration_seconds": 2,
	}, counts)
}
