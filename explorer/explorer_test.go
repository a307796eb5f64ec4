package explorer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/oairouter/jsonutil"
	"github.com/drblury/oairouter/router"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func document(title, version string) *openapi3.T {
	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.NewPaths(),
	}
}

func newMux(prefix string) *router.Mux {
	return router.New(router.WithPrefix(prefix), router.WithLogger(discard), router.WithoutLoggingMiddleware())
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPublishMountsExplorer(t *testing.T) {
	mux := newMux("/api")
	pub := New(mux, WithLogger(discard))

	docs := []*openapi3.T{document("pets", "1.0.0"), document("orders", "2.0.0")}
	require.NoError(t, pub.Publish(context.Background(), docs))

	cases := []struct {
		path        string
		contentType string
	}{
		{"/api/api-explorer", "text/html; charset=utf-8"},
		{"/api/swagger-ui.css", "text/css; charset=utf-8"},
		{"/api/swagger-ui-bundle.js", "application/javascript"},
		{"/api/swagger-ui-standalone-preset.js", "application/javascript"},
		{"/api/pets.json", "application/json"},
		{"/api/orders.json", "application/json"},
		{"/api/api-explorer-config.json", "application/json"},
	}
	for _, tc := range cases {
		rec := get(mux, tc.path)
		assert.Equal(t, http.StatusOK, rec.Code, tc.path)
		assert.Equal(t, tc.contentType, rec.Header().Get("Content-Type"), tc.path)
		assert.NotEmpty(t, rec.Body.Bytes(), tc.path)
	}

	var served openapi3.T
	require.NoError(t, jsonutil.Unmarshal(get(mux, "/api/orders.json").Body.Bytes(), &served))
	assert.Equal(t, "2.0.0", served.Info.Version)

	assert.JSONEq(t, `{
		"urls": [
			{"name": "pets", "url": "/api/pets.json"},
			{"name": "orders", "url": "/api/orders.json"}
		],
		"displayOperationId": true,
		"displayRequestDuration": true,
		"showExtensions": true,
		"defaultModelsExpandDepth": 0
	}`, get(mux, "/api/api-explorer-config.json").Body.String())
}

func TestPublishDuplicateTitlesLastWins(t *testing.T) {
	mux := newMux("")
	pub := New(mux, WithLogger(discard))

	require.NoError(t, pub.Publish(context.Background(), []*openapi3.T{document("dup", "1"), document("dup", "2")}))

	var served openapi3.T
	require.NoError(t, jsonutil.Unmarshal(get(mux, "/dup.json").Body.Bytes(), &served))
	assert.Equal(t, "2", served.Info.Version)

	var cfg Config
	require.NoError(t, jsonutil.Unmarshal(get(mux, "/api-explorer-config.json").Body.Bytes(), &cfg))
	assert.Len(t, cfg.URLs, 2)
}

func TestPublishDisabled(t *testing.T) {
	mux := newMux("")
	pub := New(mux, WithEnabled(false), WithLogger(discard))
	assert.False(t, pub.Enabled())

	require.NoError(t, pub.Publish(context.Background(), []*openapi3.T{document("pets", "1")}))
	assert.Empty(t, mux.Registered())
	assert.Equal(t, http.StatusNotFound, get(mux, "/api-explorer").Code)
}

func TestWithAssetsKeepsDefaultsForEmptyFields(t *testing.T) {
	mux := newMux("")
	pub := New(mux, WithLogger(discard), WithAssets(Assets{Index: []byte("<html>offline</html>")}))
	require.NoError(t, pub.Publish(context.Background(), nil))

	assert.Equal(t, "<html>offline</html>", get(mux, "/api-explorer").Body.String())
	assert.Equal(t, string(DefaultAssets().CSS), get(mux, "/swagger-ui.css").Body.String())
}

func TestNewConfigJoinsPrefix(t *testing.T) {
	cfg := NewConfig("/", []*openapi3.T{document("pets", "1")})
	assert.Equal(t, []URL{{Name: "pets", URL: "/pets.json"}}, cfg.URLs)

	cfg = NewConfig("/svc/", nil)
	assert.Empty(t, cfg.URLs)
	assert.NotNil(t, cfg.URLs)
}
