package router

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"
)

func quietMux(opts ...Option) *Mux {
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return New(append(base, opts...)...)
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestMuxServesRoutesRegisteredAfterDispatcherIsReturned(t *testing.T) {
	m := quietMux()
	dispatcher := m.Routes()

	if rr := serve(dispatcher, http.MethodGet, "/pets"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before registration, got %d", rr.Code)
	}

	if err := m.Get("/pets", HandlerFunc("list", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})); err != nil {
		t.Fatalf("unexpected registration error: %v", err)
	}

	if rr := serve(dispatcher, http.MethodGet, "/pets"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 after registration, got %d", rr.Code)
	}
	if rr := serve(dispatcher, http.MethodPost, "/pets"); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for unregistered verb, got %d", rr.Code)
	}
}

func TestMuxLastRegistrationWins(t *testing.T) {
	m := quietMux()
	for _, body := range []string{"first", "second"} {
		body := body
		if err := m.Get("/doc.json", HandlerFunc(body, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		})); err != nil {
			t.Fatalf("unexpected registration error: %v", err)
		}
	}

	if rr := serve(m, http.MethodGet, "/doc.json"); rr.Body.String() != "second" {
		t.Fatalf("expected later registration to win, got %q", rr.Body.String())
	}
	if got := len(m.Registered()); got != 1 {
		t.Fatalf("expected a single route entry, got %d", got)
	}
}

func TestMuxAppliesPrefix(t *testing.T) {
	m := quietMux(WithPrefix("/api"))
	if err := m.Get("/status", HandlerFunc("status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})); err != nil {
		t.Fatalf("unexpected registration error: %v", err)
	}

	if rr := serve(m, http.MethodGet, "/api/status"); rr.Code != http.StatusNoContent {
		t.Fatalf("expected prefixed route to match, got %d", rr.Code)
	}
	if rr := serve(m, http.MethodGet, "/status"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected unprefixed path to miss, got %d", rr.Code)
	}
	if got := m.Registered()[0].Pattern; got != "/api/status" {
		t.Fatalf("unexpected pattern %q", got)
	}
}

func TestMuxChainOrderAndTerminal(t *testing.T) {
	var order []string
	m := quietMux()

	if err := m.Handle("post", "/pets", recordingUnit("auth", &order), recordingUnit("validate", &order)); err != nil {
		t.Fatalf("unexpected registration error: %v", err)
	}

	rr := serve(m, http.MethodPost, "/pets")
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected terminal 501, got %d", rr.Code)
	}

	expected := []string{"auth-before", "validate-before", "validate-after", "auth-after"}
	if !reflect.DeepEqual(order, expected) {
		t.Fatalf("unexpected order: got %v want %v", order, expected)
	}

	route := m.Registered()[0]
	if route.Method != http.MethodPost {
		t.Fatalf("expected method to be upper-cased, got %q", route.Method)
	}
	if !reflect.DeepEqual(route.Chain, []string{"auth", "validate"}) {
		t.Fatalf("unexpected chain names %v", route.Chain)
	}
}

func TestMuxCustomTerminalAndNotFound(t *testing.T) {
	m := quietMux(
		WithTerminal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})),
		WithNotFound(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGone)
		})),
	)
	if err := m.Get("/noop"); err != nil {
		t.Fatalf("unexpected registration error: %v", err)
	}

	if rr := serve(m, http.MethodGet, "/noop"); rr.Code != http.StatusAccepted {
		t.Fatalf("expected custom terminal, got %d", rr.Code)
	}
	if rr := serve(m, http.MethodGet, "/missing"); rr.Code != http.StatusGone {
		t.Fatalf("expected custom not found, got %d", rr.Code)
	}
}

func TestMuxRejectsBadRegistrations(t *testing.T) {
	m := quietMux()

	if err := m.Handle("FETCH", "/pets"); !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
	if err := m.Get("pets"); !errors.Is(err, ErrInvalidRoute) {
		t.Fatalf("expected ErrInvalidRoute for relative pattern, got %v", err)
	}
	if err := m.Get("/pets/{id"); !errors.Is(err, ErrInvalidRoute) {
		t.Fatalf("expected ErrInvalidRoute for broken pattern, got %v", err)
	}
	if got := len(m.Registered()); got != 0 {
		t.Fatalf("expected failed registrations to leave no routes, got %d", got)
	}
}

func TestMuxExposesPathParams(t *testing.T) {
	m := quietMux()
	var got map[string]string
	if err := m.Get("/owners/{owner}/pets/{id}", HandlerFunc("show", func(w http.ResponseWriter, r *http.Request) {
		got = Params(r)
		io.WriteString(w, Param(r, "id"))
	})); err != nil {
		t.Fatalf("unexpected registration error: %v", err)
	}

	rr := serve(m, http.MethodGet, "/owners/ann/pets/42")
	if rr.Body.String() != "42" {
		t.Fatalf("expected id param, got %q", rr.Body.String())
	}
	if !reflect.DeepEqual(got, map[string]string{"owner": "ann", "id": "42"}) {
		t.Fatalf("unexpected params %v", got)
	}
}

func TestMuxMatchesDecodedPath(t *testing.T) {
	m := quietMux()
	if err := m.Get("/docs/Pets API (v1).json", HandlerFunc("doc", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "doc")
	})); err != nil {
		t.Fatalf("unexpected registration error: %v", err)
	}

	for _, target := range []string{"/docs/Pets%20API%20(v1).json", "/docs/Pets%20API%20%28v1%29.json"} {
		if rr := serve(m, http.MethodGet, target); rr.Code != http.StatusOK || rr.Body.String() != "doc" {
			t.Fatalf("%s: expected doc, got %d %q", target, rr.Code, rr.Body.String())
		}
	}
}

func TestMuxHandleAllIsAllOrNothing(t *testing.T) {
	m := quietMux()
	ok := HandlerFunc("ok", func(w http.ResponseWriter, r *http.Request) {})

	err := m.HandleAll(
		Registration{Method: http.MethodGet, Pattern: "/a", Chain: []NamedMiddleware{ok}},
		Registration{Method: http.MethodGet, Pattern: "/b/{id", Chain: []NamedMiddleware{ok}},
	)
	if !errors.Is(err, ErrInvalidRoute) {
		t.Fatalf("expected ErrInvalidRoute, got %v", err)
	}
	if got := len(m.Registered()); got != 0 {
		t.Fatalf("expected no routes after a failed batch, got %d", got)
	}

	if err := m.HandleAll(
		Registration{Method: http.MethodGet, Pattern: "/a", Chain: []NamedMiddleware{ok}},
		Registration{Method: "post", Pattern: "/a", Chain: []NamedMiddleware{ok}},
		Registration{Method: http.MethodGet, Pattern: "/a", Chain: []NamedMiddleware{Named("last", nil), ok}},
	); err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}
	routes := m.Registered()
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if !reflect.DeepEqual(routes[0].Chain, []string{"last", "ok"}) || routes[1].Method != http.MethodPost {
		t.Fatalf("unexpected routes %+v", routes)
	}
	if rr := serve(m, http.MethodPost, "/a"); rr.Code != http.StatusOK {
		t.Fatalf("expected POST /a to be served, got %d", rr.Code)
	}
}

func TestMuxConcurrentRegistrationWhileServing(t *testing.T) {
	m := quietMux()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = m.Get(fmt.Sprintf("/r/%d", i), HandlerFunc("ok", func(w http.ResponseWriter, r *http.Request) {}))
		}(i)
		go func(i int) {
			defer wg.Done()
			serve(m, http.MethodGet, fmt.Sprintf("/r/%d", i))
		}(i)
	}
	wg.Wait()

	if got := len(m.Registered()); got != 20 {
		t.Fatalf("expected 20 routes, got %d", got)
	}
}

func TestDispatcherMiddlewareOverride(t *testing.T) {
	var order []string
	m := New(WithMiddlewareChain(
		recordingMiddleware("one", &order),
		recordingMiddleware("two", &order),
	))

	serve(m, http.MethodGet, "/")

	expected := []string{"one-before", "two-before", "two-after", "one-after"}
	if !reflect.DeepEqual(order, expected) {
		t.Fatalf("unexpected middleware order: got %v, want %v", order, expected)
	}
}

func TestDispatcherPrependAndAppendMiddlewares(t *testing.T) {
	var order []string
	m := New(
		WithoutCORSMiddleware(),
		WithoutTimeoutMiddleware(),
		WithoutLoggingMiddleware(),
		WithMiddlewares(recordingMiddleware("outer", &order)),
		WithTrailingMiddlewares(recordingMiddleware("inner", &order)),
	)

	serve(m, http.MethodGet, "/")

	expected := []string{"outer-before", "inner-before", "inner-after", "outer-after"}
	if !reflect.DeepEqual(order, expected) {
		t.Fatalf("unexpected middleware order: got %v want %v", order, expected)
	}
}

func TestDispatcherAppliesCORSFromConfig(t *testing.T) {
	m := quietMux(WithConfigMutator(func(cfg *Config) {
		cfg.CORS = CORSConfig{
			Origins:          []string{"https://example.com"},
			Methods:          []string{http.MethodGet, http.MethodPost},
			Headers:          []string{"Content-Type"},
			AllowCredentials: true,
		}
	}))

	req := httptest.NewRequest(http.MethodOptions, "/pets", nil)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	m.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("unexpected access-control-allow-origin: %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET,POST" {
		t.Fatalf("unexpected access-control-allow-methods: %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("unexpected access-control-allow-credentials: %q", got)
	}
}

func TestDispatcherTimeoutCanBeDisabled(t *testing.T) {
	slow := HandlerFunc("slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	withTimeout := quietMux(WithConfig(Config{Timeout: time.Millisecond}))
	withoutTimeout := quietMux(WithConfig(Config{Timeout: time.Millisecond}), WithoutTimeoutMiddleware())
	for _, m := range []*Mux{withTimeout, withoutTimeout} {
		if err := m.Get("/slow", slow); err != nil {
			t.Fatalf("unexpected registration error: %v", err)
		}
	}

	if rr := serve(withTimeout, http.MethodGet, "/slow"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected timeout handler to fire, got %d", rr.Code)
	}
	if rr := serve(withoutTimeout, http.MethodGet, "/slow"); rr.Code != http.StatusOK {
		t.Fatalf("expected handler to complete when timeout disabled, got %d", rr.Code)
	}
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	m := quietMux(WithLogger(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	rr := serve(m, http.MethodGet, "/anything")
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set("X-Request-Id", "fixed")
	rr = httptest.NewRecorder()
	m.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-Id"); got != "fixed" {
		t.Fatalf("expected caller request id to be echoed, got %q", got)
	}
}

func TestRedactHeaders(t *testing.T) {
	headers := http.Header{"Authorization": {"Bearer secret"}, "Accept": {"*/*"}}
	redactHeaders(headers, []string{"authorization"})

	if got := headers.Get("Authorization"); got != "[REDACTED - 13 bytes]" {
		t.Fatalf("unexpected redaction %q", got)
	}
	if got := headers.Get("Accept"); got != "*/*" {
		t.Fatalf("expected untouched header, got %q", got)
	}
}

func recordingMiddleware(label string, sink *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*sink = append(*sink, label+"-before")
			next.ServeHTTP(w, r)
			*sink = append(*sink, label+"-after")
		})
	}
}

func recordingUnit(label string, sink *[]string) NamedMiddleware {
	return Named(label, recordingMiddleware(label, sink))
}
