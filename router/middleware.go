package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/drblury/oairouter/responder"
)

// Middleware wraps an http.Handler to produce a new http.Handler.
type Middleware func(http.Handler) http.Handler

// NamedMiddleware is one unit of a route chain. Name identifies the unit in
// mount logs and diagnostics.
type NamedMiddleware struct {
	Name       string
	Middleware Middleware
}

// Named pairs a middleware with its diagnostic name.
func Named(name string, mw Middleware) NamedMiddleware {
	return NamedMiddleware{Name: name, Middleware: mw}
}

// Handler turns a final handler into a chain unit that never calls next.
func Handler(name string, h http.Handler) NamedMiddleware {
	return Named(name, func(http.Handler) http.Handler { return h })
}

// HandlerFunc is Handler for plain functions.
func HandlerFunc(name string, fn http.HandlerFunc) NamedMiddleware {
	return Handler(name, fn)
}

// Names returns the unit names of chain in order.
func Names(chain []NamedMiddleware) []string {
	names := make([]string, 0, len(chain))
	for _, unit := range chain {
		names = append(names, unit.Name)
	}
	return names
}

// Chain composes chain around terminal. The first unit runs outermost.
func Chain(chain []NamedMiddleware, terminal http.Handler) http.Handler {
	middlewares := make([]Middleware, 0, len(chain))
	for _, unit := range chain {
		middlewares = append(middlewares, unit.Middleware)
	}
	return applyMiddlewares(terminal, middlewares)
}

func applyMiddlewares(handler http.Handler, middlewares []Middleware) http.Handler {
	if len(middlewares) == 0 {
		return handler
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		middleware := middlewares[i]
		if middleware == nil {
			continue
		}
		handler = middleware(handler)
	}

	return handler
}

// RequestLogger logs every request at debug level with sensitive headers
// redacted, and makes sure the request carries a correlation id.
func RequestLogger(logger *slog.Logger, quietdownRoutes []string, hideHeaders []string) Middleware {
	logger.Debug("config for request logging middleware",
		"quietdownRoutes", quietdownRoutes,
		"hideHeaders", hideHeaders,
	)

	quietRoutesCopy := cloneStrings(quietdownRoutes)
	redactedCopy := cloneStrings(hideHeaders)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(responder.RequestIDHeader)
			if requestID == "" {
				requestID = responder.NewTraceID()
				r.Header.Set(responder.RequestIDHeader, requestID)
			}
			w.Header().Set(responder.RequestIDHeader, requestID)

			if !slices.Contains(quietRoutesCopy, r.URL.Path) {
				headers := cloneHeaders(r.Header)
				redactHeaders(headers, redactedCopy)

				attrs := []any{
					"path", r.URL.Path,
					"method", r.Method,
					"requestId", requestID,
					"header", headers,
				}
				if r.ContentLength > 0 {
					attrs = append(attrs, "contentLength", r.ContentLength)
				}

				logger.DebugContext(r.Context(), "request", attrs...)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORS adds CORS headers based on cfg and answers preflight requests.
func CORS(cfg CORSConfig) Middleware {
	cfg = sanitizeCORSConfig(cfg)

	return func(next http.Handler) http.Handler {
		if len(cfg.Origins) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if allowedOrigin(origin, cfg.Origins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.Methods, ","))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.Headers, ","))
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Timeout bounds request handling with http.TimeoutHandler.
func Timeout(timeout time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, "Timeout")
	}
}

func allowedOrigin(origin string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == "*" || candidate == origin {
			return true
		}
	}

	return false
}

func cloneHeaders(src http.Header) http.Header {
	headers := make(http.Header, len(src))
	for k, v := range src {
		headers[k] = slices.Clone(v)
	}

	return headers
}

func redactHeaders(headers http.Header, hideHeaders []string) {
	for _, header := range hideHeaders {
		canonical := http.CanonicalHeaderKey(header)
		values, exists := headers[canonical]
		if !exists {
			continue
		}

		redactedLen := 0
		for _, value := range values {
			redactedLen += len(value)
		}

		headers[canonical] = []string{fmt.Sprintf("[REDACTED - %d bytes]", redactedLen)}
	}
}
