package builtin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapiMW "github.com/oapi-codegen/nethttp-middleware"

	"github.com/drblury/oairouter/plugin"
	"github.com/drblury/oairouter/responder"
	"github.com/drblury/oairouter/router"
)

// ValidatorPluginName is the chain unit name of the Validator plugin.
const ValidatorPluginName = "validator"

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithAuthenticationFunc validates security requirements. The default
// accepts every request.
func WithAuthenticationFunc(fn openapi3filter.AuthenticationFunc) ValidatorOption {
	return func(v *Validator) {
		if fn != nil {
			v.auth = fn
		}
	}
}

// Validator checks incoming requests against the operation's parameters and
// request body. Failures are answered with a problem document and never
// reach the rest of the chain.
type Validator struct {
	resp *responder.Responder
	auth openapi3filter.AuthenticationFunc

	mu    sync.Mutex
	cache map[*openapi3.T]router.Middleware
}

// NewValidator returns a Validator rendering failures through resp.
func NewValidator(resp *responder.Responder, opts ...ValidatorOption) *Validator {
	if resp == nil {
		resp = responder.New()
	}
	v := &Validator{
		resp:  resp,
		auth:  func(context.Context, *openapi3filter.AuthenticationInput) error { return nil },
		cache: make(map[*openapi3.T]router.Middleware),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

func (v *Validator) Name() string     { return ValidatorPluginName }
func (v *Validator) Fields() []string { return []string{"parameters", "requestBody"} }

func (v *Validator) Middleware(_ context.Context, req plugin.Request, _ any) (router.Middleware, error) {
	if req.Document == nil {
		return nil, errors.New("validator: request has no document")
	}

	validate, err := v.forDocument(req.Document)
	if err != nil {
		return nil, err
	}
	mountedAt := strings.TrimSuffix(router.JoinPath(req.Options.Prefix, req.BasePath), "/")

	return func(next http.Handler) http.Handler {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rw, ok := w.(*requestWriter); ok {
				w = rw.ResponseWriter
				r.URL = rw.req.URL
			}
			next.ServeHTTP(w, r)
		})
		checked := validate(inner)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			stripped := r.Clone(r.Context())
			stripped.URL.Path = relativePath(r.URL.Path, mountedAt)
			stripped.URL.RawPath = ""
			checked.ServeHTTP(&requestWriter{ResponseWriter: w, req: r}, stripped)
		})
	}, nil
}

// forDocument builds one validator per document. Servers are dropped from
// the copy handed to the validator because requests arrive already stripped
// of the mount prefix and base path.
func (v *Validator) forDocument(doc *openapi3.T) (mw router.Middleware, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if cached, ok := v.cache[doc]; ok {
		return cached, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			mw = nil
			err = fmt.Errorf("validator: build request validator: %v", rec)
		}
	}()

	local := *doc
	local.Servers = nil

	validatorOptions := &oapiMW.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: v.auth,
		},
		ErrorHandler: v.handleError,
	}
	built := router.Middleware(oapiMW.OapiRequestValidatorWithOptions(&local, validatorOptions))
	v.cache[doc] = built
	return built, nil
}

func (v *Validator) handleError(w http.ResponseWriter, message string, statusCode int) {
	var req *http.Request
	if rw, ok := w.(*requestWriter); ok {
		req = rw.req
		w = rw.ResponseWriter
	}
	v.resp.HandleAPIError(w, req, statusCode, errors.New(message))
}

// requestWriter carries the original request to the validator's error
// handler, whose signature has no request.
type requestWriter struct {
	http.ResponseWriter
	req *http.Request
}

func relativePath(path, mountedAt string) string {
	if mountedAt == "" {
		return path
	}
	rest := strings.TrimPrefix(path, mountedAt)
	if rest == path {
		return path
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return rest
}
