package builtin

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/drblury/oairouter/plugin"
	"github.com/drblury/oairouter/router"
)

// HandlerPluginName is the chain unit name of the Handlers plugin.
const HandlerPluginName = "handler"

// Handlers binds application handlers to operations by operationId.
// Operations without a bound handler are left to the rest of the chain.
type Handlers struct {
	mu       sync.RWMutex
	handlers map[string]http.Handler
}

// NewHandlers returns a Handlers plugin seeded with handlers.
func NewHandlers(handlers map[string]http.Handler) *Handlers {
	h := &Handlers{handlers: make(map[string]http.Handler, len(handlers))}
	for id, handler := range handlers {
		h.Bind(id, handler)
	}
	return h
}

// Bind registers handler for operationID, replacing any earlier binding.
func (h *Handlers) Bind(operationID string, handler http.Handler) {
	if handler == nil {
		panic("builtin: handler cannot be nil")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[operationID] = handler
}

// BindFunc is Bind for plain functions.
func (h *Handlers) BindFunc(operationID string, fn http.HandlerFunc) {
	h.Bind(operationID, fn)
}

func (h *Handlers) Name() string     { return HandlerPluginName }
func (h *Handlers) Fields() []string { return []string{"operationId"} }

// Configure accepts additional bindings as mount arguments.
func (h *Handlers) Configure(_ context.Context, args any, _ plugin.Options) error {
	switch bindings := args.(type) {
	case nil:
	case map[string]http.Handler:
		for id, handler := range bindings {
			h.Bind(id, handler)
		}
	case map[string]http.HandlerFunc:
		for id, fn := range bindings {
			h.Bind(id, fn)
		}
	default:
		return fmt.Errorf("unsupported handler bindings %T", args)
	}
	return nil
}

func (h *Handlers) Middleware(_ context.Context, req plugin.Request, _ any) (router.Middleware, error) {
	h.mu.RLock()
	handler, ok := h.handlers[req.Operation.OperationID]
	h.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return func(http.Handler) http.Handler { return handler }, nil
}
