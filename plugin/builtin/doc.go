// Package builtin contains the plugins most OAI routers mount: operation
// handlers, example based mocks, request validation, per-operation rate
// limits and Prometheus instrumentation.
package builtin
