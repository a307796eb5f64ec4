// Package info exposes build metadata and health probes next to the OAI
// routes.
//
// Readiness includes the router's boot state when WithBootState is used, so
// orchestrators only route traffic once every OpenAPI route is mounted.
//
// See ExampleInfoHandler_full for a runnable wiring of the handler and probes.
package info
