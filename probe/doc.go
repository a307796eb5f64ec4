// Package probe converts ping functions, MongoDB clients and the OAI router
// boot state into checks for the info handler's liveness and readiness
// endpoints. See ExampleNewPingProbe and ExampleNewBootProbe.
package probe
