// Package router is the routing layer underneath the OAI router: a method
// keyed Mux whose routes can be registered while it already serves traffic,
// wrapped in CORS, timeout and request logging defaults.
//
// Routes are chains of NamedMiddleware. The name of each unit shows up in
// mount logs so a resolved chain can be read back as "validator > handler".
// Paths use chi's native {param} tokens; RewritePath converts OpenAPI path
// templates into them. ExampleMux_Handle shows dynamic registration.
package router
