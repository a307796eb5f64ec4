// Package plugin resolves the middleware chain of every OpenAPI operation.
//
// Plugins are mounted once, before routes are built. For each operation the
// Registry asks every plugin whose fields appear on the operation for a
// middleware and returns them, in mount order, as named chain units.
package plugin
