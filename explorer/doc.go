// Package explorer publishes a Swagger UI for the loaded API documents.
//
// The Publisher mounts the UI page, its static assets, one JSON endpoint per
// document and the UI configuration listing those documents. Assets are
// embedded; callers serving an offline copy of swagger-ui can replace them
// with WithAssets.
package explorer
