// Package loader turns a document source into normalized OpenAPI 3
// documents. Swagger 2.0 inputs are converted on the way in, so everything
// downstream only deals with *openapi3.T.
//
// A source yields either a single document or, for directories and file
// lists, a sequence of documents in a stable order.
package loader
