package loader

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Title returns the document's info.title, or "" when absent.
func Title(doc *openapi3.T) string {
	if doc == nil || doc.Info == nil {
		return ""
	}
	return doc.Info.Title
}

// BasePath returns the path component of the document's first server URL,
// with server variables replaced by their defaults. Documents without
// servers are rooted at "/".
func BasePath(doc *openapi3.T) (string, error) {
	if doc == nil {
		return "/", nil
	}
	base, err := doc.Servers.BasePath()
	if err != nil {
		return "", fmt.Errorf("resolve base path of %q: %w", Title(doc), err)
	}
	return base, nil
}
