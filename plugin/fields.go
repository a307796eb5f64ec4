package plugin

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// HasField reports whether op declares field. Field names follow the
// OpenAPI operation object; "x-" names are looked up in the extensions.
func HasField(op *openapi3.Operation, field string) bool {
	if op == nil {
		return false
	}

	if strings.HasPrefix(field, "x-") {
		_, ok := op.Extensions[field]
		return ok
	}

	switch field {
	case "operationId":
		return op.OperationID != ""
	case "tags":
		return len(op.Tags) > 0
	case "summary":
		return op.Summary != ""
	case "description":
		return op.Description != ""
	case "parameters":
		return len(op.Parameters) > 0
	case "requestBody":
		return op.RequestBody != nil
	case "responses":
		return op.Responses.Len() > 0
	case "callbacks":
		return len(op.Callbacks) > 0
	case "deprecated":
		return op.Deprecated
	case "security":
		return op.Security != nil
	case "servers":
		return op.Servers != nil
	case "externalDocs":
		return op.ExternalDocs != nil
	default:
		return false
	}
}

// matches reports whether any of fields is present on op. No fields means
// the plugin applies everywhere.
func matches(op *openapi3.Operation, fields []string) bool {
	if len(fields) == 0 {
		return true
	}
	for _, field := range fields {
		if HasField(op, field) {
			return true
		}
	}
	return false
}
