package builtin

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/oairouter/plugin"
	"github.com/drblury/oairouter/responder"
	"github.com/drblury/oairouter/router"
)

// MockPluginName is the chain unit name of the Mock plugin.
const MockPluginName = "mock"

// Mock answers operations with the first success example declared in the
// document. Mount it after Handlers so it only serves unbound operations.
type Mock struct {
	resp *responder.Responder
}

// NewMock returns a Mock rendering through resp.
func NewMock(resp *responder.Responder) *Mock {
	if resp == nil {
		resp = responder.New()
	}
	return &Mock{resp: resp}
}

func (m *Mock) Name() string     { return MockPluginName }
func (m *Mock) Fields() []string { return []string{"responses"} }

func (m *Mock) Middleware(_ context.Context, req plugin.Request, _ any) (router.Middleware, error) {
	ex, ok := successExample(req.Operation)
	if !ok {
		return nil, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, isString := ex.value.(string); isString && !strings.Contains(ex.contentType, "json") {
				m.resp.RespondWithContent(w, r, ex.status, ex.contentType, []byte(s))
				return
			}
			m.resp.RespondWithJSON(w, r, ex.status, ex.value)
		})
	}, nil
}

type example struct {
	status      int
	contentType string
	value       any
}

func successExample(op *openapi3.Operation) (example, bool) {
	if op == nil || op.Responses == nil {
		return example{}, false
	}

	responses := op.Responses.Map()
	codes := make([]string, 0, len(responses))
	for code := range responses {
		if strings.HasPrefix(code, "2") {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)

	for _, code := range codes {
		ref := responses[code]
		if ref == nil || ref.Value == nil {
			continue
		}
		status, err := strconv.Atoi(code)
		if err != nil {
			status = http.StatusOK
		}
		if contentType, value, ok := contentExample(ref.Value.Content); ok {
			return example{status: status, contentType: contentType, value: value}, true
		}
	}
	return example{}, false
}

func contentExample(content openapi3.Content) (string, any, bool) {
	types := make([]string, 0, len(content))
	for contentType := range content {
		types = append(types, contentType)
	}
	slices.SortFunc(types, func(a, b string) int {
		// JSON first, then alphabetical.
		aj, bj := strings.Contains(a, "json"), strings.Contains(b, "json")
		switch {
		case aj && !bj:
			return -1
		case bj && !aj:
			return 1
		}
		return strings.Compare(a, b)
	})

	for _, contentType := range types {
		media := content[contentType]
		if media == nil {
			continue
		}
		if media.Example != nil {
			return contentType, media.Example, true
		}

		names := make([]string, 0, len(media.Examples))
		for name := range media.Examples {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if ref := media.Examples[name]; ref != nil && ref.Value != nil && ref.Value.Value != nil {
				return contentType, ref.Value.Value, true
			}
		}
	}
	return "", nil, false
}
