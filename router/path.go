package router

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPathTemplate reports an OpenAPI path template that cannot be
// expressed as a route pattern: an unmatched brace, an empty parameter name,
// or a name containing '/', ':' or '{'.
var ErrInvalidPathTemplate = errors.New("router: invalid path template")

// ParamStyle renders a path parameter name as a routing layer token.
type ParamStyle func(name string) string

var (
	// BraceParams renders {name}, the token chi understands.
	BraceParams ParamStyle = func(name string) string { return "{" + name + "}" }
	// ColonParams renders :name, the koa/express style token.
	ColonParams ParamStyle = func(name string) string { return ":" + name }
)

// JoinPath joins URL path segments with single slashes. The result always
// starts with '/' and keeps a trailing slash only when the last non-empty
// segment had one. Joining nothing yields "/".
func JoinPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	trailing := false
	for _, segment := range segments {
		trimmed := strings.Trim(segment, "/")
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
		trailing = strings.HasSuffix(segment, "/")
	}

	if len(parts) == 0 {
		return "/"
	}

	joined := "/" + strings.Join(parts, "/")
	if trailing {
		joined += "/"
	}
	return joined
}

// RewritePath replaces every OpenAPI {name} parameter in template with the
// token produced by style. Unbalanced braces are rejected, never passed
// through.
func RewritePath(template string, style ParamStyle) (string, error) {
	if style == nil {
		style = BraceParams
	}

	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); i++ {
		switch c := template[i]; c {
		case '}':
			return "", fmt.Errorf("%w: unexpected '}' at offset %d in %q", ErrInvalidPathTemplate, i, template)
		case '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated '{' at offset %d in %q", ErrInvalidPathTemplate, i, template)
			}
			name := template[i+1 : i+1+end]
			if name == "" || strings.ContainsAny(name, "{/:") {
				return "", fmt.Errorf("%w: bad parameter name %q in %q", ErrInvalidPathTemplate, name, template)
			}
			b.WriteString(style(name))
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}
