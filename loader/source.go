package loader

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Source identifies where API documents come from. Custom loaders may accept
// their own Source types; the String form is used in logs.
type Source interface {
	fmt.Stringer
}

type fileSource string

func (s fileSource) String() string { return "file:" + string(s) }

type filesSource []string

func (s filesSource) String() string { return "files:" + strings.Join(s, ",") }

type dirSource string

func (s dirSource) String() string { return "dir:" + string(s) }

type dataSource []byte

func (s dataSource) String() string { return fmt.Sprintf("data:%d bytes", len(s)) }

type documentSource struct {
	doc *openapi3.T
}

func (s documentSource) String() string {
	if title := Title(s.doc); title != "" {
		return "document:" + title
	}
	return "document"
}

type urlSource string

func (s urlSource) String() string { return "url:" + string(s) }

// File loads a single JSON or YAML document from path.
func File(path string) Source { return fileSource(path) }

// Files loads every path as its own document, in the given order.
func Files(paths ...string) Source {
	cloned := make([]string, len(paths))
	copy(cloned, paths)
	return filesSource(cloned)
}

// Dir loads every *.json, *.yaml and *.yml file directly inside path as its
// own document, ordered by file name.
func Dir(path string) Source { return dirSource(path) }

// Data loads a single document from raw JSON or YAML bytes.
func Data(data []byte) Source { return dataSource(data) }

// Document wraps an already parsed document.
func Document(doc *openapi3.T) Source { return documentSource{doc: doc} }

// URL loads a single document from a remote location.
func URL(raw string) Source { return urlSource(raw) }
