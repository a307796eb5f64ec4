package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	oasyaml "github.com/oasdiff/yaml"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedSource is returned for Source types the default loader
	// does not know.
	ErrUnsupportedSource = errors.New("loader: unsupported source")
	// ErrNoDocuments is returned when a multi-document source is empty.
	ErrNoDocuments = errors.New("loader: no documents found")
	// ErrUnknownFormat is returned for inputs declaring neither an openapi
	// nor a swagger version.
	ErrUnknownFormat = errors.New("loader: unknown document format")
)

var documentExtensions = map[string]struct{}{
	".json": {},
	".yaml": {},
	".yml":  {},
}

// Result is what a Loader produced. Multiple distinguishes a sequence of
// documents from a single one even when the sequence has one element.
type Result struct {
	Documents []*openapi3.T
	Multiple  bool
}

// Loader turns a Source into normalized documents.
type Loader interface {
	Load(ctx context.Context, src Source, logger *slog.Logger) (Result, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, src Source, logger *slog.Logger) (Result, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, src Source, logger *slog.Logger) (Result, error) {
	return f(ctx, src, logger)
}

// Option configures the default loader.
type Option func(*Default)

// WithValidation validates every document against the OpenAPI 3 rules after
// loading.
func WithValidation() Option {
	return func(l *Default) {
		l.validate = true
	}
}

// WithExternalRefs toggles resolution of $refs pointing at other files or
// URLs. Enabled by default.
func WithExternalRefs(enabled bool) Option {
	return func(l *Default) {
		l.externalRefs = enabled
	}
}

// Default is the kin-openapi backed Loader used when none is configured.
type Default struct {
	validate     bool
	externalRefs bool
}

// New returns the default loader.
func New(opts ...Option) *Default {
	l := &Default{externalRefs: true}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load implements Loader.
func (l *Default) Load(ctx context.Context, src Source, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		res Result
		err error
	)
	switch s := src.(type) {
	case fileSource:
		res, err = l.single(l.loadFile(ctx, string(s)))
	case filesSource:
		res, err = l.loadFiles(ctx, s)
	case dirSource:
		res, err = l.loadDir(ctx, string(s))
	case dataSource:
		res, err = l.single(l.loadData(ctx, s, nil))
	case urlSource:
		res, err = l.single(l.loadURL(ctx, string(s)))
	case documentSource:
		if s.doc == nil {
			return Result{}, fmt.Errorf("%w: nil document", ErrUnsupportedSource)
		}
		res = Result{Documents: []*openapi3.T{s.doc}}
	case nil:
		return Result{}, fmt.Errorf("%w: nil source", ErrUnsupportedSource)
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnsupportedSource, src)
	}
	if err != nil {
		return Result{}, err
	}

	for _, doc := range res.Documents {
		if l.validate {
			if err := doc.Validate(ctx); err != nil {
				return Result{}, fmt.Errorf("validate %q: %w", Title(doc), err)
			}
		}
		logger.DebugContext(ctx, "api document loaded", "source", src.String(), "title", Title(doc), "paths", doc.Paths.Len())
	}
	return res, nil
}

func (l *Default) single(doc *openapi3.T, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Documents: []*openapi3.T{doc}}, nil
}

func (l *Default) loadFiles(ctx context.Context, paths []string) (Result, error) {
	if len(paths) == 0 {
		return Result{}, ErrNoDocuments
	}

	docs := make([]*openapi3.T, 0, len(paths))
	for _, path := range paths {
		doc, err := l.loadFile(ctx, path)
		if err != nil {
			return Result{}, err
		}
		docs = append(docs, doc)
	}
	return Result{Documents: docs, Multiple: true}, nil
}

func (l *Default) loadDir(ctx context.Context, dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("read api directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := documentExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return Result{}, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}
	return l.loadFiles(ctx, paths)
}

func (l *Default) loadFile(ctx context.Context, path string) (*openapi3.T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read api document: %w", err)
	}
	doc, err := l.loadData(ctx, data, &url.URL{Path: filepath.ToSlash(path)})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}

func (l *Default) loadURL(ctx context.Context, raw string) (*openapi3.T, error) {
	location, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api document url: %w", err)
	}
	doc, err := l.newKinLoader(ctx).LoadFromURI(location)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", raw, err)
	}
	return doc, nil
}

func (l *Default) loadData(ctx context.Context, data []byte, location *url.URL) (*openapi3.T, error) {
	var version struct {
		OpenAPI string `yaml:"openapi"`
		Swagger string `yaml:"swagger"`
	}
	if err := yaml.Unmarshal(data, &version); err != nil {
		return nil, fmt.Errorf("decode api document: %w", err)
	}

	kin := l.newKinLoader(ctx)
	switch {
	case strings.HasPrefix(version.Swagger, "2"):
		var doc2 openapi2.T
		if err := oasyaml.Unmarshal(data, &doc2); err != nil {
			return nil, fmt.Errorf("decode swagger document: %w", err)
		}
		doc, err := openapi2conv.ToV3WithLoader(&doc2, kin, location)
		if err != nil {
			return nil, fmt.Errorf("convert swagger document: %w", err)
		}
		// Conversion only emits servers when a host is declared.
		if len(doc.Servers) == 0 && doc2.BasePath != "" {
			doc.AddServer(&openapi3.Server{URL: doc2.BasePath})
		}
		return doc, nil
	case version.OpenAPI != "":
		if location != nil {
			return kin.LoadFromDataWithPath(data, location)
		}
		return kin.LoadFromData(data)
	default:
		return nil, ErrUnknownFormat
	}
}

func (l *Default) newKinLoader(ctx context.Context) *openapi3.Loader {
	kin := openapi3.NewLoader()
	kin.Context = ctx
	kin.IsExternalRefsAllowed = l.externalRefs
	return kin
}
