package responder

import (
	"log/slog"
	"net/http"
)

const (
	jsonContentType    = "application/json"
	problemContentType = "application/problem+json"
	statusDocBaseURL   = "https://httpstatuses.io"
)

// ErrorClassifierFunc inspects an error and returns the HTTP status that should
// be used for the response. The boolean reports whether the error was
// classified; unclassified errors are rendered as 500.
type ErrorClassifierFunc func(err error) (status int, handled bool)

// Option configures a Responder.
type Option func(*Responder)

type statusMeta struct {
	typeURI  string
	title    string
	logLevel slog.Level
	logMsg   string
}

// StatusMetadata customises how a status code is logged and titled in
// problem payloads.
type StatusMetadata struct {
	TypeURI  string
	Title    string
	LogLevel slog.Level
	LogMsg   string
}

// Responder renders JSON bodies, static content and RFC 9457 problems for the
// routes mounted by the OAI router, the explorer and the built-in plugins.
type Responder struct {
	log             *slog.Logger
	statusMetadata  map[int]statusMeta
	errorClassifier ErrorClassifierFunc
}

// New constructs a Responder backed by slog.Default.
func New(opts ...Option) *Responder {
	r := &Responder{
		log:            slog.Default(),
		statusMetadata: defaultStatusMetadata(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// WithLogger injects the logger used for problem reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithErrorClassifier installs a classifier used by HandleErrors.
func WithErrorClassifier(classifier ErrorClassifierFunc) Option {
	return func(r *Responder) {
		r.errorClassifier = classifier
	}
}

// WithStatusMetadata overrides the problem metadata for a status code.
func WithStatusMetadata(status int, meta StatusMetadata) Option {
	return func(r *Responder) {
		if r.statusMetadata == nil {
			r.statusMetadata = make(map[int]statusMeta)
		}
		// slog.LevelInfo is the zero value, so an unset level means error.
		level := meta.LogLevel
		if level == 0 {
			level = slog.LevelError
		}
		r.statusMetadata[status] = normalizeStatusMeta(status, statusMeta{
			typeURI:  meta.TypeURI,
			title:    meta.Title,
			logLevel: level,
			logMsg:   meta.LogMsg,
		})
	}
}

// Logger returns the logger used by the responder.
func (r *Responder) Logger() *slog.Logger {
	return r.logger()
}

func (r *Responder) logger() *slog.Logger {
	if r == nil || r.log == nil {
		return slog.Default()
	}
	return r.log
}

func (r *Responder) classifyError(err error) (int, bool) {
	if r == nil || r.errorClassifier == nil {
		return 0, false
	}
	return r.errorClassifier(err)
}

func defaultStatusMetadata() map[int]statusMeta {
	return map[int]statusMeta{
		http.StatusInternalServerError: {title: http.StatusText(http.StatusInternalServerError), logLevel: slog.LevelError, logMsg: "Internal Server Error"},
		http.StatusBadRequest:          {title: http.StatusText(http.StatusBadRequest), logLevel: slog.LevelWarn, logMsg: "Request validation failed"},
		http.StatusUnauthorized:        {title: http.StatusText(http.StatusUnauthorized), logLevel: slog.LevelWarn, logMsg: "Unauthorized"},
		http.StatusTooManyRequests:     {title: http.StatusText(http.StatusTooManyRequests), logLevel: slog.LevelInfo, logMsg: "Rate limit exceeded"},
		http.StatusNotImplemented:      {title: http.StatusText(http.StatusNotImplemented), logLevel: slog.LevelWarn, logMsg: "Operation has no handler"},
	}
}
