package info

import (
	"time"

	"github.com/drblury/oairouter/probe"
	"github.com/drblury/oairouter/responder"
)

// InfoProvider returns the payload that will be exposed by the version endpoint.
// The provider allows callers to inject their own source for build metadata or
// runtime diagnostics.
type InfoProvider func() any

// InfoOption follows the functional options pattern used by NewInfoHandler to
// configure optional collaborators such as the responder and probes.
type InfoOption func(*InfoHandler)

const defaultProbeTimeout = 2 * time.Second

// ProbeFunc is executed to determine the outcome of liveness or readiness
// probes. Returning a non-nil error marks the probe as failed.
type ProbeFunc = probe.Func

// Check is a named probe. The name appears in probe payloads and failures.
type Check struct {
	Name  string
	Probe ProbeFunc
}

// Named pairs a probe with its name.
func Named(name string, fn ProbeFunc) Check {
	return Check{Name: name, Probe: fn}
}

// InfoHandler serves status, liveness, readiness and version endpoints.
type InfoHandler struct {
	*responder.Responder
	infoProvider    InfoProvider
	probeTimeout    time.Duration
	livenessChecks  []Check
	readinessChecks []Check
}

// NewInfoHandler constructs an InfoHandler with sensible defaults.
func NewInfoHandler(opts ...InfoOption) *InfoHandler {
	ih := &InfoHandler{
		Responder: responder.New(),
		infoProvider: func() any {
			return map[string]string{}
		},
		probeTimeout: defaultProbeTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ih)
		}
	}
	return ih
}

// WithInfoResponder replaces the responder used to craft JSON responses and
// handle error reporting.
func WithInfoResponder(responder *responder.Responder) InfoOption {
	return func(ih *InfoHandler) {
		if responder != nil {
			ih.Responder = responder
		}
	}
}

// WithInfoProvider swaps the default metadata provider with a user supplied
// implementation.
func WithInfoProvider(provider InfoProvider) InfoOption {
	return func(ih *InfoHandler) {
		if provider != nil {
			ih.infoProvider = provider
		}
	}
}

// WithProbeTimeout adjusts the maximum duration allowed for probe checks.
func WithProbeTimeout(timeout time.Duration) InfoOption {
	return func(ih *InfoHandler) {
		if timeout > 0 {
			ih.probeTimeout = timeout
		}
	}
}

// WithLivenessChecks replaces the liveness checks.
func WithLivenessChecks(checks ...Check) InfoOption {
	return func(ih *InfoHandler) {
		ih.livenessChecks = filterChecks(checks)
	}
}

// WithReadinessChecks appends readiness checks.
func WithReadinessChecks(checks ...Check) InfoOption {
	return func(ih *InfoHandler) {
		ih.readinessChecks = append(ih.readinessChecks, filterChecks(checks)...)
	}
}

// WithBootState makes readiness fail until the router has booted.
func WithBootState(b probe.BootWaiter) InfoOption {
	return WithReadinessChecks(Named("oairouter", probe.NewBootProbe("oairouter", b)))
}
