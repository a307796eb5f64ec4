package builtin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/drblury/oairouter/jsonutil"
	"github.com/drblury/oairouter/plugin"
	"github.com/drblury/oairouter/responder"
	"github.com/drblury/oairouter/router"
)

const (
	// RateLimitPluginName is the chain unit name of the RateLimit plugin.
	RateLimitPluginName = "ratelimit"
	// RateLimitExtension is the operation extension carrying the limit.
	RateLimitExtension = "x-rate-limit"
)

var errRateLimited = errors.New("rate limit exceeded")

// RateLimitSpec is the value of the x-rate-limit extension. Rate is in
// requests per second; Burst defaults to the rounded-up rate.
type RateLimitSpec struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

// RateLimitOption configures a RateLimit plugin.
type RateLimitOption func(*RateLimit)

// WithRateLimitKey partitions every operation's budget by key, for example
// per client address. The default shares one budget per operation.
func WithRateLimitKey(fn func(*http.Request) string) RateLimitOption {
	return func(rl *RateLimit) {
		if fn != nil {
			rl.keyFunc = fn
		}
	}
}

// WithRateLimitIdle sets how long an idle per-key limiter is kept.
func WithRateLimitIdle(d time.Duration) RateLimitOption {
	return func(rl *RateLimit) {
		if d > 0 {
			rl.maxIdle = d
		}
	}
}

// ClientIP keys limiters by the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit enforces token bucket limits declared per operation with the
// x-rate-limit extension.
type RateLimit struct {
	resp    *responder.Responder
	keyFunc func(*http.Request) string
	maxIdle time.Duration
}

// NewRateLimit returns a RateLimit plugin answering exhausted budgets through resp.
func NewRateLimit(resp *responder.Responder, opts ...RateLimitOption) *RateLimit {
	if resp == nil {
		resp = responder.New()
	}
	rl := &RateLimit{
		resp:    resp,
		keyFunc: func(*http.Request) string { return "" },
		maxIdle: 5 * time.Minute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(rl)
		}
	}
	return rl
}

func (rl *RateLimit) Name() string     { return RateLimitPluginName }
func (rl *RateLimit) Fields() []string { return []string{RateLimitExtension} }

func (rl *RateLimit) Middleware(_ context.Context, req plugin.Request, _ any) (router.Middleware, error) {
	spec, err := ParseRateLimit(req.Operation.Extensions[RateLimitExtension])
	if err != nil {
		return nil, err
	}

	var (
		mu          sync.Mutex
		limiters    = make(map[string]*limiterEntry)
		lastCleanup time.Time
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.keyFunc(r)

			mu.Lock()
			now := time.Now()
			if now.Sub(lastCleanup) >= time.Minute {
				for k, e := range limiters {
					if now.Sub(e.lastSeen) > rl.maxIdle {
						delete(limiters, k)
					}
				}
				lastCleanup = now
			}

			entry, ok := limiters[key]
			if !ok {
				entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(spec.Rate), spec.Burst)}
				limiters[key] = entry
			}
			entry.lastSeen = now
			mu.Unlock()

			if !entry.limiter.Allow() {
				rl.resp.HandleTooManyRequestsError(w, r, errRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ParseRateLimit decodes an x-rate-limit value. A bare number is a rate.
func ParseRateLimit(raw any) (RateLimitSpec, error) {
	var spec RateLimitSpec
	switch v := raw.(type) {
	case float64:
		spec.Rate = v
	case int:
		spec.Rate = float64(v)
	default:
		data, err := jsonutil.Marshal(raw)
		if err != nil {
			return RateLimitSpec{}, fmt.Errorf("encode %s: %w", RateLimitExtension, err)
		}
		if err := jsonutil.Unmarshal(data, &spec); err != nil {
			return RateLimitSpec{}, fmt.Errorf("decode %s: %w", RateLimitExtension, err)
		}
	}

	if spec.Rate <= 0 {
		return RateLimitSpec{}, fmt.Errorf("%s: rate must be positive, got %v", RateLimitExtension, spec.Rate)
	}
	if spec.Burst <= 0 {
		spec.Burst = max(1, int(spec.Rate+0.999999))
	}
	return spec, nil
}
