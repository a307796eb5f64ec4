package responder

import (
	mathrand "math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestIDHeader carries the correlation id shared by request logs and
// problem documents.
const RequestIDHeader = "X-Request-Id"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewTraceID returns a monotonic ULID string.
func NewTraceID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func traceIDFor(req *http.Request) string {
	if req != nil {
		if id := req.Header.Get(RequestIDHeader); id != "" {
			return id
		}
	}
	return NewTraceID()
}
