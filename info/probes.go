package info

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type probePayload struct {
	Status  string   `json:"status"`
	Details []string `json:"details,omitempty"`
}

func (ih *InfoHandler) respondProbe(w http.ResponseWriter, r *http.Request, statusCode int, state string, details ...string) {
	payload := probePayload{Status: state}
	if len(details) > 0 {
		payload.Details = append(payload.Details, details...)
	}
	ih.RespondWithJSON(w, r, statusCode, payload)
}

// runChecks runs checks in order under one shared deadline and stops at the
// first failure. It returns the names of the checks that passed.
func (ih *InfoHandler) runChecks(ctx context.Context, checks []Check) ([]string, error) {
	if len(checks) == 0 {
		return nil, nil
	}

	timeout := ih.probeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	passed := make([]string, 0, len(checks))
	for idx, check := range checks {
		if check.Probe == nil {
			continue
		}
		name := check.Name
		if name == "" {
			name = fmt.Sprintf("probe %d", idx+1)
		}

		if err := check.Probe(probeCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return passed, fmt.Errorf("%s timed out after %s", name, timeout)
			}
			if errors.Is(err, context.Canceled) {
				return passed, fmt.Errorf("%s was cancelled", name)
			}
			return passed, fmt.Errorf("%s failed: %w", name, err)
		}
		passed = append(passed, name)
	}

	return passed, nil
}

func filterChecks(checks []Check) []Check {
	if len(checks) == 0 {
		return nil
	}

	filtered := make([]Check, 0, len(checks))
	for _, check := range checks {
		if check.Probe != nil {
			filtered = append(filtered, check)
		}
	}

	if len(filtered) == 0 {
		return nil
	}

	return filtered
}
