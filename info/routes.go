package info

import (
	"fmt"
	"net/http"

	"github.com/drblury/oairouter/router"
)

// Info endpoints, relative to the dispatcher prefix.
const (
	StatusPath  = "/status"
	HealthzPath = "/healthz"
	ReadyzPath  = "/readyz"
	VersionPath = "/version"
)

// GetStatus returns a simple health payload that can be used for lightweight diagnostics.
func (ih *InfoHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ih.respondProbe(w, r, http.StatusOK, "HEALTHY")
}

// GetHealthz implements the liveness probe recommended for Kubernetes.
func (ih *InfoHandler) GetHealthz(w http.ResponseWriter, r *http.Request) {
	passed, err := ih.runChecks(r.Context(), ih.livenessChecks)
	if err != nil {
		ih.HandleAPIError(w, r, http.StatusServiceUnavailable, err, "liveness probe failed")
		return
	}
	ih.respondProbe(w, r, http.StatusOK, "ok", passed...)
}

// GetReadyz implements the readiness probe recommended for Kubernetes.
func (ih *InfoHandler) GetReadyz(w http.ResponseWriter, r *http.Request) {
	passed, err := ih.runChecks(r.Context(), ih.readinessChecks)
	if err != nil {
		ih.HandleAPIError(w, r, http.StatusServiceUnavailable, err, "readiness probe failed")
		return
	}
	ih.respondProbe(w, r, http.StatusOK, "ready", passed...)
}

// GetVersion returns the structure provided by the configured InfoProvider.
func (ih *InfoHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	payload := ih.infoProvider()
	if payload == nil {
		payload = map[string]string{}
	}
	ih.RespondWithJSON(w, r, http.StatusOK, payload)
}

// Mount registers the info endpoints on mux.
func (ih *InfoHandler) Mount(mux *router.Mux) error {
	routes := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{StatusPath, ih.GetStatus},
		{HealthzPath, ih.GetHealthz},
		{ReadyzPath, ih.GetReadyz},
		{VersionPath, ih.GetVersion},
	}
	for _, route := range routes {
		if err := mux.Get(route.path, router.HandlerFunc("info"+route.path, route.handler)); err != nil {
			return fmt.Errorf("mount %s: %w", route.path, err)
		}
	}
	return nil
}
