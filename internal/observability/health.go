package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"

	readyCheckTimeout            = 2 * time.Second
	diagnosticsReadHeaderTimeout = 5 * time.Second
)

// ReadyCheck reports whether a subsystem can serve traffic.
type ReadyCheck func(ctx context.Context) error

// HealthStatus is the body of /healthz and /readyz.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthHandler answers liveness probes. It always responds 200.
func HealthHandler(version string) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		writeHealth(rw, http.StatusOK, HealthStatus{Status: healthStatusOK, Version: version})
	})
}

// ReadyHandler answers readiness probes. Checks run in order, each bounded
// by a two second timeout; the first failure responds 503 with its error.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		for _, check := range checks {
			err := runCheck(hr.Context(), check)
			if err != nil {
				writeHealth(rw, http.StatusServiceUnavailable, HealthStatus{
					Status: healthStatusUnavailable,
					Error:  err.Error(),
				})

				return
			}
		}

		writeHealth(rw, http.StatusOK, HealthStatus{Status: healthStatusOK})
	})
}

func runCheck(ctx context.Context, check ReadyCheck) error {
	ctx, cancel := context.WithTimeout(ctx, readyCheckTimeout)
	defer cancel()

	return check(ctx)
}

func writeHealth(rw http.ResponseWriter, code int, status HealthStatus) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	// The status line is already out; a failed write has nowhere to go.
	_ = json.NewEncoder(rw).Encode(status)
}
