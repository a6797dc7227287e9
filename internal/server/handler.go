package server

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// HealthStatus is the body of the /health endpoint.
type HealthStatus struct {
	Status string `json:"status"`
}

// healthHandler responds to container health checks. It never calls Spotify.
func healthHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(HealthStatus{Status: "ok"}); err != nil {
			logger.WithError(err).Warn("failed to write health check response")
		}
	}
}
