package server

import (
	"log/slog"
	"net/http"

	"github.com/mholzi/spyster/internal/engine"
)

// HealthResponse reports engine liveness and the running session.
type HealthResponse struct {
	Status       string       `json:"status"`
	Phase        engine.Phase `json:"phase"`
	Participants int          `json:"participants"`
	Connected    int          `json:"connected"`
}

func handleHealth(logger *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := eng.Overview()
		if err != nil {
			logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "error"})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:       "ok",
			Phase:        o.Phase,
			Participants: o.Participants,
			Connected:    o.Connected,
		})
	}
}
