package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mholzi/spyster/internal/engine"
)

type JoinRequest struct {
	Name string `json:"name"`
}

type JoinResponse struct {
	Name      string `json:"name"`
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Host      bool   `json:"host"`
}

type ResumeRequest struct {
	Token string `json:"token"`
}

type ResumeResponse struct {
	Name      string `json:"name"`
	SessionID string `json:"session_id"`
	Host      bool   `json:"host"`
}

func handleJoin(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		info, err := eng.Join(req.Name)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, JoinResponse{
			Name:      info.Name,
			Token:     info.Token,
			SessionID: info.SessionID,
			Host:      info.Host,
		})
	}
}

// handleResume restores a seat from its resumption token. Clients with
// an unknown or expired token are routed back to the join flow.
func handleResume(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResumeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Token == "" {
			writeError(w, http.StatusBadRequest, "token is required")
			return
		}

		info, err := eng.Resume(req.Token)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ResumeResponse{
			Name:      info.Name,
			SessionID: info.SessionID,
			Host:      info.Host,
		})
	}
}

// writeEngineError maps engine error kinds onto HTTP statuses, keeping
// the control protocol's error body shape.
func writeEngineError(w http.ResponseWriter, err error) {
	var e *engine.Error
	if !errors.As(err, &e) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusConflict
	switch e.Kind {
	case engine.ErrInvalidToken, engine.ErrSessionExpired:
		status = http.StatusUnauthorized
	case engine.ErrPlayerNotFound:
		status = http.StatusNotFound
	case engine.ErrInvalidTarget, engine.ErrInvalidLocation, engine.ErrNameTaken:
		status = http.StatusBadRequest
	}

	writeJSON(w, status, map[string]string{
		"type":    "error",
		"code":    string(e.Kind),
		"message": e.Message,
	})
}
