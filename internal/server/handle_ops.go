package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mholzi/spyster/internal/engine"
)

const opsCookieName = "ops_session"

// opsSessions holds operator cookie sessions in memory; the engine is
// in-memory only, so operator auth is too.
type opsSessions struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	ttl      time.Duration
}

func newOpsSessions() *opsSessions {
	return &opsSessions{
		sessions: make(map[string]time.Time),
		ttl:      12 * time.Hour,
	}
}

func (s *opsSessions) create() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	id := hex.EncodeToString(buf)
	s.mu.Lock()
	s.sessions[id] = time.Now().Add(s.ttl)
	s.mu.Unlock()
	return id, nil
}

func (s *opsSessions) valid(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline, ok := s.sessions[id]
	if !ok {
		return false
	}
	if time.Now().After(deadline) {
		delete(s.sessions, id)
		return false
	}
	return true
}

func (s *opsSessions) drop(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

type OpsLoginRequest struct {
	Passcode string `json:"passcode"`
}

func handleOpsLogin(passcodeHash string, sessions *opsSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpsLoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Passcode == "" {
			writeError(w, http.StatusBadRequest, "passcode is required")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(passcodeHash), []byte(req.Passcode)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid passcode")
			return
		}

		id, err := sessions.create()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     opsCookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(12 * time.Hour / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleOpsLogout(sessions *opsSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(opsCookieName); err == nil {
			sessions.drop(cookie.Value)
		}
		http.SetCookie(w, &http.Cookie{
			Name:   opsCookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func opsAuthMiddleware(sessions *opsSessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(opsCookieName)
			if err != nil || !sessions.valid(cookie.Value) {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleOpsOverview(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := eng.Overview()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

// handleOpsReset tears the session down and opens a fresh lobby.
func handleOpsReset(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := eng.Reset(); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		o, err := eng.Overview()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}
