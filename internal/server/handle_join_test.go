package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mholzi/spyster/internal/content"
	"github.com/mholzi/spyster/internal/engine"
)

const testOpsPasscode = "letmein"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog, err := content.Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	eng, err := engine.New(engine.Options{
		Logger:  logger,
		Catalog: catalog,
		PackID:  "classic",
	})
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	hub := NewHub()
	eng.SetSinks(engine.Sinks{Broadcast: hub.Broadcast, Removed: hub.Kick})

	ctx, cancel := context.WithCancel(context.Background())
	go eng.Run(ctx)
	t.Cleanup(cancel)

	hash, err := bcrypt.GenerateFromPassword([]byte(testOpsPasscode), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing passcode: %v", err)
	}

	r := chi.NewRouter()
	addRoutes(r, Options{
		Logger:          logger,
		Engine:          eng,
		Hub:             hub,
		OpsPasscodeHash: string(hash),
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encoding request: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestJoinEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.Client(), ts.URL+"/api/session/join", JoinRequest{Name: "Alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	joined := decode[JoinResponse](t, resp)
	if joined.Name != "Alice" || !joined.Host {
		t.Errorf("response = %+v, want Alice as host", joined)
	}
	if len(joined.Token) != 32 {
		t.Errorf("token length = %d, want 32", len(joined.Token))
	}
	if joined.SessionID == "" {
		t.Error("no session id in response")
	}

	dup := postJSON(t, ts.Client(), ts.URL+"/api/session/join", JoinRequest{Name: "Alice"})
	if dup.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate join status = %d, want 400", dup.StatusCode)
	}
	body := decode[map[string]string](t, dup)
	if body["code"] != string(engine.ErrNameTaken) {
		t.Errorf("code = %q, want %s", body["code"], engine.ErrNameTaken)
	}
}

func TestJoinRejectsBadBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Post(ts.URL+"/api/session/join", "application/json",
		strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	empty := postJSON(t, ts.Client(), ts.URL+"/api/session/join", JoinRequest{Name: "   "})
	if empty.StatusCode != http.StatusBadRequest {
		t.Errorf("blank name status = %d, want 400", empty.StatusCode)
	}
}

func TestResumeEndpoint(t *testing.T) {
	ts := newTestServer(t)

	joined := decode[JoinResponse](t,
		postJSON(t, ts.Client(), ts.URL+"/api/session/join", JoinRequest{Name: "Alice"}))

	ok := postJSON(t, ts.Client(), ts.URL+"/api/session/resume", ResumeRequest{Token: joined.Token})
	if ok.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", ok.StatusCode)
	}
	resumed := decode[ResumeResponse](t, ok)
	if resumed.Name != "Alice" || !resumed.Host {
		t.Errorf("response = %+v, want Alice as host", resumed)
	}

	bad := postJSON(t, ts.Client(), ts.URL+"/api/session/resume",
		ResumeRequest{Token: "deadbeefdeadbeefdeadbeefdeadbeef"})
	if bad.StatusCode != http.StatusUnauthorized {
		t.Errorf("unknown token status = %d, want 401", bad.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	postJSON(t, ts.Client(), ts.URL+"/api/session/join", JoinRequest{Name: "Alice"})

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	health := decode[HealthResponse](t, resp)
	if health.Status != "ok" {
		t.Errorf("status = %q, want ok", health.Status)
	}
	if health.Phase != engine.PhaseLobby {
		t.Errorf("phase = %s, want %s", health.Phase, engine.PhaseLobby)
	}
	if health.Participants != 1 {
		t.Errorf("participants = %d, want 1", health.Participants)
	}
}

func TestOpenAPIEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/openapi.json")
	if err != nil {
		t.Fatalf("GET /openapi.json: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	spec := decode[map[string]any](t, resp)
	if spec["openapi"] == "" {
		t.Error("no openapi version in document")
	}
	paths, _ := spec["paths"].(map[string]any)
	if _, ok := paths["/api/session/join"]; !ok {
		t.Error("join path missing from spec")
	}
}
