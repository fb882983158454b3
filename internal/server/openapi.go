package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Spyster API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Session API for the Spyster social-deduction game engine.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns engine liveness and a summary of the running session.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/session/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/session/join")
	postJoin.SetSummary("Join the lobby")
	postJoin.SetDescription("Takes a seat under a unique display name. Returns the resumption token; keep it to reclaim the seat after a disconnect.")
	postJoin.AddReqStructure(JoinRequest{})
	postJoin.AddRespStructure(JoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postJoin)

	// POST /api/session/resume
	postResume, _ := r.NewOperationContext(http.MethodPost, "/api/session/resume")
	postResume.SetSummary("Resume a seat")
	postResume.SetDescription("Restores a disconnected seat from its resumption token, within the reconnection window.")
	postResume.AddReqStructure(ResumeRequest{})
	postResume.AddRespStructure(ResumeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postResume.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postResume)

	// GET /ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws")
	getWS.SetSummary("Game websocket")
	getWS.SetDescription("Upgrades to the control-protocol websocket. Pass the resumption token as a query parameter; state frames stream out, control messages flow in.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// POST /api/ops/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/ops/login")
	postLogin.SetSummary("Operator login")
	postLogin.SetDescription("Authenticate with the operator passcode. Sets ops_session cookie.")
	postLogin.AddReqStructure(OpsLoginRequest{})
	postLogin.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// GET /api/ops/overview
	getOverview, _ := r.NewOperationContext(http.MethodGet, "/api/ops/overview")
	getOverview.SetSummary("Session overview")
	getOverview.SetDescription("Returns the running session summary. Requires operator session.")
	getOverview.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getOverview)

	// POST /api/ops/reset
	postReset, _ := r.NewOperationContext(http.MethodPost, "/api/ops/reset")
	postReset.SetSummary("Tear down the session")
	postReset.SetDescription("Destroys the running session and opens a fresh empty lobby. Requires operator session.")
	postReset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postReset)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.Marshal(spec)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(data)
	}
}
