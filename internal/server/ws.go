package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/mholzi/spyster/internal/engine"
)

// controlMessage is the flat inbound envelope of the control protocol.
type controlMessage struct {
	Type       string `json:"type"`
	Target     string `json:"target,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
	LocationID string `json:"location_id,omitempty"`
	Action     string `json:"action,omitempty"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleWS attaches a participant's transport. The client presents its
// resumption token; the engine restores the seat, then state frames
// flow out and control messages flow in until the socket drops, which
// triggers the engine's disconnect path.
func handleWS(logger *slog.Logger, eng *engine.Engine, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "token query parameter required")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()

		info, err := eng.Resume(token)
		if err != nil {
			writeErrorFrame(ctx, conn, err)
			conn.Close(websocket.StatusPolicyViolation, "invalid session")
			return
		}

		ch := hub.Register(info.Name)
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()

		// Writer: engine frames out.
		go func() {
			defer cancel()
			for data := range ch {
				if err := conn.Write(wctx, websocket.MessageText, data); err != nil {
					return
				}
			}
			conn.Close(websocket.StatusNormalClosure, "session over")
		}()

		if snap, err := eng.Snapshot(info.Name); err == nil {
			hub.Broadcast(map[string][]byte{info.Name: snap})
		}

		// Reader: control messages in.
		for {
			_, data, err := conn.Read(wctx)
			if err != nil {
				logger.Debug("websocket read ended", "participant", info.Name, "error", err)
				break
			}
			var msg controlMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				writeErrorFrame(wctx, conn, engineBadMessage(err))
				continue
			}
			if err := dispatch(eng, info.Name, msg); err != nil {
				writeErrorFrame(wctx, conn, err)
			}
		}

		// Only the owning connection reports the disconnect; a
		// replaced one must not knock out the new transport.
		if hub.Unregister(info.Name, ch) {
			eng.Disconnect(info.Name)
		}
	}
}

func dispatch(eng *engine.Engine, name string, msg controlMessage) error {
	switch msg.Type {
	case "start":
		return eng.Start(name)
	case "call_vote":
		return eng.CallVote(name)
	case "vote":
		return eng.CastVote(name, msg.Target, msg.Confidence)
	case "abstain":
		return eng.Abstain(name)
	case "spy_guess":
		return eng.GuessLocation(name, msg.LocationID)
	case "admin":
		return eng.Admin(name, msg.Action, msg.Target)
	default:
		return &engine.Error{Kind: engine.ErrUnknownAction,
			Message: "unknown message type " + msg.Type}
	}
}

func engineBadMessage(err error) error {
	return &engine.Error{Kind: engine.ErrUnknownAction, Message: "malformed message: " + err.Error()}
}

func writeErrorFrame(ctx context.Context, conn *websocket.Conn, err error) {
	code := string(engine.KindOf(err))
	if code == "" {
		code = "internal"
	}
	frame, _ := json.Marshal(errorMessage{Type: "error", Code: code, Message: err.Error()})
	_ = conn.Write(ctx, websocket.MessageText, frame)
}
