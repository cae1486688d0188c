package dashboard

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/knoweval/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type    string  `json:"type"` // "evaluate"
	File    string  `json:"file"`
	Content *string `json:"content"`
	Focus   string  `json:"focus"`
	Model   string  `json:"model"`
}

// wsResponse is the outgoing WebSocket message format. An evaluation sends
// one "progress" frame per stage, then a "result" or an "error".
type wsResponse struct {
	Type    string              `json:"type"`
	File    string              `json:"file,omitempty"`
	Stage   int                 `json:"stage,omitempty"`
	Total   int                 `json:"total,omitempty"`
	Message string              `json:"message,omitempty"`
	Status  int                 `json:"status,omitempty"`
	Result  *evaluationResponse `json:"result,omitempty"`
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Resolve the session before the upgrade so a new cookie is sent with
	// the handshake response.
	s := d.session(w, r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	// Evaluations are not cancelled when the socket closes.
	ctx := context.WithoutCancel(r.Context())

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				d.log.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			d.send(conn, wsResponse{Type: "error", Status: http.StatusBadRequest, Message: "invalid message format"})
			continue
		}

		switch req.Type {
		case "evaluate":
			d.handleEvaluateMessage(ctx, conn, s, req)
		default:
			d.send(conn, wsResponse{Type: "error", File: req.File, Status: http.StatusBadRequest, Message: "unknown message type: " + req.Type})
		}
	}
}

func (d *Dashboard) handleEvaluateMessage(ctx context.Context, conn *websocket.Conn, s *session.Session, req wsRequest) {
	if req.File == "" {
		d.send(conn, wsResponse{Type: "error", Status: http.StatusBadRequest, Message: "file is required"})
		return
	}

	progress := func(current, total int, message string) {
		d.send(conn, wsResponse{Type: "progress", File: req.File, Stage: current, Total: total, Message: message})
	}

	resp, err := d.evaluate(ctx, s, req.File, evaluateRequest{Content: req.Content, Focus: req.Focus, Model: req.Model}, progress)
	if err != nil {
		d.send(conn, wsResponse{Type: "error", File: req.File, Status: statusFor(err), Message: err.Error()})
		return
	}
	d.send(conn, wsResponse{Type: "result", File: req.File, Result: resp})
}

func (d *Dashboard) send(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		d.log.Warn("websocket write", zap.String("type", resp.Type), zap.Error(err))
	}
}
