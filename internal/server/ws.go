package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/septagon/TRACE/internal/app"
	"github.com/septagon/TRACE/internal/server/api"
	"github.com/septagon/TRACE/internal/trajectory"
)

// Message types of the trace stream.
const (
	MessagePoint  = "point"
	MessageEnd    = "end"
	MessageResult = "result"
	MessageError  = "error"
)

// maxMessageBytes bounds a single client message; a point message is well
// under a kilobyte.
const maxMessageBytes = 64 << 10

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ClientMessage is sent by trace stream clients. A "point" message carries
// one sample; an "end" message finishes the current gesture, training the
// labelled class when Label is set.
type ClientMessage struct {
	Type      string    `json:"type"`
	Point     api.Point `json:"point"`
	Reference api.Point `json:"reference"`
	Label     string    `json:"label,omitempty"`
}

// ServerMessage answers every "end" message, and any message that could not
// be processed.
type ServerMessage struct {
	Type   string      `json:"type"`
	Result *api.Result `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// TraceHandler streams gestures over a WebSocket, one trace at a time.
type TraceHandler struct {
	tracer *app.Tracer
	logger *zap.Logger
}

// NewTraceHandler creates a TraceHandler for the given session.
func NewTraceHandler(t *app.Tracer, logger *zap.Logger) *TraceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TraceHandler{tracer: t, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests. A trace in progress when the
// connection drops is finished as a recognition.
func (h *TraceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	sessions := h.tracer.Metrics().TraceSessions
	sessions.Inc()
	defer sessions.Dec()

	trace := h.tracer.NewTrace()
	defer func() { trace.Close() }()

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("trace stream closed", zap.Error(err))
			}
			return
		}

		var reply *ServerMessage
		switch msg.Type {
		case MessagePoint:
			trace.AddPoint(msg.Point.Vec(), msg.Reference.Vec())
		case MessageEnd:
			reply = h.finish(trace, msg.Label)
			trace = h.tracer.NewTrace()
		default:
			reply = &ServerMessage{Type: MessageError, Error: "unknown message type: " + msg.Type}
		}

		if reply != nil {
			if err := conn.WriteJSON(reply); err != nil {
				h.logger.Warn("websocket write error", zap.Error(err))
				return
			}
		}
	}
}

func (h *TraceHandler) finish(trace *app.Trace, label string) *ServerMessage {
	out, err := trace.Finish(label)
	switch {
	case errors.Is(err, trajectory.ErrEmpty):
		return &ServerMessage{Type: MessageError, Error: "trace has no points"}
	case errors.Is(err, trajectory.ErrTooLong):
		return &ServerMessage{Type: MessageError, Error: "trace is too long"}
	case err != nil:
		h.logger.Error("failed to finish trace", zap.Error(err))
		return &ServerMessage{Type: MessageError, Error: "failed to finish trace"}
	}
	res := api.NewResult(out)
	return &ServerMessage{Type: MessageResult, Result: &res}
}
