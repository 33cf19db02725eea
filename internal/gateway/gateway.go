// Package gateway exposes the interpretation engine over a WebSocket
// endpoint, the transport the voice front-end speaks.
//
// Each connection is one conversation: it gets its own dialog session, so
// pending confirmations never cross users, and utterances are handled in
// arrival order by the connection's read loop.
package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"hibiki/internal/dialog"
	"hibiki/internal/engine"
	"hibiki/internal/nlp"
)

// rateLimitReply is spoken when a sender exceeds their utterance quota.
const rateLimitReply = "I'm processing too many requests from you right now. Please try again in a moment."

// UtteranceRequest is one inbound frame from the voice front-end.
type UtteranceRequest struct {
	// Text is the transcribed utterance.
	Text string `json:"text"`
}

// UtteranceResponse is the frame sent back for each utterance.
type UtteranceResponse struct {
	// Reply is the text to speak.
	Reply string `json:"reply"`
	// Intent is the classified intent name, empty for confirmation turns.
	Intent string `json:"intent,omitempty"`
	// Executed is true when a command ran, as opposed to a prompt.
	Executed bool `json:"executed"`
	// TraceID correlates the response with server-side log lines.
	TraceID string `json:"trace_id,omitempty"`
}

// Config configures the gateway server.
type Config struct {
	// ConfirmTTL bounds how long a parked confirmation waits for a yes/no.
	// Zero uses the dialog default.
	ConfirmTTL time.Duration

	// Limiter optionally rate-limits utterances per remote address.
	// Nil disables limiting.
	Limiter *nlp.RateLimiter
}

// Server upgrades HTTP requests to WebSocket conversations.
type Server struct {
	engine   *engine.Engine
	cfg      Config
	upgrader websocket.Upgrader
}

// New creates a gateway Server over the given engine.
func New(eng *engine.Engine, cfg Config) *Server {
	return &Server{
		engine: eng,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The voice front-end may be served from another origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the http.Handler for the conversation endpoint.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveConversation)
}

func (s *Server) serveConversation(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	slog.Info("conversation started", "remote", r.RemoteAddr)
	session := dialog.NewSession(s.cfg.ConfirmTTL)

	for {
		var req UtteranceRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("conversation closed unexpectedly", "remote", r.RemoteAddr, "error", err)
			} else {
				slog.Info("conversation ended", "remote", r.RemoteAddr)
			}
			return
		}

		resp := s.handle(r, session, req)
		if err := conn.WriteJSON(resp); err != nil {
			slog.Warn("failed to write reply", "remote", r.RemoteAddr, "error", err)
			return
		}
	}
}

// handle runs one utterance through the limiter and the engine.
func (s *Server) handle(r *http.Request, session *dialog.Session, req UtteranceRequest) UtteranceResponse {
	if s.cfg.Limiter != nil && !s.cfg.Limiter.Allow(r.RemoteAddr) {
		return UtteranceResponse{Reply: rateLimitReply}
	}

	reply := s.engine.HandleUtterance(r.Context(), session, req.Text)
	return UtteranceResponse{
		Reply:    reply.Text,
		Intent:   string(reply.Intent),
		Executed: reply.Executed,
		TraceID:  reply.TraceID,
	}
}
