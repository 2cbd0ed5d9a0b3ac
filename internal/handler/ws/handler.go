// Package ws serves the chat over a websocket, one connection per sender.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/shopbot/backend/internal/service/dialogue"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Engine runs one conversational turn.
type Engine interface {
	Handle(ctx context.Context, senderID, text string) (dialogue.Turn, error)
}

// Handler upgrades chat connections.
type Handler struct {
	engine   Engine
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New creates a websocket handler.
func New(engine Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine: engine,
		logger: logger.Named("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts GET /ws/{senderID}.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{senderID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Text      string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type replyData struct {
	Text   string `json:"text"`
	Intent string `json:"intent"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	senderID := strings.TrimSpace(chi.URLParam(r, "senderID"))
	if senderID == "" {
		http.Error(w, "senderID is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("connection opened", zap.String("sender", senderID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go pingLoop(ctx, conn)

	h.write(conn, outgoingMessage{Type: "connected", Data: map[string]string{"senderId": senderID}})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if isDecodeError(err) {
				h.sendError(conn, "", "invalid message")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("read failed", zap.String("sender", senderID), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if msg.RequestID == "" {
			msg.RequestID = uuid.NewString()
		}
		h.handleMessage(ctx, conn, senderID, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, senderID string, msg inboundMessage) {
	switch msg.Type {
	case "ping":
		h.write(conn, outgoingMessage{Type: "pong", RequestID: msg.RequestID})
	case "message":
		if strings.TrimSpace(msg.Text) == "" {
			h.sendError(conn, msg.RequestID, "text is required")
			return
		}
		turn, err := h.engine.Handle(ctx, senderID, msg.Text)
		if err != nil {
			h.logger.Warn("turn failed", zap.String("sender", senderID), zap.Error(err))
			h.sendError(conn, msg.RequestID, "failed to process message")
			return
		}
		for _, reply := range turn.Replies {
			h.write(conn, outgoingMessage{
				Type:      "reply",
				RequestID: msg.RequestID,
				Data:      replyData{Text: reply, Intent: string(turn.Intent)},
			})
		}
	default:
		h.sendError(conn, msg.RequestID, "unsupported message type: "+msg.Type)
	}
}

// isDecodeError reports a malformed frame; the connection itself is fine.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func (h *Handler) sendError(conn *websocket.Conn, requestID, message string) {
	h.write(conn, outgoingMessage{
		Type:      "error",
		RequestID: requestID,
		Data:      map[string]string{"message": message},
	})
}

func (h *Handler) write(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

// pingLoop keeps idle connections alive. WriteControl is safe to call
// concurrently with the reader loop's writes.
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
