// Package webhook ingests WhatsApp messages delivered by Twilio.
package webhook

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/shopbot/backend/internal/service/dialogue"
	"github.com/zhouzirui/shopbot/backend/internal/service/session"
	"github.com/zhouzirui/shopbot/backend/internal/service/transport"
)

const (
	busyReply  = "⏳ Todavía estoy procesando tu mensaje anterior. Esperá un momento y volvé a escribir."
	errorReply = "❌ Lo siento, ocurrió un error procesando tu mensaje. Intentá de nuevo."
)

// Engine runs one conversational turn.
type Engine interface {
	Handle(ctx context.Context, senderID, text string) (dialogue.Turn, error)
}

// Handler answers Twilio webhooks.
type Handler struct {
	engine Engine
	sender transport.Sender
	logger *zap.Logger
}

// New creates the webhook handler.
func New(engine Engine, sender transport.Sender, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, sender: sender, logger: logger.Named("webhook")}
}

// RegisterRoutes mounts POST /webhook.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook", h.handleWebhook)
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	from := transport.Identity(r.PostForm.Get("From"))
	if from == "" {
		http.Error(w, "From is required", http.StatusBadRequest)
		return
	}
	body := r.PostForm.Get("Body")

	// Replies go out even if Twilio stops waiting for the webhook.
	ctx := context.WithoutCancel(r.Context())

	turn, err := h.engine.Handle(ctx, from, body)
	if err != nil {
		status, reply := http.StatusInternalServerError, errorReply
		if errors.Is(err, session.ErrLockTimeout) {
			status, reply = http.StatusServiceUnavailable, busyReply
		}
		h.logger.Warn("turn failed", zap.String("from", from), zap.Error(err))
		h.send(ctx, from, reply)
		http.Error(w, http.StatusText(status), status)
		return
	}

	for _, reply := range turn.Replies {
		h.send(ctx, from, reply)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) send(ctx context.Context, to, text string) {
	if err := h.sender.Send(ctx, to, text); err != nil {
		h.logger.Warn("send reply failed", zap.String("to", to), zap.Error(err))
	}
}
