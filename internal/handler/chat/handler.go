package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatmodel "github.com/zhouzirui/shopbot/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/shopbot/backend/internal/service/chat"
	"github.com/zhouzirui/shopbot/backend/internal/service/dialogue"
	"github.com/zhouzirui/shopbot/backend/internal/service/session"
	"github.com/zhouzirui/shopbot/backend/pkg/utils"
)

// Engine runs one conversational turn.
type Engine interface {
	Handle(ctx context.Context, senderID, text string) (dialogue.Turn, error)
}

// Sessions exposes stored dialogue state.
type Sessions interface {
	Get(ctx context.Context, id string) (*chatmodel.Session, error)
	Delete(ctx context.Context, id string) error
}

// Transcripts exposes the message history.
type Transcripts interface {
	LoadTranscript(ctx context.Context, sessionID string) ([]chatmodel.Message, error)
	Forget(ctx context.Context, sessionID string)
}

// Handler serves the JSON chat API.
type Handler struct {
	engine      Engine
	sessions    Sessions
	transcripts Transcripts
	logger      *zap.Logger
}

// New creates a chat handler.
func New(engine Engine, sessions Sessions, transcripts Transcripts, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine:      engine,
		sessions:    sessions,
		transcripts: transcripts,
		logger:      logger.Named("chat"),
	}
}

// RegisterRoutes mounts the message and session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handleMessage)
	r.Get("/sessions/{senderID}", h.handleGetSession)
	r.Delete("/sessions/{senderID}", h.handleResetSession)
	r.Get("/sessions/{senderID}/transcript", h.handleTranscript)
}

type messageRequest struct {
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
}

type messageResponse struct {
	SenderID string `json:"senderId"`
	dialogue.Turn
}

// handleMessage runs one turn for the posted text.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	payload.SenderID = strings.TrimSpace(payload.SenderID)
	if payload.SenderID == "" {
		utils.RespondError(w, http.StatusBadRequest, "senderId is required")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	turn, err := h.engine.Handle(r.Context(), payload.SenderID, payload.Text)
	if err != nil {
		RespondTurnError(w, h.logger, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, messageResponse{SenderID: payload.SenderID, Turn: turn})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "senderID")
	sess, err := h.sessions.Get(r.Context(), id)
	if errors.Is(err, session.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		h.logger.Warn("load session failed", zap.String("sender", id), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "senderID")
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.logger.Warn("delete session failed", zap.String("sender", id), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	h.transcripts.Forget(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "senderID")
	messages, err := h.transcripts.LoadTranscript(r.Context(), id)
	if errors.Is(err, chatservice.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"senderId": id, "messages": messages})
}

// RespondTurnError maps a failed turn onto an HTTP status.
func RespondTurnError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, session.ErrIDRequired):
		utils.RespondError(w, http.StatusBadRequest, "sender is required")
	case errors.Is(err, session.ErrLockTimeout):
		utils.RespondError(w, http.StatusServiceUnavailable, "previous message still in progress")
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		logger.Error("turn failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
	}
}
