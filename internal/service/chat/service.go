package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/shopbot/backend/internal/model/chat"
)

var (
	ErrSessionRequired = errors.New("session id is required")
	ErrSessionNotFound = errors.New("session not found")
)

// DefaultHistoryLimit is how many messages are kept per identity.
const DefaultHistoryLimit = 100

// Service keeps the recent message history of every identity.
type Service struct {
	mu       sync.RWMutex
	limit    int
	messages map[string][]chat.Message
}

// NewService bootstraps the in-memory transcript keeping limit messages per
// identity; limit <= 0 selects DefaultHistoryLimit.
func NewService(limit int) *Service {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Service{
		limit:    limit,
		messages: make(map[string][]chat.Message),
	}
}

// SaveMessage appends a message to the identity's history, dropping the
// oldest entries beyond the limit.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if strings.TrimSpace(message.SessionID) == "" {
		return chat.Message{}, ErrSessionRequired
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.messages[message.SessionID], message)
	if overflow := len(history) - s.limit; overflow > 0 {
		history = append(history[:0:0], history[overflow:]...)
	}
	s.messages[message.SessionID] = history
	return message, nil
}

// RecordTurn stores the user's text followed by each reply.
func (s *Service) RecordTurn(ctx context.Context, sessionID, intent, text string, replies []string) error {
	now := time.Now().UTC()
	if _, err := s.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Content:   text,
		Intent:    intent,
		CreatedAt: now,
	}); err != nil {
		return err
	}
	for _, reply := range replies {
		if _, err := s.SaveMessage(ctx, chat.Message{
			SessionID: sessionID,
			Sender:    chat.SenderAssistant,
			Content:   reply,
			CreatedAt: now,
		}); err != nil {
			return err
		}
	}
	return nil
}

// LoadTranscript returns stored messages for the identity, oldest first.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// Forget drops the identity's history.
func (s *Service) Forget(_ context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.messages, sessionID)
	s.mu.Unlock()
}
