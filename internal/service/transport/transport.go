// Package transport delivers assistant replies to the shopper's chat channel.
package transport

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by senders that lack credentials.
var ErrNotConfigured = errors.New("transport not configured")

const whatsappPrefix = "whatsapp:"

// Sender pushes one outbound text to an identity.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, to, text string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, to, text string) error {
	return f(ctx, to, text)
}

// Identity strips the channel prefix from a WhatsApp address.
func Identity(address string) string {
	return strings.TrimPrefix(strings.TrimSpace(address), whatsappPrefix)
}

// LogSender only logs outbound messages. It stands in for a channel when no
// provider credentials are configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger.Named("transport")}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, to, text string) error {
	s.logger.Info("outbound message", zap.String("to", to), zap.Int("chars", len(text)))
	return nil
}
