// Package oracle talks to the language model used for slot extraction. Every
// call is a stateless prompt-in, text-out completion.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zhouzirui/shopbot/backend/internal/config"
)

// ErrDisabled is returned when no provider is configured.
var ErrDisabled = errors.New("oracle: no provider configured")

// Oracle completes a single prompt.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to Oracle.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New builds the oracle selected by cfg.Provider. It returns ErrDisabled for
// ProviderNone so callers can fall back to local extraction.
func New(ctx context.Context, cfg config.OracleConfig) (Oracle, error) {
	var (
		o   Oracle
		err error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		o, err = NewGeminiOracle(ctx, cfg.Gemini)
	case config.ProviderArk:
		chatModel, modelErr := cfg.Ark.NewChatModel(ctx)
		if modelErr != nil {
			return nil, fmt.Errorf("init ark chat model: %w", modelErr)
		}
		o, err = NewChainOracle(ctx, chatModel)
	default:
		return nil, ErrDisabled
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(o, cfg.Timeout), nil
}

type timeoutOracle struct {
	next    Oracle
	timeout time.Duration
}

// WithTimeout bounds every completion of next by d. A zero d leaves next as is.
func WithTimeout(next Oracle, d time.Duration) Oracle {
	if d <= 0 {
		return next
	}
	return &timeoutOracle{next: next, timeout: d}
}

func (t *timeoutOracle) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, prompt)
}
