// Package dialogue runs one conversational turn: it classifies the message,
// dispatches it to the intent's handler and returns the replies, mutating the
// sender's session under the session store's per-identity lock.
package dialogue

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/shopbot/backend/internal/analysis/entity"
	"github.com/zhouzirui/shopbot/backend/internal/analysis/intent"
	"github.com/zhouzirui/shopbot/backend/internal/model/catalog"
	"github.com/zhouzirui/shopbot/backend/internal/model/chat"
)

// Catalog is the subset of the Catalog/Cart Service the handlers use.
type Catalog interface {
	SearchProducts(ctx context.Context, q string) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id int) (catalog.Product, error)
	CreateCart(ctx context.Context, items []catalog.LineItem) (catalog.Cart, error)
	UpdateCart(ctx context.Context, id int, items []catalog.LineItem) (catalog.Cart, error)
	GetCart(ctx context.Context, id int) (catalog.Cart, error)
}

// Extractor finds the semantic search slots in a message.
type Extractor interface {
	Extract(ctx context.Context, text string) entity.Entities
	Category(ctx context.Context, text string) string
}

// SessionStore gives exclusive access to one identity's session.
type SessionStore interface {
	Do(ctx context.Context, id string, fn func(sess *chat.Session, created bool) error) error
}

// Recorder keeps the transcript of every turn.
type Recorder interface {
	RecordTurn(ctx context.Context, sessionID, intent, text string, replies []string) error
}

// Turn is the outcome of one inbound message.
type Turn struct {
	Intent     intent.Tag `json:"intent"`
	Replies    []string   `json:"replies"`
	NewSession bool       `json:"newSession"`
}

type handler func(ctx context.Context, text string, s *chat.Session) string

// Engine is the dialogue orchestrator.
type Engine struct {
	store       SessionStore
	catalog     Catalog
	extractor   Extractor
	recorder    Recorder
	logger      *zap.Logger
	turnTimeout time.Duration
	shuffle     func(n int, swap func(i, j int))
	handlers    map[intent.Tag]handler
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger.Named("dialogue") }
}

// WithTurnTimeout bounds the upstream calls of a single turn.
func WithTurnTimeout(d time.Duration) Option {
	return func(e *Engine) { e.turnTimeout = d }
}

// WithRecorder stores every turn in r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithShuffle replaces the permutation used by suggestions.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(e *Engine) { e.shuffle = shuffle }
}

// NewEngine wires the orchestrator.
func NewEngine(store SessionStore, cat Catalog, extractor Extractor, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		catalog:   cat,
		extractor: extractor,
		logger:    zap.NewNop(),
		shuffle:   rand.Shuffle,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.handlers = map[intent.Tag]handler{
		intent.ShowMore:            e.showMore,
		intent.ContinueShopping:    e.continueShopping,
		intent.FinalizePurchase:    e.finalize,
		intent.RemoveProduct:       e.removeProduct,
		intent.EditQuantity:        e.editQuantity,
		intent.AddByID:             e.addByID,
		intent.ViewCart:            e.viewCart,
		intent.ListAll:             e.listAll,
		intent.SearchByName:        e.searchByName,
		intent.Suggest:             e.suggest,
		intent.AddToCart:           e.addToCart,
		intent.SearchByCategory:    e.searchByCategory,
		intent.SearchByDescription: e.searchByDescription,
		intent.Other:               e.fallback,
	}
	return e
}

// Handle processes one inbound message from senderID. Upstream and
// validation failures become replies; an error means the session itself
// could not be loaded, locked or saved.
func (e *Engine) Handle(ctx context.Context, senderID, text string) (Turn, error) {
	start := time.Now()
	turn := Turn{Intent: intent.Classify(text)}

	err := e.store.Do(ctx, senderID, func(s *chat.Session, created bool) error {
		turnCtx := ctx
		if e.turnTimeout > 0 {
			var cancel context.CancelFunc
			turnCtx, cancel = context.WithTimeout(ctx, e.turnTimeout)
			defer cancel()
		}

		turn.NewSession = created
		replies := make([]string, 0, 2)
		if created {
			replies = append(replies, welcomeMessage)
		}
		if reply := e.dispatch(turnCtx, turn.Intent, text, s); reply != "" {
			replies = append(replies, reply)
		}
		turn.Replies = replies
		return nil
	})
	if err != nil {
		e.logger.Warn("turn failed",
			zap.String("sender", senderID),
			zap.String("intent", string(turn.Intent)),
			zap.Error(err))
		return Turn{}, fmt.Errorf("handle turn for %s: %w", senderID, err)
	}

	if e.recorder != nil {
		if err := e.recorder.RecordTurn(ctx, senderID, string(turn.Intent), text, turn.Replies); err != nil {
			e.logger.Warn("record transcript failed", zap.String("sender", senderID), zap.Error(err))
		}
	}

	e.logger.Info("turn handled",
		zap.String("sender", senderID),
		zap.String("intent", string(turn.Intent)),
		zap.Bool("newSession", turn.NewSession),
		zap.Duration("latency", time.Since(start)))
	return turn, nil
}

func (e *Engine) dispatch(ctx context.Context, tag intent.Tag, text string, s *chat.Session) string {
	h, ok := e.handlers[tag]
	if !ok {
		h = e.fallback
	}
	return h(ctx, text, s)
}

// apology renders an upstream failure for the shopper and logs it.
func (e *Engine) apology(action string, err error) string {
	e.logger.Warn("upstream call failed", zap.String("action", action), zap.Error(err))
	return fmt.Sprintf("❌ Hubo un problema al %s: %s. Intentá de nuevo en un momento.", action, upstreamMessage(err))
}

func (e *Engine) fallback(context.Context, string, *chat.Session) string {
	return helpMessage
}

func (e *Engine) continueShopping(_ context.Context, _ string, s *chat.Session) string {
	s.Phase = chat.PhaseExploring
	return "¡Perfecto! ¿Qué más estás buscando?\n\nPodés buscar por nombre, categoría, o pedirme recomendaciones."
}
