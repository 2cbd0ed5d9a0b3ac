// Package session keeps per-identity conversation state. Turns for one
// identity are serialized; different identities proceed independently.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/shopbot/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrLockTimeout     = errors.New("session busy: timed out waiting for the previous turn")
	ErrIDRequired      = errors.New("session id is required")
)

// Backend persists sessions. Load returns (nil, nil) for unknown ids.
// Implementations must be safe for concurrent use.
type Backend interface {
	Load(ctx context.Context, id string) (*chat.Session, error)
	Save(ctx context.Context, s *chat.Session) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	DeleteIdle(ctx context.Context, before time.Time) (int, error)
	Close() error
}

// Store serializes access to sessions on top of a Backend.
type Store struct {
	backend     Backend
	locks       *keyedMutex
	lockTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long Do waits for a busy session.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger.Named("session") }
}

// NewStore wraps backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		locks:   newKeyedMutex(),
		now:     func() time.Time { return time.Now().UTC() },
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Do runs fn with exclusive access to the session for id, creating it in the
// welcome phase when absent. created is true on first contact. The session is
// saved only when fn returns nil.
func (s *Store) Do(ctx context.Context, id string, fn func(sess *chat.Session, created bool) error) error {
	if id == "" {
		return ErrIDRequired
	}

	lockCtx := ctx
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}
	if err := s.locks.Lock(lockCtx, id); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrLockTimeout, id)
		}
		return err
	}
	defer s.locks.Unlock(id)

	sess, err := s.backend.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("load session %s: %w", id, err)
	}
	created := sess == nil
	if created {
		sess = chat.NewSession(id, s.now())
	}

	if err := fn(sess, created); err != nil {
		return err
	}

	sess.UpdatedAt = s.now()
	// Persist even if the turn's context is gone; the mutation already
	// happened upstream.
	if err := s.backend.Save(context.WithoutCancel(ctx), sess); err != nil {
		s.logger.Error("session save failed", zap.String("session", id), zap.Error(err))
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

// Get returns a snapshot of the session for id.
func (s *Store) Get(ctx context.Context, id string) (*chat.Session, error) {
	sess, err := s.backend.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete forgets the session for id once any running turn has finished.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if err := s.locks.Lock(ctx, id); err != nil {
		return err
	}
	defer s.locks.Unlock(id)
	return s.backend.Delete(ctx, id)
}

// Count returns the number of known identities.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.backend.Count(ctx)
}

// Sweep deletes sessions idle for longer than ttl.
func (s *Store) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	return s.backend.DeleteIdle(ctx, s.now().Add(-ttl))
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, ttl, interval time.Duration) error {
	if ttl <= 0 {
		<-ctx.Done()
		return nil
	}
	if interval <= 0 {
		interval = max(ttl/4, time.Second)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.Sweep(ctx, ttl)
			if err != nil {
				s.logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
