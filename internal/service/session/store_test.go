package session

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zhouzirui/shopbot/backend/internal/model/catalog"
	"github.com/zhouzirui/shopbot/backend/internal/model/chat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sqlite, err := NewSQLiteBackend(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	out := map[string]Backend{
		"memory": NewMemoryBackend(),
		"sqlite": sqlite,
	}
	if dsn := os.Getenv("SHOPBOT_TEST_POSTGRES_DSN"); dsn != "" {
		pg, err := NewPostgresBackend(context.Background(), dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = pg.Close() })
		out["postgres"] = pg
	}
	return out
}

func TestDoCreatesThenReuses(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(backend)
			ctx := context.Background()
			id := "+5491100000000-" + name

			err := store.Do(ctx, id, func(s *chat.Session, created bool) error {
				assert.True(t, created)
				assert.Equal(t, chat.PhaseWelcome, s.Phase)
				assert.Equal(t, chat.DefaultPageSize, s.PageSize)
				s.SetResults("pantalon", []catalog.Product{{ID: 4, Name: "Pantalon"}})
				s.OpenCart(12)
				s.Phase = chat.PhasePostAdd
				return nil
			})
			require.NoError(t, err)

			err = store.Do(ctx, id, func(s *chat.Session, created bool) error {
				assert.False(t, created)
				assert.Equal(t, chat.PhasePostAdd, s.Phase)
				require.NotNil(t, s.ActiveCartID)
				assert.Equal(t, 12, *s.ActiveCartID)
				require.Len(t, s.LastResults, 1)
				assert.Equal(t, "pantalon", s.LastQuery)
				return nil
			})
			require.NoError(t, err)

			n, err := store.Count(ctx)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, 1)
		})
	}
}

func TestDoDiscardsOnError(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Do(ctx, "u", func(s *chat.Session, _ bool) error {
		s.Phase = chat.PhaseExploring
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Get(ctx, "u")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDoSerializesPerIdentity(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Do(ctx, "same", func(s *chat.Session, _ bool) error {
				current := s.DisplayOffset
				time.Sleep(time.Millisecond)
				s.DisplayOffset = current + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, workers, got.DisplayOffset)
	assert.Zero(t, store.locks.len())
}

func TestDoDoesNotBlockOtherIdentities(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx := context.Background()

	hold := make(chan struct{})
	entered := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Do(ctx, "slow", func(*chat.Session, bool) error {
			close(entered)
			<-hold
			return nil
		})
	}()
	<-entered

	err := store.Do(ctx, "fast", func(*chat.Session, bool) error { return nil })
	require.NoError(t, err)

	close(hold)
	require.NoError(t, <-done)
}

func TestDoTimesOutWaitingForBusySession(t *testing.T) {
	store := NewStore(NewMemoryBackend(), WithLockTimeout(20*time.Millisecond))
	ctx := context.Background()

	hold := make(chan struct{})
	entered := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Do(ctx, "busy", func(*chat.Session, bool) error {
			close(entered)
			<-hold
			return nil
		})
	}()
	<-entered

	err := store.Do(ctx, "busy", func(*chat.Session, bool) error {
		t.Fatal("must not run while the session is held")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)

	close(hold)
	require.NoError(t, <-done)
	assert.Zero(t, store.locks.len())
}

func TestDoRequiresID(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	err := store.Do(context.Background(), "", func(*chat.Session, bool) error { return nil })
	assert.ErrorIs(t, err, ErrIDRequired)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			store := NewStore(backend, WithClock(func() time.Time { return now }))
			ctx := context.Background()

			require.NoError(t, store.Do(ctx, "old-"+name, func(*chat.Session, bool) error { return nil }))
			now = now.Add(2 * time.Hour)
			require.NoError(t, store.Do(ctx, "new-"+name, func(*chat.Session, bool) error { return nil }))

			n, err := store.Sweep(ctx, time.Hour)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			_, err = store.Get(ctx, "old-"+name)
			assert.ErrorIs(t, err, ErrSessionNotFound)
			_, err = store.Get(ctx, "new-"+name)
			assert.NoError(t, err)

			n, err = store.Sweep(ctx, 0)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.RunSweeper(ctx, time.Minute, 5*time.Millisecond) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestMemoryBackendIsolatesCallers(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()
	s := chat.NewSession("u", time.Now())
	s.SetResults("x", []catalog.Product{{ID: 1, Name: "a"}})
	require.NoError(t, backend.Save(ctx, s))

	s.LastResults[0].Name = "mutated after save"
	loaded, err := backend.Load(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.LastResults[0].Name)
}

func TestDeleteForgetsSession(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(backend)
			ctx := context.Background()
			id := "delete-" + name

			require.NoError(t, store.Do(ctx, id, func(*chat.Session, bool) error { return nil }))
			require.NoError(t, store.Delete(ctx, id))

			_, err := store.Get(ctx, id)
			assert.ErrorIs(t, err, ErrSessionNotFound)
			assert.ErrorIs(t, store.Delete(ctx, ""), ErrIDRequired)
		})
	}
}
