package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/shopbot/backend/internal/model/chat"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS shopbot_sessions (
	id         TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_shopbot_sessions_updated_at ON shopbot_sessions(updated_at);
`

// PostgresBackend stores sessions in a shared database. Per-identity
// serialization is still per process.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend connects to dsn and creates the table if needed.
func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse session dsn: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create session pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping session database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init session schema: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) Load(ctx context.Context, id string) (*chat.Session, error) {
	var payload []byte
	err := b.pool.QueryRow(ctx, `SELECT payload FROM shopbot_sessions WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(id, payload)
}

func (b *PostgresBackend) Save(ctx context.Context, s *chat.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = b.pool.Exec(ctx, `
		INSERT INTO shopbot_sessions (id, payload, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		s.ID, payload, s.UpdatedAt)
	return err
}

func (b *PostgresBackend) Delete(ctx context.Context, id string) error {
	_, err := b.pool.Exec(ctx, `DELETE FROM shopbot_sessions WHERE id = $1`, id)
	return err
}

func (b *PostgresBackend) Count(ctx context.Context) (int, error) {
	var n int
	err := b.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shopbot_sessions`).Scan(&n)
	return n, err
}

func (b *PostgresBackend) DeleteIdle(ctx context.Context, before time.Time) (int, error) {
	tag, err := b.pool.Exec(ctx, `DELETE FROM shopbot_sessions WHERE updated_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
