package session

import (
	"context"
	"fmt"

	"github.com/zhouzirui/shopbot/backend/internal/config"
)

// OpenBackend builds the backend named in cfg.
func OpenBackend(ctx context.Context, cfg config.SessionConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemoryBackend(), nil
	case config.BackendSQLite:
		return NewSQLiteBackend(ctx, cfg.DSN)
	case config.BackendPostgres:
		return NewPostgresBackend(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
