package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/shopbot/backend/internal/handler/chat"
	"github.com/zhouzirui/shopbot/backend/internal/handler/webhook"
	"github.com/zhouzirui/shopbot/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/shopbot/backend/internal/middleware"
	"github.com/zhouzirui/shopbot/backend/internal/service/dialogue"
	"github.com/zhouzirui/shopbot/backend/internal/service/transport"
	"github.com/zhouzirui/shopbot/backend/pkg/utils"
)

// Engine runs one conversational turn.
type Engine interface {
	Handle(ctx context.Context, senderID, text string) (dialogue.Turn, error)
}

// Sessions is what the routes need from the session store.
type Sessions interface {
	chat.Sessions
	Count(ctx context.Context) (int, error)
}

// Deps are the services behind the HTTP surface.
type Deps struct {
	Engine      Engine
	Sessions    Sessions
	Transcripts chat.Transcripts
	Sender      transport.Sender
	Logger      *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/health", healthHandler(deps.Sessions, logger))

	webhook.New(deps.Engine, deps.Sender, logger).RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		chat.New(deps.Engine, deps.Sessions, deps.Transcripts, logger).RegisterRoutes(api)
		ws.New(deps.Engine, logger).RegisterRoutes(api)
	})

	return r
}

func healthHandler(sessions Sessions, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := sessions.Count(r.Context())
		if err != nil {
			logger.Warn("count sessions failed", zap.Error(err))
			utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":    "DEGRADED",
				"error":     "session store unavailable",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":      "OK",
			"activeUsers": active,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
