package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/shopbot/backend/internal/config"
	"github.com/zhouzirui/shopbot/backend/internal/handler"
	"github.com/zhouzirui/shopbot/backend/internal/logging"
	"github.com/zhouzirui/shopbot/backend/internal/service/catalog"
	"github.com/zhouzirui/shopbot/backend/internal/service/chat"
	"github.com/zhouzirui/shopbot/backend/internal/service/dialogue"
	"github.com/zhouzirui/shopbot/backend/internal/service/extraction"
	"github.com/zhouzirui/shopbot/backend/internal/service/oracle"
	"github.com/zhouzirui/shopbot/backend/internal/service/session"
	"github.com/zhouzirui/shopbot/backend/internal/service/transport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file loaded, using process environment", zap.Error(envErr))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("shopbot stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Entity-extraction oracle; without one the local vocabulary matcher is used.
	var extractionOracle oracle.Oracle
	o, err := oracle.New(ctx, cfg.Oracle)
	switch {
	case errors.Is(err, oracle.ErrDisabled):
		logger.Info("no language model configured, using vocabulary extraction")
	case err != nil:
		logger.Warn("failed to initialize oracle, using vocabulary extraction", zap.Error(err))
	default:
		extractionOracle = o
		logger.Info("oracle initialized", zap.String("provider", cfg.Oracle.Provider))
	}
	extractor := extraction.NewService(extractionOracle, logger)

	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, nil)

	backend, err := session.OpenBackend(ctx, cfg.Session)
	if err != nil {
		return err
	}
	store := session.NewStore(backend,
		session.WithLockTimeout(cfg.Session.LockTimeout),
		session.WithLogger(logger))
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close session store", zap.Error(err))
		}
	}()
	logger.Info("session store ready", zap.String("backend", cfg.Session.Backend))

	transcripts := chat.NewService(chat.DefaultHistoryLimit)

	engine := dialogue.NewEngine(store, catalogClient, extractor,
		dialogue.WithLogger(logger),
		dialogue.WithTurnTimeout(cfg.Session.TurnTimeout),
		dialogue.WithRecorder(transcripts))

	var sender transport.Sender
	twilio, err := transport.NewTwilioSender(cfg.Transport.Twilio, nil, logger)
	switch {
	case errors.Is(err, transport.ErrNotConfigured):
		logger.Info("twilio credentials missing, replies are only logged")
		sender = transport.NewLogSender(logger)
	case err != nil:
		return err
	default:
		sender = twilio
	}

	router := handler.NewRouter(handler.Deps{
		Engine:      engine,
		Sessions:    store,
		Transcripts: transcripts,
		Sender:      sender,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("shopbot listening", zap.String("addr", srv.Addr), zap.String("catalog", cfg.Catalog.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return store.RunSweeper(gctx, cfg.Session.TTL, 0)
	})
	return g.Wait()
}
