package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/inbox-assistant/backend/internal/config"
	"github.com/zhouzirui/inbox-assistant/backend/internal/handler"
	chatservice "github.com/zhouzirui/inbox-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/inbox-assistant/backend/internal/service/query"
	"github.com/zhouzirui/inbox-assistant/backend/internal/service/relay"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.Log)
	log.Logger = logger
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("no .env file loaded, using system environment only")
	}

	store, err := cfg.Store.Open(ctx)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open transcript store")
	}
	defer store.Close()
	logger.Info().Str("driver", cfg.Store.Driver).Msg("transcript store ready")

	transcripts := chatservice.NewService(store)
	asker := query.NewClient(cfg.Relay.QueryEndpoint)
	relaySvc := relay.New(transcripts, asker, logger)
	defer relaySvc.Close()
	logger.Info().Str("endpoint", asker.Endpoint()).Msg("relay initialized")

	router := handler.NewRouter(logger, relaySvc, store, cfg.Server.AllowedOrigins)

	startServer(ctx, logger, cfg.Server, router)
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(cfg.Level).With().Timestamp().Str("env", cfg.Env).Logger()
}

func startServer(ctx context.Context, logger zerolog.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", addr).Msg("inbox assistant relay listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
