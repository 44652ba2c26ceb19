package handler

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/inbox-assistant/backend/internal/handler/channel"
	"github.com/zhouzirui/inbox-assistant/backend/internal/handler/health"
	"github.com/zhouzirui/inbox-assistant/backend/internal/handler/relay"
	middlewarePkg "github.com/zhouzirui/inbox-assistant/backend/internal/middleware"
)

// maxRequestBody bounds inbound JSON bodies.
const maxRequestBody = 1 << 20

// NewRouter wires HTTP routes to core services.
func NewRouter(logger zerolog.Logger, relaySvc relay.Relayer, store health.Pinger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewarePkg.Metrics)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.MaxBodySize(maxRequestBody))
	// The extension popup calls from its own origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	relayHandler := relay.New(relaySvc)
	healthHandler := health.New(store)
	wsHandler := channel.NewWebSocketHandler(relaySvc, logger, originChecker(allowedOrigins))

	r.Route("/api", func(api chi.Router) {
		healthHandler.RegisterRoutes(api)
		relayHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}

// originChecker mirrors the CORS allow-list for websocket upgrades.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
