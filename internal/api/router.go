package api

import (
	"context"
	"net/http"
	"time"

	"github.com/fannielf/bomberman-dom-git/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the game engine methods used by the API.
// This interface enables mocking for tests without spinning up the engine loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// Snapshot returns the latest published match snapshot
	Snapshot() *game.MatchSnapshot
	// WaitSnapshot blocks until a snapshot newer than seq is published
	WaitSnapshot(ctx context.Context, seq uint64) (*game.MatchSnapshot, error)
	// Leaderboard returns the process-wide win table
	Leaderboard() *game.Leaderboard
	// GetEventLogStats returns audit log counters
	GetEventLogStats() map[string]interface{}
}

// StatsProvider is anything reporting counters to /api/stats
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine EngineInterface

	// Hub reports WebSocket counters. Optional.
	Hub StatsProvider

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil.
	// If both are nil, DefaultRateLimitConfig applies.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins overrides the allowed CORS origins.
	// If nil, localhost plus the configured origins are allowed.
	CORSOrigins []string

	// StaticDir is the browser client served at /. Defaults to "./client".
	StaticDir string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds what the handler functions read from
type routerHandlers struct {
	engine      EngineInterface
	hub         StatsProvider
	rateLimiter *IPRateLimiter
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// It has no side effects: no goroutines are started and no listeners are
// opened, so it is safe to wrap in httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting (BEFORE CORS to reject early)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	origins := cfg.CORSOrigins
	if origins == nil {
		origins = corsOrigins()
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine:      cfg.Engine,
		hub:         cfg.Hub,
		rateLimiter: rateLimiter,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Get("/state", h.handleGetState)
		r.Get("/lobby", h.handleGetLobby)
		r.Get("/leaderboard", h.handleGetLeaderboard)
		r.Get("/stats", h.handleGetStats)
	})

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = "./client"
	}
	r.Handle("/*", http.FileServer(http.Dir(staticDir)))

	return r
}

// requestMetrics records latency per chi route pattern, keeping the
// endpoint label bounded
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
