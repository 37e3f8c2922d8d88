package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fannielf/bomberman-dom-git/internal/config"
	"github.com/fannielf/bomberman-dom-git/internal/game"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the WebSocket hub the engine sends through.
type Server struct {
	engine      *game.Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates the API server around an engine and its hub.
//
// Background workers do NOT start until Start() is called, so tests can
// construct the server and use Router() without them.
func NewServer(engine *game.Engine, hub *WebSocketHub, cfg config.ServerConfig) *Server {
	SetAllowedOrigins(cfg.AllowedOrigins)

	s := &Server{
		engine:      engine,
		wsHub:       hub,
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
	}

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Hub:         hub,
		RateLimiter: s.rateLimiter,
		StaticDir:   cfg.StaticDir,
	})

	s.setupWebSocketRoutes()

	return s
}

// setupWebSocketRoutes adds the routes that need the hub instance.
// Registered after NewRouter's static catch-all; chi prefers the exact paths.
func (s *Server) setupWebSocketRoutes() {
	s.router.Get("/socket.io/", s.handleSocketIO)
	s.router.Get("/ws", s.handleWS)
}

// Start begins serving and starts background workers.
// This is the ONLY method that starts goroutines or opens listeners.
// It blocks until Stop is called or the listener fails.
func (s *Server) Start(addr string) error {
	s.rateLimiter.StartCleanup()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("💣 Game client: http://localhost%s/", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop shuts down the listener, closes every socket and stops the limiter
func (s *Server) Stop(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("⚠️ HTTP shutdown: %v", err)
		}
	}
	s.wsHub.CloseAll()
	s.rateLimiter.Stop()
}

func (s *Server) handleSocketIO(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Upgrade") == "websocket" {
		s.wsHub.HandleWebSocket(w, r)
		return
	}

	// Polling transports are not supported
	writeError(w, "use websocket", http.StatusNotFound)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}
