package api

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/fannielf/bomberman-dom-git/internal/config"
	"github.com/fannielf/bomberman-dom-git/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Metrics with bounded cardinality (no per-player labels)
var (
	// Match metrics
	matchStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bomberman_match_status",
		Help: "1 for the current lifecycle status, 0 otherwise",
	}, []string{"status"})

	lobbySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bomberman_lobby_size",
		Help: "Identities currently in the lobby",
	})

	matchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bomberman_matches_started_total",
		Help: "Matches that reached running",
	})

	matchesEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bomberman_matches_ended_total",
		Help: "Finished matches by outcome",
	}, []string{"outcome"}) // Bounded: "winner", "draw"

	matchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bomberman_match_duration_seconds",
		Help:    "Time from gameStarted to gameEnded",
		Buckets: []float64{10, 30, 60, 120, 300, 600},
	})

	playersPerMatch = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bomberman_players_per_match",
		Help:    "Players spawned at match start",
		Buckets: []float64{2, 3, 4},
	})

	// Combat metrics
	bombsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bomberman_bombs_placed_total",
		Help: "Bombs accepted",
	})

	blastTiles = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bomberman_blast_tiles",
		Help:    "Tiles covered by one detonation",
		Buckets: []float64{1, 3, 5, 9, 13, 17},
	})

	playerHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bomberman_player_hits_total",
		Help: "Lives lost to explosions",
	})

	eliminations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bomberman_eliminations_total",
		Help: "Players reduced to zero lives",
	})

	powerUpsSpawned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bomberman_powerups_spawned_total",
		Help: "Power-ups dropped from destroyed blocks",
	}, []string{"type"})

	powerUpsCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bomberman_powerups_collected_total",
		Help: "Power-ups picked up",
	}, []string{"type"})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit", "frame_limit"

	// HTTP metrics
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the chi route pattern

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Outbound WebSocket messages queued",
	})

	wsMessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_dropped_total",
		Help: "Outbound messages dropped because a client queue was full",
	})

	wsFramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_frames_received_total",
		Help: "Inbound frames by message type",
	}, []string{"type"}) // Bounded: known intent kinds plus "invalid", "unknown"
)

// GameMetrics exports match activity to prometheus
type GameMetrics struct{}

var _ game.Metrics = GameMetrics{}

var allStatuses = []game.Status{game.StatusWaiting, game.StatusCountdown, game.StatusRunning, game.StatusEnded}

func (GameMetrics) StatusChanged(s game.Status) {
	for _, st := range allStatuses {
		v := 0.0
		if st == s {
			v = 1
		}
		matchStatus.WithLabelValues(string(st)).Set(v)
	}
}

func (GameMetrics) LobbySize(n int) { lobbySize.Set(float64(n)) }

func (GameMetrics) MatchStarted(players int) {
	matchesStarted.Inc()
	playersPerMatch.Observe(float64(players))
}

func (GameMetrics) MatchEnded(hasWinner bool, d time.Duration) {
	outcome := "draw"
	if hasWinner {
		outcome = "winner"
	}
	matchesEnded.WithLabelValues(outcome).Inc()
	matchDuration.Observe(d.Seconds())
}

func (GameMetrics) BombPlaced() { bombsPlaced.Inc() }

func (GameMetrics) Detonation(tiles, hits int) {
	blastTiles.Observe(float64(tiles))
	playerHits.Add(float64(hits))
}

func (GameMetrics) PlayerEliminated() { eliminations.Inc() }

func (GameMetrics) PowerUpSpawned(t game.PowerUpType) {
	powerUpsSpawned.WithLabelValues(string(t)).Inc()
}

func (GameMetrics) PowerUpCollected(t game.PowerUpType) {
	powerUpsCollected.WithLabelValues(string(t)).Inc()
}

// =============================================================================
// DEBUG SERVER
// =============================================================================

// StartDebugServer starts the internal observability server.
// It binds to localhost unless ALLOW_DEBUG_EXTERNAL is set, since pprof is
// an easy DoS vector.
func StartDebugServer(cfg config.ObservabilityConfig) error {
	if !cfg.DebugServer {
		log.Println("📊 Debug server disabled")
		return nil
	}

	addr := debugListenAddr(cfg)

	go func() {
		log.Printf("📊 Debug server starting on %s", addr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", addr)
		log.Printf("   - metrics: http://%s/metrics", addr)

		if err := http.ListenAndServe(addr, debugHandler(cfg)); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

func debugListenAddr(cfg config.ObservabilityConfig) string {
	addr := cfg.DebugListenAddr
	if addr == "" {
		addr = "127.0.0.1:6060"
	}
	if !isLoopbackAddr(addr) && !cfg.AllowDebugExternal {
		log.Println("⚠️ Debug server forced to localhost for security")
		return "127.0.0.1:6060"
	}
	return addr
}

func isLoopbackAddr(addr string) bool {
	for _, prefix := range []string{"127.0.0.1:", "localhost:", "[::1]:"} {
		if len(addr) > len(prefix) && addr[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func debugHandler(cfg config.ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.DebugUser != "" {
		return basicAuthMiddleware(cfg.DebugUser, cfg.DebugPassword, mux)
	}
	return mux
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of the bounded values listed on connectionRejected.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages counts one queued outbound message
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// IncrementWSDropped counts one outbound message dropped for a slow client
func IncrementWSDropped() {
	wsMessagesDropped.Inc()
}

// RecordFrame counts one inbound frame by type
func RecordFrame(kind string) {
	wsFramesReceived.WithLabelValues(kind).Inc()
}
