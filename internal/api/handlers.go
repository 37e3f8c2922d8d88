package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// maxLeaderboardRows caps ?limit= on /api/leaderboard
const maxLeaderboardRows = 100

// /api/state?since= long-poll bounds, ?wait= is in milliseconds
const (
	defaultStateWait = 25 * time.Second
	maxStateWait     = 30 * time.Second
)

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleGetState returns the latest snapshot. With ?since=<sequence> it
// long-polls until a newer one is published or the wait runs out, in which
// case the current snapshot is returned unchanged.
func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("since") == "" {
		snap := h.engine.Snapshot()
		if snap == nil {
			writeError(w, "State not available", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, snap)
		return
	}

	since, err := strconv.ParseUint(q.Get("since"), 10, 64)
	if err != nil {
		writeError(w, "Invalid since parameter", http.StatusBadRequest)
		return
	}
	wait := defaultStateWait
	if v := q.Get("wait"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			writeError(w, "Invalid wait parameter", http.StatusBadRequest)
			return
		}
		wait = time.Duration(ms) * time.Millisecond
		if wait > maxStateWait {
			wait = maxStateWait
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()

	snap, err := h.engine.WaitSnapshot(ctx, since)
	if errors.Is(err, context.DeadlineExceeded) {
		snap, err = h.engine.Snapshot(), nil
	}
	if err != nil || snap == nil {
		writeError(w, "State not available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

// handleGetLobby returns what the lobby screen shows before a join
func (h *routerHandlers) handleGetLobby(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	if snap == nil {
		writeError(w, "State not available", http.StatusServiceUnavailable)
		return
	}

	players := make([]string, 0, len(snap.Lobby))
	for _, entry := range snap.Lobby {
		players = append(players, entry.Nickname)
	}

	writeJSON(w, map[string]interface{}{
		"status":     snap.Status,
		"count":      len(snap.Lobby),
		"players":    players,
		"gameFull":   snap.GameFull(),
		"maxPlayers": snap.MaxPlayers,
		"countdown":  snap.Countdown,
	})
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLeaderboardRows)
	}

	writeJSON(w, map[string]interface{}{
		"leaderboard": h.engine.Leaderboard().Top(limit),
	})
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"eventLog":  h.engine.GetEventLogStats(),
		"rateLimit": h.rateLimiter.GetStats(),
	}

	if snap := h.engine.Snapshot(); snap != nil {
		stats["match"] = map[string]interface{}{
			"matchNum":   snap.MatchNum,
			"status":     snap.Status,
			"lobby":      len(snap.Lobby),
			"alive":      snap.AliveCount(),
			"bombs":      len(snap.Bombs),
			"explosions": len(snap.Explosions),
			"sequence":   snap.Sequence,
		}
	}
	if h.hub != nil {
		stats["websocket"] = h.hub.GetStats()
	}

	writeJSON(w, stats)
}

// Helper functions

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
