package game

import (
	"sort"
	"strings"
	"sync"
)

// Leaderboard tallies match results per nickname across matches.
// It lives for the process lifetime and is safe for concurrent reads.
type Leaderboard struct {
	mu      sync.RWMutex
	entries map[string]*LeaderboardEntry // keyed by lowercased nickname
}

// LeaderboardEntry is one row of the leaderboard
type LeaderboardEntry struct {
	Nickname string `json:"nickname"`
	Wins     int    `json:"wins"`
	Played   int    `json:"played"`
	Rank     int    `json:"rank"`
}

// NewLeaderboard creates an empty leaderboard
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{entries: make(map[string]*LeaderboardEntry)}
}

// RecordMatch counts a finished match for every participant and a win for
// the winner. An empty winner records a match with no survivor.
func (lb *Leaderboard) RecordMatch(participants []string, winner string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	for _, name := range participants {
		lb.entry(name).Played++
	}
	if winner != "" {
		lb.entry(winner).Wins++
	}
}

// entry returns or creates the row for a nickname. Caller holds mu.
func (lb *Leaderboard) entry(nickname string) *LeaderboardEntry {
	key := strings.ToLower(nickname)
	e, ok := lb.entries[key]
	if !ok {
		e = &LeaderboardEntry{Nickname: nickname}
		lb.entries[key] = e
	}
	return e
}

// Top returns the n best rows ordered by wins, then fewest matches played
func (lb *Leaderboard) Top(n int) []LeaderboardEntry {
	lb.mu.RLock()
	rows := make([]LeaderboardEntry, 0, len(lb.entries))
	for _, e := range lb.entries {
		rows = append(rows, *e)
	}
	lb.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		if rows[i].Played != rows[j].Played {
			return rows[i].Played < rows[j].Played
		}
		return rows[i].Nickname < rows[j].Nickname
	})

	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
