package game

import "testing"

// TestLeaderboardRanking verifies win ordering, tie-breaks and ranks
func TestLeaderboardRanking(t *testing.T) {
	lb := NewLeaderboard()
	lb.RecordMatch([]string{"alice", "bob", "carol"}, "alice")
	lb.RecordMatch([]string{"Alice", "bob"}, "bob")
	lb.RecordMatch([]string{"bob", "carol"}, "")
	lb.RecordMatch([]string{"dave", "carol"}, "dave")

	top := lb.Top(0)
	if len(top) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(top))
	}

	want := []struct {
		name   string
		wins   int
		played int
	}{
		{"dave", 1, 1},
		{"alice", 1, 2},
		{"bob", 1, 3},
		{"carol", 0, 3},
	}
	for i, w := range want {
		row := top[i]
		if row.Nickname != w.name || row.Wins != w.wins || row.Played != w.played || row.Rank != i+1 {
			t.Errorf("row %d = %+v, want %+v", i, row, w)
		}
	}

	if got := lb.Top(2); len(got) != 2 || got[1].Nickname != "alice" {
		t.Errorf("Top(2) = %+v", got)
	}
}
