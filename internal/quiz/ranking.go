package quiz

import (
	"sort"

	"tably-service/internal/domain"
)

// UserHistory is one user's results in the order the caller wants ties to keep.
type UserHistory struct {
	UserID      string
	DisplayName string
	Results     []domain.SessionResult
}

// TieBreaker orders two entries that share best score and best time.
// It reports whether a sorts before b. A nil TieBreaker keeps encounter order.
type TieBreaker func(a, b domain.LeaderboardEntry) bool

// TieBreakByName orders tied entries alphabetically by display name.
func TieBreakByName(a, b domain.LeaderboardEntry) bool {
	return a.DisplayName < b.DisplayName
}

// TieBreakByUserID orders tied entries by user id.
func TieBreakByUserID(a, b domain.LeaderboardEntry) bool {
	return a.UserID < b.UserID
}

// ParseTieBreaker resolves a configured tie-break name; unknown names mean none.
func ParseTieBreaker(name string) TieBreaker {
	switch name {
	case "name":
		return TieBreakByName
	case "user_id", "userId":
		return TieBreakByUserID
	}
	return nil
}

// Rank derives the leaderboard: best score descending, then best time at that
// score ascending, then tieBreak. Users without results are left out.
func Rank(histories []UserHistory, tieBreak TieBreaker) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(histories))
	for _, h := range histories {
		if len(h.Results) == 0 {
			continue
		}
		entries = append(entries, entryFor(h))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.BestScorePercent != b.BestScorePercent {
			return a.BestScorePercent > b.BestScorePercent
		}
		switch {
		case a.BestTimeAtBestScore == nil && b.BestTimeAtBestScore == nil:
		case a.BestTimeAtBestScore == nil:
			return false
		case b.BestTimeAtBestScore == nil:
			return true
		case *a.BestTimeAtBestScore != *b.BestTimeAtBestScore:
			return *a.BestTimeAtBestScore < *b.BestTimeAtBestScore
		}
		if tieBreak != nil {
			return tieBreak(a, b)
		}
		return false
	})
	return entries
}

// Position returns the 1-based rank of userID, or 0 when absent.
func Position(entries []domain.LeaderboardEntry, userID string) int {
	for i, e := range entries {
		if e.UserID == userID {
			return i + 1
		}
	}
	return 0
}

func entryFor(h UserHistory) domain.LeaderboardEntry {
	best := h.Results[0].ScorePercent
	for _, r := range h.Results[1:] {
		if r.ScorePercent > best {
			best = r.ScorePercent
		}
	}
	var bestTime *float64
	for _, r := range h.Results {
		if r.ScorePercent != best {
			continue
		}
		if bestTime == nil || r.TotalElapsedSeconds < *bestTime {
			t := r.TotalElapsedSeconds
			bestTime = &t
		}
	}
	name := h.DisplayName
	if name == "" {
		name = h.UserID
	}
	return domain.LeaderboardEntry{
		UserID:              h.UserID,
		DisplayName:         name,
		BestScorePercent:    best,
		BestTimeAtBestScore: bestTime,
		TotalSessions:       len(h.Results),
	}
}

// GroupByUser turns stored results into histories ordered by ascending user id.
// names supplies display names; missing users fall back to their id.
func GroupByUser(results []domain.StoredResult, names map[string]string) []UserHistory {
	byUser := make(map[string][]domain.SessionResult)
	for _, r := range results {
		if r.UserID == "" {
			continue
		}
		byUser[r.UserID] = append(byUser[r.UserID], r.Result)
	}
	ids := make([]string, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]UserHistory, 0, len(ids))
	for _, id := range ids {
		out = append(out, UserHistory{UserID: id, DisplayName: names[id], Results: byUser[id]})
	}
	return out
}
