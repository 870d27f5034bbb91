// Package report prepares the per-user progress report: a snapshot of profile,
// ranking position and result history, plus a plain-text rendering of it.
package report

import (
	"math"
	"sort"
	"time"

	"tably-service/internal/domain"
)

// Row is one session in the report table.
type Row struct {
	Date    time.Time   `json:"date"`
	Mode    domain.Mode `json:"mode"`
	Tables  []int       `json:"tables"`
	Score   int         `json:"score"`
	Correct int         `json:"correct"`
	Total   int         `json:"total"`
	Time    float64     `json:"time"`
}

// Report is the snapshot consumed by exporters.
type Report struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Position     int       `json:"position"`
	TestsTaken   int       `json:"testsTaken"`
	BestScore    *int      `json:"bestScore"`
	AverageScore *int      `json:"averageScore"`
	BestTime     *float64  `json:"bestTime"`
	AverageTime  *float64  `json:"averageTime"`
	Rows         []Row     `json:"rows"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// Build assembles a report. Rows are sorted newest first; undated rows go last.
func Build(profile domain.Profile, results []domain.StoredResult, position int, now time.Time) Report {
	rows := make([]Row, 0, len(results))
	for _, r := range results {
		rows = append(rows, Row{
			Date:    r.RecordedAt,
			Mode:    r.Result.Configuration.Mode,
			Tables:  r.Result.Configuration.SelectedTables,
			Score:   r.Result.ScorePercent,
			Correct: r.Result.CorrectCount,
			Total:   r.Result.TotalCount,
			Time:    r.Result.TotalElapsedSeconds,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.After(rows[j].Date)
	})

	name := profile.Name
	if name == "" {
		name = profile.ID
	}
	rep := Report{
		UserID:      profile.ID,
		Name:        name,
		Position:    position,
		TestsTaken:  len(rows),
		Rows:        rows,
		GeneratedAt: now,
	}
	if len(rows) == 0 {
		return rep
	}

	best, sumScore := rows[0].Score, 0
	bestTime, sumTime := rows[0].Time, 0.0
	for _, row := range rows {
		if row.Score > best {
			best = row.Score
		}
		if row.Time < bestTime {
			bestTime = row.Time
		}
		sumScore += row.Score
		sumTime += row.Time
	}
	avgScore := int(math.Round(float64(sumScore) / float64(len(rows))))
	avgTime := sumTime / float64(len(rows))
	rep.BestScore = &best
	rep.AverageScore = &avgScore
	rep.BestTime = &bestTime
	rep.AverageTime = &avgTime
	return rep
}
