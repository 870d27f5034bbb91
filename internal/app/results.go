package app

import (
	"context"
	"errors"

	"tably-service/internal/domain"
	"tably-service/internal/logger"
	"tably-service/internal/quiz"
	"tably-service/internal/report"
)

const dashboardRecent = 3

// RecordResult keeps a finished session. The local history always receives it;
// the remote store only when the configuration asks for persistence. A remote
// failure is logged and returned, but the result stays in the local history.
func (s *QuizService) RecordResult(ctx context.Context, userID string, result domain.SessionResult) error {
	rec := domain.StoredResult{
		UserID:     userID,
		RecordedAt: s.clock.Now().UTC(),
		Result:     result,
	}
	if err := s.history.Append(ctx, rec); err != nil {
		logger.Warn("local history append failed for %s: %v", userID, err)
	}
	if !result.Configuration.PersistToStore {
		return nil
	}
	if err := s.results.SaveResult(ctx, rec); err != nil {
		logger.Warn("result not persisted for %s, kept locally: %v", userID, err)
		return &domain.PersistenceError{Op: "save result", Err: err}
	}
	logger.Info("result saved for %s: score=%d%% total=%d", userID, result.ScorePercent, result.TotalCount)
	return nil
}

// Leaderboard ranks every user with at least one persisted result. An empty
// tieBreak uses the service default. When the remote store is unreachable the
// local history stands in for it.
func (s *QuizService) Leaderboard(ctx context.Context, tieBreak string) ([]domain.LeaderboardEntry, error) {
	if tieBreak == "" {
		tieBreak = s.tieBreak
	}
	results, err := s.persistedResults(ctx)
	if err != nil {
		return nil, err
	}
	return quiz.Rank(quiz.GroupByUser(results, s.displayNames(ctx)), quiz.ParseTieBreaker(tieBreak)), nil
}

// Position is the user's 1-based leaderboard place, 0 when unranked.
func (s *QuizService) Position(ctx context.Context, userID string) (int, error) {
	entries, err := s.Leaderboard(ctx, "")
	if err != nil {
		return 0, err
	}
	return quiz.Position(entries, userID), nil
}

// History lists the user's results, newest first.
func (s *QuizService) History(ctx context.Context, userID string) ([]domain.StoredResult, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", "is required")
	}
	remote, err := s.results.ListResults(ctx, userID)
	if err == nil && len(remote) > 0 {
		return remote, nil
	}
	if err != nil {
		logger.Warn("remote history unavailable for %s, using local: %v", userID, err)
	}
	local, lerr := s.history.List(ctx, userID)
	if lerr != nil {
		if err != nil {
			return nil, &domain.PersistenceError{Op: "list history", Err: errors.Join(err, lerr)}
		}
		return nil, &domain.PersistenceError{Op: "list history", Err: lerr}
	}
	return local, nil
}

// Dashboard summarizes the user's progress.
func (s *QuizService) Dashboard(ctx context.Context, userID string) (domain.Dashboard, error) {
	history, err := s.History(ctx, userID)
	if err != nil {
		return domain.Dashboard{}, err
	}
	position, err := s.Position(ctx, userID)
	if err != nil {
		return domain.Dashboard{}, err
	}

	d := domain.Dashboard{
		UserID:     userID,
		TestsTaken: len(history),
		Position:   position,
	}
	if len(history) > 0 {
		var sum float64
		for _, rec := range history {
			if rec.Result.ScorePercent > d.BestScore {
				d.BestScore = rec.Result.ScorePercent
			}
			sum += rec.Result.AverageElapsedSeconds
		}
		d.AverageTime = sum / float64(len(history))
	}
	recent := history
	if len(recent) > dashboardRecent {
		recent = recent[:dashboardRecent]
	}
	d.RecentResults = append([]domain.StoredResult(nil), recent...)
	return d, nil
}

// Report builds the exportable progress report of a registered user.
func (s *QuizService) Report(ctx context.Context, userID string) (report.Report, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return report.Report{}, err
	}
	history, err := s.History(ctx, userID)
	if err != nil {
		return report.Report{}, err
	}
	position, err := s.Position(ctx, userID)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(profile, history, position, s.clock.Now().UTC()), nil
}

func (s *QuizService) persistedResults(ctx context.Context) ([]domain.StoredResult, error) {
	remote, err := s.results.AllResults(ctx)
	if err == nil {
		return remote, nil
	}
	logger.Warn("remote results unavailable, ranking from local history: %v", err)
	local, lerr := s.history.All(ctx)
	if lerr != nil {
		return nil, &domain.PersistenceError{Op: "list results", Err: errors.Join(err, lerr)}
	}
	kept := local[:0:0]
	for _, rec := range local {
		if rec.Result.Configuration.PersistToStore {
			kept = append(kept, rec)
		}
	}
	return kept, nil
}

func (s *QuizService) displayNames(ctx context.Context) map[string]string {
	if s.profiles == nil {
		return nil
	}
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		logger.Warn("profiles unavailable for leaderboard names: %v", err)
		return nil
	}
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.Name
	}
	return names
}
