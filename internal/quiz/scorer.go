package quiz

import "tably-service/internal/domain"

// Score aggregates records into a SessionResult. It fails on an empty sequence.
func Score(records []domain.AnswerRecord, cfg domain.TestConfiguration) (domain.SessionResult, error) {
	if len(records) == 0 {
		return domain.SessionResult{}, domain.ErrEmptyRecords
	}
	correct := 0
	total := 0.0
	for _, rec := range records {
		if rec.IsCorrect {
			correct++
		}
		total += rec.ElapsedSeconds
	}
	perAnswer := make([]domain.AnswerRecord, len(records))
	copy(perAnswer, records)

	n := len(records)
	return domain.SessionResult{
		ScorePercent:          domain.PercentRounded(correct, n),
		CorrectCount:          correct,
		IncorrectCount:        n - correct,
		TotalCount:            n,
		TotalElapsedSeconds:   total,
		AverageElapsedSeconds: total / float64(n),
		PerAnswer:             perAnswer,
		Configuration:         cfg,
	}, nil
}
