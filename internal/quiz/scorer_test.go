package quiz_test

import (
	"errors"
	"reflect"
	"testing"

	"tably-service/internal/domain"
	"tably-service/internal/quiz"
)

func record(correct bool, elapsed float64) domain.AnswerRecord {
	answer := 12
	if !correct {
		answer = 11
	}
	return domain.AnswerRecord{
		Question:        domain.NewQuestion(3, 4),
		SubmittedAnswer: &answer,
		IsCorrect:       correct,
		ElapsedSeconds:  elapsed,
	}
}

func TestScoreRoundsToNearest(t *testing.T) {
	records := []domain.AnswerRecord{record(true, 1), record(true, 2), record(false, 3)}
	result, err := quiz.Score(records, practiceConfig(5))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.ScorePercent != 67 {
		t.Fatalf("expected 67, got %d", result.ScorePercent)
	}
	if result.CorrectCount+result.IncorrectCount != result.TotalCount || result.TotalCount != len(result.PerAnswer) {
		t.Fatalf("correct plus incorrect must equal total: %+v", result)
	}
	if result.TotalElapsedSeconds != 6 || result.AverageElapsedSeconds != 2 {
		t.Fatalf("unexpected timing %v / %v", result.TotalElapsedSeconds, result.AverageElapsedSeconds)
	}
}

func TestScoreHalfRoundsUp(t *testing.T) {
	records := make([]domain.AnswerRecord, 8)
	for i := range records {
		records[i] = record(i == 0, 1)
	}
	result, _ := quiz.Score(records, practiceConfig(5))
	if result.ScorePercent != 13 {
		t.Fatalf("expected 12.5 to round to 13, got %d", result.ScorePercent)
	}
}

func TestScoreSingleRecordBoundaries(t *testing.T) {
	right, _ := quiz.Score([]domain.AnswerRecord{record(true, 1)}, practiceConfig(5))
	if right.ScorePercent != 100 {
		t.Fatalf("expected 100, got %d", right.ScorePercent)
	}
	timeout := domain.AnswerRecord{Question: domain.NewQuestion(2, 2), TimedOut: true, ElapsedSeconds: 5}
	wrong, _ := quiz.Score([]domain.AnswerRecord{timeout}, practiceConfig(5))
	if wrong.ScorePercent != 0 {
		t.Fatalf("expected 0, got %d", wrong.ScorePercent)
	}
}

func TestScoreIsPure(t *testing.T) {
	records := []domain.AnswerRecord{record(true, 1.25), record(false, 4)}
	a, _ := quiz.Score(records, practiceConfig(5))
	b, _ := quiz.Score(records, practiceConfig(5))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical results")
	}
}

func TestScoreRejectsEmpty(t *testing.T) {
	if _, err := quiz.Score(nil, practiceConfig(5)); !errors.Is(err, domain.ErrEmptyRecords) {
		t.Fatalf("expected empty records error, got %v", err)
	}
}
