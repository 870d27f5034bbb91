package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// PercentRounded returns round(100*correct/total) with halves rounded away from zero.
// total must be positive.
func PercentRounded(correct, total int) int {
	return (200*correct + total) / (2 * total)
}

var resultTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodeStoredResult unmarshals a JSON document and normalizes it.
func DecodeStoredResult(data []byte) (StoredResult, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return StoredResult{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	return NormalizeStoredResult(raw)
}

// NormalizeStoredResult maps a loosely shaped stored record onto StoredResult.
// Historical records used several key names for the same field; all of them are
// accepted here so nothing past the store boundary has to care.
func NormalizeStoredResult(raw map[string]any) (StoredResult, error) {
	fields := raw
	if nested, ok := raw["result"].(map[string]any); ok {
		fields = make(map[string]any, len(raw)+len(nested))
		for k, v := range raw {
			fields[k] = v
		}
		for k, v := range nested {
			fields[k] = v
		}
	}

	out := StoredResult{}
	out.UserID, _ = asString(firstOf(fields, "user_id", "userId"))
	if at, ok := asTime(firstOf(fields, "date", "created_at", "createdAt", "timestamp")); ok {
		out.RecordedAt = at
	}

	answers := normalizeAnswers(firstOf(fields, "answers", "questions"))

	total, hasTotal := asInt(firstOf(fields, "total", "total_questions", "totalQuestions", "questions"))
	if !hasTotal && len(answers) > 0 {
		total, hasTotal = len(answers), true
	}
	if !hasTotal || total <= 0 {
		return StoredResult{}, fmt.Errorf("%w: missing total question count", ErrMalformedResult)
	}

	score, hasScore := asInt(firstOf(fields, "score"))
	correct, hasCorrect := asInt(firstOf(fields, "correct", "correct_answers", "correctAnswers", "right"))
	switch {
	case !hasCorrect && len(answers) > 0:
		for _, a := range answers {
			if a.IsCorrect {
				correct++
			}
		}
		hasCorrect = true
	case !hasCorrect && hasScore:
		correct = (score*total + 50) / 100
		hasCorrect = true
	}
	if !hasCorrect {
		return StoredResult{}, fmt.Errorf("%w: missing correct count", ErrMalformedResult)
	}
	if correct < 0 || correct > total {
		return StoredResult{}, fmt.Errorf("%w: correct count %d outside [0,%d]", ErrMalformedResult, correct, total)
	}
	if !hasScore {
		score = PercentRounded(correct, total)
	}

	totalTime, _ := asFloat(firstOf(fields, "total_time", "totalTime", "total_time_seconds", "time"))
	avgTime, hasAvg := asFloat(firstOf(fields, "average_time", "averageTime"))
	if !hasAvg {
		avgTime = totalTime / float64(total)
	}

	out.Result = SessionResult{
		ScorePercent:          score,
		CorrectCount:          correct,
		IncorrectCount:        total - correct,
		TotalCount:            total,
		TotalElapsedSeconds:   totalTime,
		AverageElapsedSeconds: avgTime,
		PerAnswer:             answers,
		Configuration:         normalizeConfig(fields),
	}
	return out, nil
}

func normalizeConfig(fields map[string]any) TestConfiguration {
	src := fields
	if nested, ok := fields["config"].(map[string]any); ok {
		src = nested
	}
	cfg := TestConfiguration{}
	if mode, ok := asString(firstOf(src, "mode")); ok {
		cfg.Mode = Mode(mode)
	} else if mode, ok := asString(firstOf(fields, "mode")); ok {
		cfg.Mode = Mode(mode)
	}
	tables := firstOf(src, "tables", "selectedTables")
	if tables == nil {
		tables = firstOf(fields, "tables")
	}
	if list, ok := tables.([]any); ok {
		for _, v := range list {
			if n, ok := asInt(v); ok {
				cfg.SelectedTables = append(cfg.SelectedTables, n)
			}
		}
	}
	cfg.SecondsPerQuestion, _ = asInt(firstOf(src, "timePerQuestion", "time_per_question", "secondsPerQuestion"))
	cfg.PersistToStore, _ = firstOf(src, "saveToDB", "save_to_db", "persistToStore").(bool)
	return cfg
}

func normalizeAnswers(v any) []AnswerRecord {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	out := make([]AnswerRecord, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		qsrc := m
		if nested, ok := m["question"].(map[string]any); ok {
			qsrc = nested
		}
		a, _ := asInt(firstOf(qsrc, "a", "factorA"))
		b, _ := asInt(firstOf(qsrc, "b", "factorB"))
		rec := AnswerRecord{Question: NewQuestion(a, b)}
		if n, ok := asInt(firstOf(m, "userAnswer", "submittedAnswer")); ok {
			rec.SubmittedAnswer = &n
		}
		rec.IsCorrect, _ = firstOf(m, "correct", "isCorrect").(bool)
		rec.ElapsedSeconds, _ = asFloat(firstOf(m, "time", "elapsedSeconds", "timeSpent"))
		rec.TimedOut, _ = firstOf(m, "timedOut", "vencidaPorTiempo", "timeOut").(bool)
		out = append(out, rec)
	}
	return out
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range resultTimeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
