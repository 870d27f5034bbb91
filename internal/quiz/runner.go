package quiz

import (
	"strconv"
	"strings"
	"time"

	"tably-service/internal/domain"
)

// Phase is the position of a session in its per-question cycle.
type Phase int

const (
	PhaseAwaitingInput Phase = iota
	PhaseFeedback
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingInput:
		return "awaiting_input"
	case PhaseFeedback:
		return "feedback"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// State is a session snapshot. Transitions return a new State and never mutate
// the receiver, so a caller may keep older snapshots around.
type State struct {
	Config            domain.TestConfiguration
	Questions         []domain.Question
	Index             int
	Phase             Phase
	Remaining         int
	QuestionStartedAt time.Time
	Records           []domain.AnswerRecord
}

// Start opens the first question at now. It refuses an empty question list.
func Start(cfg domain.TestConfiguration, questions []domain.Question, now time.Time) (State, error) {
	if len(questions) == 0 {
		return State{}, &domain.ConfigurationError{Err: domain.ErrEmptyQuestionSet}
	}
	if cfg.SecondsPerQuestion <= 0 {
		return State{}, &domain.ConfigurationError{Err: domain.NewValidationError("timePerQuestion", "must be positive")}
	}
	return State{
		Config:            cfg,
		Questions:         questions,
		Phase:             PhaseAwaitingInput,
		Remaining:         cfg.SecondsPerQuestion,
		QuestionStartedAt: now,
		Records:           make([]domain.AnswerRecord, 0, len(questions)),
	}, nil
}

// Current returns the active question.
func (s State) Current() domain.Question {
	return s.Questions[s.Index]
}

// LastRecord returns the most recent answer record, if any.
func (s State) LastRecord() (domain.AnswerRecord, bool) {
	if len(s.Records) == 0 {
		return domain.AnswerRecord{}, false
	}
	return s.Records[len(s.Records)-1], true
}

// Tick applies one elapsed countdown second. Outside PhaseAwaitingInput it is a no-op.
// When the countdown reaches zero a timeout record is appended and the state moves to
// PhaseFeedback; the second return value reports that.
func (s State) Tick() (State, bool) {
	if s.Phase != PhaseAwaitingInput {
		return s, false
	}
	s.Remaining--
	if s.Remaining > 0 {
		return s, false
	}
	s.Remaining = 0
	s.Records = appendRecord(s.Records, domain.AnswerRecord{
		Question:       s.Current(),
		IsCorrect:      false,
		ElapsedSeconds: float64(s.Config.SecondsPerQuestion),
		TimedOut:       true,
	})
	s.Phase = PhaseFeedback
	return s, true
}

// Submit records raw as the answer to the active question.
func (s State) Submit(raw string, now time.Time) (State, error) {
	if s.Phase != PhaseAwaitingInput {
		return s, domain.ErrNotAcceptingInput
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s, domain.ErrInvalidAnswer
	}
	answer, err := strconv.Atoi(raw)
	if err != nil {
		return s, domain.ErrInvalidAnswer
	}
	elapsed := now.Sub(s.QuestionStartedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	question := s.Current()
	s.Records = appendRecord(s.Records, domain.AnswerRecord{
		Question:        question,
		SubmittedAnswer: &answer,
		IsCorrect:       answer == question.ExpectedAnswer,
		ElapsedSeconds:  elapsed,
	})
	s.Phase = PhaseFeedback
	return s, nil
}

// Advance ends the feedback pause: the next question opens at now with a fresh
// countdown, or the session finishes after the last one.
func (s State) Advance(now time.Time) State {
	if s.Phase != PhaseFeedback {
		return s
	}
	if s.Index+1 >= len(s.Questions) {
		s.Phase = PhaseFinished
		return s
	}
	s.Index++
	s.Phase = PhaseAwaitingInput
	s.Remaining = s.Config.SecondsPerQuestion
	s.QuestionStartedAt = now
	return s
}

// Result scores a finished session.
func (s State) Result() (domain.SessionResult, error) {
	if s.Phase != PhaseFinished {
		return domain.SessionResult{}, domain.ErrNotAcceptingInput
	}
	return Score(s.Records, s.Config)
}

// appendRecord never writes into a backing array shared with an older snapshot.
func appendRecord(records []domain.AnswerRecord, rec domain.AnswerRecord) []domain.AnswerRecord {
	out := make([]domain.AnswerRecord, len(records), len(records)+1)
	copy(out, records)
	return append(out, rec)
}
