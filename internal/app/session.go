package app

import (
	"context"
	"sync"
	"time"

	"tably-service/internal/domain"
	"tably-service/internal/logger"
	"tably-service/internal/quiz"
)

// EventType names what a session event carries.
type EventType string

const (
	EventQuestion EventType = "question"
	EventTick     EventType = "tick"
	EventFeedback EventType = "feedback"
	EventFinished EventType = "finished"
)

// Prompt is the visible part of a question; the expected answer stays server-side
// until feedback.
type Prompt struct {
	FactorA int `json:"a"`
	FactorB int `json:"b"`
}

// Event is pushed to the session's consumer.
type Event struct {
	Type      EventType             `json:"type"`
	Index     int                   `json:"index"`
	Total     int                   `json:"total"`
	Remaining int                   `json:"remaining"`
	Prompt    *Prompt               `json:"prompt,omitempty"`
	Record    *domain.AnswerRecord  `json:"record,omitempty"`
	Result    *domain.SessionResult `json:"result,omitempty"`
}

type submission struct {
	answer string
	reply  chan error
}

// Session drives one user's quiz. A single goroutine owns the quiz.State and reacts
// to countdown ticks, submissions and the end of the feedback pause, so the two
// events that can close a question never race.
type Session struct {
	userID   string
	clock    Clock
	feedback time.Duration
	onFinish func(domain.SessionResult)

	submits chan submission
	events  chan Event
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	state  quiz.State
	result *domain.SessionResult
}

func newSession(ctx context.Context, userID string, state quiz.State, clock Clock, feedback time.Duration, onFinish func(domain.SessionResult)) *Session {
	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		ctx:      ctx,
		cancel:   cancel,
		userID:   userID,
		clock:    clock,
		feedback: feedback,
		onFinish: onFinish,
		state:    state,
		submits:  make(chan submission),
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
	}
}

// UserID returns the owner of the session.
func (s *Session) UserID() string { return s.userID }

// Events streams session events; it is closed when the session ends.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed once the session stopped and its result was handed off.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the latest snapshot.
func (s *Session) State() quiz.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Result returns the session result once finished.
func (s *Session) Result() (domain.SessionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return domain.SessionResult{}, false
	}
	return *s.result, true
}

// Submit hands an answer to the session goroutine and waits for its verdict.
func (s *Session) Submit(ctx context.Context, answer string) error {
	reply := make(chan error, 1)
	select {
	case s.submits <- submission{answer: answer, reply: reply}:
	case <-s.done:
		return domain.ErrSessionFinished
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MaxDuration bounds how long the session can run: every question at its full
// countdown followed by the feedback pause.
func (s *Session) MaxDuration() time.Duration {
	state := s.State()
	perQuestion := time.Duration(state.Config.SecondsPerQuestion)*time.Second + s.feedback
	return time.Duration(len(state.Questions)) * perQuestion
}

// Close abandons the session without producing a result. It is safe before start.
func (s *Session) Close() {
	s.cancel()
}

func (s *Session) start() {
	go s.run(s.ctx)
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	state := s.State()
	ticker := s.clock.NewTicker(time.Second)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()
	var feedbackDone <-chan time.Time

	s.emit(ctx, questionEvent(state))
	for {
		var ticks <-chan time.Time
		if ticker != nil {
			ticks = ticker.Chan()
		}

		select {
		case <-ctx.Done():
			return

		case <-ticks:
			next, timedOut := state.Tick()
			state = next
			s.setState(state)
			if !timedOut {
				s.emit(ctx, Event{Type: EventTick, Index: state.Index, Total: len(state.Questions), Remaining: state.Remaining})
				continue
			}
			ticker.Stop()
			ticker = nil
			feedbackDone = s.clock.After(s.feedback)
			s.emit(ctx, feedbackEvent(state))

		case sub := <-s.submits:
			next, err := state.Submit(sub.answer, s.clock.Now())
			sub.reply <- err
			if err != nil {
				continue
			}
			state = next
			s.setState(state)
			if ticker != nil {
				ticker.Stop()
				ticker = nil
			}
			feedbackDone = s.clock.After(s.feedback)
			s.emit(ctx, feedbackEvent(state))

		case <-feedbackDone:
			feedbackDone = nil
			state = state.Advance(s.clock.Now())
			s.setState(state)
			if state.Phase != quiz.PhaseFinished {
				ticker = s.clock.NewTicker(time.Second)
				s.emit(ctx, questionEvent(state))
				continue
			}
			result, err := state.Result()
			if err != nil {
				logger.Error("session %s: score: %v", s.userID, err)
				return
			}
			s.mu.Lock()
			s.result = &result
			s.mu.Unlock()
			s.emit(ctx, Event{Type: EventFinished, Index: state.Index, Total: len(state.Questions), Result: &result})
			if s.onFinish != nil {
				s.onFinish(result)
			}
			return
		}
	}
}

func (s *Session) setState(state quiz.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

func questionEvent(state quiz.State) Event {
	q := state.Current()
	return Event{
		Type:      EventQuestion,
		Index:     state.Index,
		Total:     len(state.Questions),
		Remaining: state.Remaining,
		Prompt:    &Prompt{FactorA: q.FactorA, FactorB: q.FactorB},
	}
}

func feedbackEvent(state quiz.State) Event {
	rec, _ := state.LastRecord()
	return Event{Type: EventFeedback, Index: state.Index, Total: len(state.Questions), Record: &rec}
}
