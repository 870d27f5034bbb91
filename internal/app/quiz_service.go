package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"tably-service/internal/domain"
	"tably-service/internal/logger"
	"tably-service/internal/quiz"
)

// SessionRepository tracks live sessions, one per user (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(userID string) (*Session, bool)
	Delete(userID string, session *Session)
}

// RemoteSessionChecker is implemented by session stores shared between instances.
type RemoteSessionChecker interface {
	Active(ctx context.Context, userID string) (bool, error)
}

// ConfigSlot holds the last saved configuration of each user. Take reads and clears it.
type ConfigSlot interface {
	Put(ctx context.Context, userID string, cfg domain.TestConfiguration) error
	Take(ctx context.Context, userID string) (domain.TestConfiguration, bool, error)
}

// ResultStore is the remote result collaborator. Lists are newest first.
type ResultStore interface {
	SaveResult(ctx context.Context, rec domain.StoredResult) error
	ListResults(ctx context.Context, userID string) ([]domain.StoredResult, error)
	AllResults(ctx context.Context) ([]domain.StoredResult, error)
}

// LocalHistory is the bounded per-user history kept regardless of remote writes.
type LocalHistory interface {
	Append(ctx context.Context, rec domain.StoredResult) error
	List(ctx context.Context, userID string) ([]domain.StoredResult, error)
	All(ctx context.Context) ([]domain.StoredResult, error)
}

// ProfileStore persists registered users.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p domain.Profile) error
	GetProfile(ctx context.Context, id string) (domain.Profile, error)
	GetProfileByPhone(ctx context.Context, phone string) (domain.Profile, error)
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	UpdateProfilePicture(ctx context.Context, id, url string) error
	UpdateProfileName(ctx context.Context, id, name string) error
}

// Stores bundles the collaborators QuizService depends on.
type Stores struct {
	Sessions SessionRepository
	Slots    ConfigSlot
	Results  ResultStore
	History  LocalHistory
	Profiles ProfileStore
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(s *QuizService) { s.clock = c } }

// WithFeedback sets the pause between a closed question and the next one.
func WithFeedback(d time.Duration) Option { return func(s *QuizService) { s.feedback = d } }

// WithTieBreak sets the default leaderboard tie-break.
func WithTieBreak(name string) Option { return func(s *QuizService) { s.tieBreak = name } }

// WithRand fixes the shuffling source.
func WithRand(r *rand.Rand) Option { return func(s *QuizService) { s.rnd = r } }

// WithPersistTimeout bounds result persistence after a session ends.
func WithPersistTimeout(d time.Duration) Option { return func(s *QuizService) { s.persistTimeout = d } }

// QuizService contains the quiz use cases.
type QuizService struct {
	sessions SessionRepository
	slots    ConfigSlot
	results  ResultStore
	history  LocalHistory
	profiles ProfileStore

	clock          Clock
	feedback       time.Duration
	persistTimeout time.Duration
	tieBreak       string
	validate       *validator.Validate

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizService(stores Stores, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:       stores.Sessions,
		slots:          stores.Slots,
		results:        stores.Results,
		history:        stores.History,
		profiles:       stores.Profiles,
		clock:          SystemClock{},
		feedback:       1200 * time.Millisecond,
		persistTimeout: 5 * time.Second,
		validate:       newValidator(),
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveConfiguration validates cfg and stores it for the user's next session.
func (s *QuizService) SaveConfiguration(ctx context.Context, userID string, cfg domain.TestConfiguration) (domain.TestConfiguration, error) {
	if userID == "" {
		return domain.TestConfiguration{}, domain.NewValidationError("userId", "is required")
	}
	cfg = quiz.Normalize(cfg)
	if err := s.validate.Struct(cfg); err != nil {
		return domain.TestConfiguration{}, toValidationError(err)
	}
	if len(quiz.Build(cfg)) == 0 {
		return domain.TestConfiguration{}, &domain.ConfigurationError{Err: domain.ErrEmptyQuestionSet}
	}
	if err := s.slots.Put(ctx, userID, cfg); err != nil {
		return domain.TestConfiguration{}, &domain.PersistenceError{Op: "save configuration", Err: err}
	}
	return cfg, nil
}

// StartSession consumes the saved configuration and starts a live session.
// A session already running for the user is abandoned.
func (s *QuizService) StartSession(ctx context.Context, userID string) (*Session, error) {
	cfg, ok, err := s.slots.Take(ctx, userID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "read configuration", Err: err}
	}
	if !ok {
		return nil, &domain.ConfigurationError{Err: domain.ErrConfigurationMissing}
	}
	cfg = quiz.Normalize(cfg)

	s.rndMu.Lock()
	questions := quiz.Generate(cfg, s.rnd)
	s.rndMu.Unlock()

	state, err := quiz.Start(cfg, questions, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if previous, ok := s.sessions.Get(userID); ok {
		s.Abandon(previous)
	}

	var session *Session
	session = newSession(context.Background(), userID, state, s.clock, s.feedback, func(result domain.SessionResult) {
		persistCtx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()
		_ = s.RecordResult(persistCtx, userID, result)
		s.sessions.Delete(userID, session)
	})
	s.sessions.Put(session)
	session.start()
	logger.Debug("session started for %s: mode=%s questions=%d", userID, cfg.Mode, len(questions))
	return session, nil
}

// Session returns the user's live session.
func (s *QuizService) Session(userID string) (*Session, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// SessionActive reports whether the user has a live session here or, when the
// session store is shared, on another instance.
func (s *QuizService) SessionActive(ctx context.Context, userID string) (bool, error) {
	if _, ok := s.sessions.Get(userID); ok {
		return true, nil
	}
	if remote, ok := s.sessions.(RemoteSessionChecker); ok {
		return remote.Active(ctx, userID)
	}
	return false, nil
}

// Submit answers the active question of the user's session.
func (s *QuizService) Submit(ctx context.Context, userID, answer string) error {
	session, err := s.Session(userID)
	if err != nil {
		return err
	}
	return session.Submit(ctx, answer)
}

// EndSession abandons the user's session, if any.
func (s *QuizService) EndSession(userID string) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return
	}
	s.Abandon(session)
}

// Abandon stops the given session without recording a result. It never touches
// a newer session of the same user.
func (s *QuizService) Abandon(session *Session) {
	session.Close()
	s.sessions.Delete(session.UserID(), session)
}

// Questions previews the question list a configuration would produce, unshuffled.
func (s *QuizService) Questions(cfg domain.TestConfiguration) ([]domain.Question, error) {
	cfg = quiz.Normalize(cfg)
	if err := s.validate.Struct(cfg); err != nil {
		return nil, toValidationError(err)
	}
	return quiz.Build(cfg), nil
}
