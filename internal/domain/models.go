package domain

import "time"

// Mode selects how questions are generated for a session.
type Mode string

const (
	// ModeResumida skips factors 0, 1 and 10 and never repeats a fact in both directions.
	ModeResumida Mode = "resumida"
	// ModeCompleta covers factors 0..10 in both directions.
	ModeCompleta Mode = "completa"
	// ModeParticipar is the fixed 36-question competitive set.
	ModeParticipar Mode = "participar"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeResumida, ModeCompleta, ModeParticipar:
		return true
	}
	return false
}

// TestConfiguration is what the configuration screen submits.
type TestConfiguration struct {
	SelectedTables     []int `json:"tables" validate:"dive,min=0,max=12"`
	Mode               Mode  `json:"mode" validate:"required,oneof=resumida completa participar"`
	SecondsPerQuestion int   `json:"timePerQuestion" validate:"gt=0"`
	PersistToStore     bool  `json:"saveToDB"`
}

// Question is a single multiplication fact.
type Question struct {
	FactorA        int `json:"a"`
	FactorB        int `json:"b"`
	ExpectedAnswer int `json:"answer"`
}

// NewQuestion builds the fact a×b.
func NewQuestion(a, b int) Question {
	return Question{FactorA: a, FactorB: b, ExpectedAnswer: a * b}
}

// AnswerRecord is the outcome of one question. SubmittedAnswer is nil on timeout.
type AnswerRecord struct {
	Question        Question `json:"question"`
	SubmittedAnswer *int     `json:"userAnswer"`
	IsCorrect       bool     `json:"correct"`
	ElapsedSeconds  float64  `json:"time"`
	TimedOut        bool     `json:"timedOut"`
}

// SessionResult summarizes a finished session.
type SessionResult struct {
	ScorePercent          int               `json:"score"`
	CorrectCount          int               `json:"correct"`
	IncorrectCount        int               `json:"incorrect"`
	TotalCount            int               `json:"total"`
	TotalElapsedSeconds   float64           `json:"totalTime"`
	AverageElapsedSeconds float64           `json:"averageTime"`
	PerAnswer             []AnswerRecord    `json:"answers,omitempty"`
	Configuration         TestConfiguration `json:"config"`
}

// StoredResult is a SessionResult as it lives in a result store.
type StoredResult struct {
	UserID     string        `json:"userId"`
	RecordedAt time.Time     `json:"date"`
	Result     SessionResult `json:"result"`
}

// LeaderboardEntry is one ranked user. BestTimeAtBestScore is nil only for users
// without a qualifying session.
type LeaderboardEntry struct {
	UserID              string   `json:"userId"`
	DisplayName         string   `json:"displayName"`
	BestScorePercent    int      `json:"bestScore"`
	BestTimeAtBestScore *float64 `json:"bestTime"`
	TotalSessions       int      `json:"totalTests"`
}

// Profile is a registered user.
type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	PasswordHash   string    `json:"-"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Dashboard is the per-user summary shown after login.
type Dashboard struct {
	UserID        string         `json:"userId"`
	TestsTaken    int            `json:"testsTaken"`
	BestScore     int            `json:"bestScore"`
	AverageTime   float64        `json:"averageTime"`
	Position      int            `json:"position"`
	RecentResults []StoredResult `json:"recent"`
}
