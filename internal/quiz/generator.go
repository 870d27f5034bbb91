// Package quiz holds the pure quiz engine: question generation, the per-question
// state machine, scoring and ranking. Nothing here touches the network or a clock
// it did not receive from the caller.
package quiz

import (
	"math/rand"
	"sort"

	"tably-service/internal/domain"
)

const (
	// MinTable and MaxTable bound the tables a configuration may select.
	MinTable = 0
	MaxTable = 12

	// ParticiparSeconds is the fixed countdown of competitive sessions.
	ParticiparSeconds = 5

	participarLow  = 2
	participarHigh = 9
)

// ParticiparTables lists the table family covered by the competitive set.
func ParticiparTables() []int {
	tables := make([]int, 0, participarHigh-participarLow+1)
	for t := participarLow; t <= participarHigh; t++ {
		tables = append(tables, t)
	}
	return tables
}

// Normalize applies the participar override and turns SelectedTables into a sorted set.
func Normalize(cfg domain.TestConfiguration) domain.TestConfiguration {
	if cfg.Mode == domain.ModeParticipar {
		return domain.TestConfiguration{
			SelectedTables:     ParticiparTables(),
			Mode:               domain.ModeParticipar,
			SecondsPerQuestion: ParticiparSeconds,
			PersistToStore:     true,
		}
	}
	seen := make(map[int]struct{}, len(cfg.SelectedTables))
	tables := make([]int, 0, len(cfg.SelectedTables))
	for _, t := range cfg.SelectedTables {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tables = append(tables, t)
	}
	sort.Ints(tables)
	cfg.SelectedTables = tables
	return cfg
}

// Build returns the questions for cfg in generation order, without shuffling.
// An empty result means the session cannot start.
func Build(cfg domain.TestConfiguration) []domain.Question {
	cfg = Normalize(cfg)
	switch cfg.Mode {
	case domain.ModeParticipar:
		return buildParticipar()
	case domain.ModeResumida:
		return buildResumida(cfg.SelectedTables)
	case domain.ModeCompleta:
		return buildCompleta(cfg.SelectedTables)
	}
	return nil
}

// Generate builds the questions for cfg and shuffles them with rnd (Fisher-Yates).
// A nil rnd leaves generation order untouched.
func Generate(cfg domain.TestConfiguration, rnd *rand.Rand) []domain.Question {
	questions := Build(cfg)
	if rnd != nil {
		Shuffle(questions, rnd)
	}
	return questions
}

// Shuffle permutes questions in place uniformly at random.
func Shuffle(questions []domain.Question, rnd *rand.Rand) {
	for i := len(questions) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

func buildParticipar() []domain.Question {
	out := make([]domain.Question, 0, 36)
	for a := participarLow; a <= participarHigh; a++ {
		for b := a; b <= participarHigh; b++ {
			out = append(out, domain.NewQuestion(a, b))
		}
	}
	return out
}

type pair struct{ a, b int }

// buildResumida emits each unordered fact {t,i}, i in [2,9], at most once across all tables.
func buildResumida(tables []int) []domain.Question {
	var out []domain.Question
	added := make(map[pair]struct{})
	for _, t := range tables {
		for i := 2; i <= 9; i++ {
			key := pair{min(t, i), max(t, i)}
			if _, ok := added[key]; ok {
				continue
			}
			added[key] = struct{}{}
			out = append(out, domain.NewQuestion(t, i))
		}
	}
	return out
}

// buildCompleta emits (t,i) and (i,t) for i in [0,10], deduplicating each direction.
func buildCompleta(tables []int) []domain.Question {
	var out []domain.Question
	added := make(map[pair]struct{})
	emit := func(a, b int) {
		key := pair{a, b}
		if _, ok := added[key]; ok {
			return
		}
		added[key] = struct{}{}
		out = append(out, domain.NewQuestion(a, b))
	}
	for _, t := range tables {
		for i := 0; i <= 10; i++ {
			emit(t, i)
			if i != t {
				emit(i, t)
			}
		}
	}
	return out
}
