package quiz_test

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"tably-service/internal/domain"
	"tably-service/internal/quiz"
)

func TestResumidaSingleTable(t *testing.T) {
	for table := 0; table <= 12; table++ {
		qs := quiz.Build(domain.TestConfiguration{SelectedTables: []int{table}, Mode: domain.ModeResumida, SecondsPerQuestion: 5})
		if len(qs) != 8 {
			t.Fatalf("table %d: expected 8 questions, got %d", table, len(qs))
		}
		for _, q := range qs {
			if q.FactorB == 0 || q.FactorB == 1 || q.FactorB == 10 {
				t.Fatalf("table %d: unexpected factor %d", table, q.FactorB)
			}
			if q.ExpectedAnswer != q.FactorA*q.FactorB {
				t.Fatalf("bad expected answer %+v", q)
			}
		}
	}
}

func TestResumidaNoDirectionDuplicates(t *testing.T) {
	qs := quiz.Build(domain.TestConfiguration{SelectedTables: []int{3, 2, 4, 3}, Mode: domain.ModeResumida, SecondsPerQuestion: 5})
	seen := map[[2]int]bool{}
	for _, q := range qs {
		key := [2]int{min(q.FactorA, q.FactorB), max(q.FactorA, q.FactorB)}
		if seen[key] {
			t.Fatalf("fact %v emitted twice", key)
		}
		seen[key] = true
	}
	// 8 for table 2, 7 new for table 3, 6 new for table 4.
	if len(qs) != 21 {
		t.Fatalf("expected 21 questions, got %d", len(qs))
	}
	if !seen[[2]int{2, 2}] {
		t.Fatalf("expected equal-factor fact 2x2 to be included")
	}
}

func TestCompletaTableAboveTen(t *testing.T) {
	// 11 and 12 never meet themselves in 0..10, so no pair collapses.
	for _, table := range []int{11, 12} {
		qs := quiz.Build(domain.TestConfiguration{SelectedTables: []int{table}, Mode: domain.ModeCompleta, SecondsPerQuestion: 5})
		if len(qs) != 22 {
			t.Fatalf("table %d: expected 22 questions, got %d", table, len(qs))
		}
		for _, q := range qs {
			if q.FactorA != table && q.FactorB != table {
				t.Fatalf("table %d: unexpected fact %dx%d", table, q.FactorA, q.FactorB)
			}
		}
	}
}

func TestCompletaSingleTable(t *testing.T) {
	qs := quiz.Build(domain.TestConfiguration{SelectedTables: []int{5}, Mode: domain.ModeCompleta, SecondsPerQuestion: 5})
	if len(qs) != 21 {
		t.Fatalf("expected 21 questions, got %d", len(qs))
	}
	forward, reverse := 0, 0
	for _, q := range qs {
		switch {
		case q.FactorA == 5:
			forward++
		case q.FactorB == 5:
			reverse++
		default:
			t.Fatalf("question without table 5: %+v", q)
		}
	}
	if forward != 11 || reverse != 10 {
		t.Fatalf("expected 11 forward and 10 reverse, got %d and %d", forward, reverse)
	}
}

func TestCompletaTracksBothDirections(t *testing.T) {
	qs := quiz.Build(domain.TestConfiguration{SelectedTables: []int{2, 3}, Mode: domain.ModeCompleta, SecondsPerQuestion: 5})
	seen := map[[2]int]int{}
	for _, q := range qs {
		seen[[2]int{q.FactorA, q.FactorB}]++
	}
	for key, n := range seen {
		if n != 1 {
			t.Fatalf("question %v emitted %d times", key, n)
		}
	}
	if seen[[2]int{2, 3}] != 1 || seen[[2]int{3, 2}] != 1 {
		t.Fatalf("expected both 2x3 and 3x2")
	}
	// 21 for table 2, then 21 for table 3 minus (3,2) and (2,3) already emitted.
	if len(qs) != 40 {
		t.Fatalf("expected 40 questions, got %d", len(qs))
	}
}

func TestParticiparFixedSet(t *testing.T) {
	cfg := domain.TestConfiguration{SelectedTables: []int{11}, Mode: domain.ModeParticipar, SecondsPerQuestion: 30}
	first := quiz.Generate(cfg, rand.New(rand.NewSource(1)))
	second := quiz.Generate(cfg, rand.New(rand.NewSource(2)))
	if len(first) != 36 || len(second) != 36 {
		t.Fatalf("expected 36 questions, got %d and %d", len(first), len(second))
	}
	seen := map[[2]int]bool{}
	for _, q := range first {
		if q.FactorA < 2 || q.FactorA > q.FactorB || q.FactorB > 9 {
			t.Fatalf("unexpected pair %+v", q)
		}
		key := [2]int{q.FactorA, q.FactorB}
		if seen[key] {
			t.Fatalf("duplicate pair %v", key)
		}
		seen[key] = true
	}
	if !reflect.DeepEqual(sorted(first), sorted(second)) {
		t.Fatalf("expected the same multiset across calls")
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	cfg := domain.TestConfiguration{SelectedTables: []int{2, 7}, Mode: domain.ModeCompleta, SecondsPerQuestion: 5}
	a := quiz.Generate(cfg, rand.New(rand.NewSource(42)))
	b := quiz.Generate(cfg, rand.New(rand.NewSource(42)))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical output for identical seed")
	}
}

func TestEmptyTablesProduceNoQuestions(t *testing.T) {
	for _, mode := range []domain.Mode{domain.ModeResumida, domain.ModeCompleta} {
		if qs := quiz.Build(domain.TestConfiguration{Mode: mode, SecondsPerQuestion: 5}); len(qs) != 0 {
			t.Fatalf("%s: expected no questions, got %d", mode, len(qs))
		}
	}
}

func TestNormalizeParticiparOverride(t *testing.T) {
	cfg := quiz.Normalize(domain.TestConfiguration{Mode: domain.ModeParticipar, SecondsPerQuestion: 60, PersistToStore: false})
	if cfg.SecondsPerQuestion != 5 || !cfg.PersistToStore {
		t.Fatalf("expected participar override, got %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.SelectedTables, []int{2, 3, 4, 5, 6, 7, 8, 9}) {
		t.Fatalf("unexpected tables %v", cfg.SelectedTables)
	}

	practice := quiz.Normalize(domain.TestConfiguration{Mode: domain.ModeResumida, SelectedTables: []int{9, 2, 9}, SecondsPerQuestion: 8})
	if !reflect.DeepEqual(practice.SelectedTables, []int{2, 9}) || practice.SecondsPerQuestion != 8 {
		t.Fatalf("unexpected practice config %+v", practice)
	}
}

func sorted(qs []domain.Question) []domain.Question {
	out := append([]domain.Question(nil), qs...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].FactorA != out[j].FactorA {
			return out[i].FactorA < out[j].FactorA
		}
		return out[i].FactorB < out[j].FactorB
	})
	return out
}
