package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tably-service/internal/app"
	"tably-service/internal/domain"
)

type failingResults struct{ err error }

func (f failingResults) SaveResult(context.Context, domain.StoredResult) error { return f.err }
func (f failingResults) ListResults(context.Context, string) ([]domain.StoredResult, error) {
	return nil, f.err
}
func (f failingResults) AllResults(context.Context) ([]domain.StoredResult, error) { return nil, f.err }

func result(correct, total int, seconds float64, persist bool) domain.SessionResult {
	return domain.SessionResult{
		ScorePercent:          domain.PercentRounded(correct, total),
		CorrectCount:          correct,
		IncorrectCount:        total - correct,
		TotalCount:            total,
		TotalElapsedSeconds:   seconds,
		AverageElapsedSeconds: seconds / float64(total),
		Configuration:         domain.TestConfiguration{Mode: domain.ModeCompleta, SelectedTables: []int{2}, SecondsPerQuestion: 5, PersistToStore: persist},
	}
}

func TestRecordResultFallsBackLocally(t *testing.T) {
	ctx := context.Background()
	f := newFixture(failingResults{err: errors.New("store offline")})

	err := f.svc.RecordResult(ctx, "u1", result(3, 4, 8, true))
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if err := f.svc.RecordResult(ctx, "u1", result(4, 4, 6, false)); err != nil {
		t.Fatalf("unpersisted result must not touch the store: %v", err)
	}

	history, err := f.svc.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected both results locally, got %d", len(history))
	}

	board, err := f.svc.Leaderboard(ctx, "")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].BestScorePercent != 75 || board[0].TotalSessions != 1 {
		t.Fatalf("expected ranking from persisted local results only, got %+v", board)
	}
}

func TestLeaderboardUsesProfileNamesAndTieBreak(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)

	zoe, err := f.svc.Register(ctx, app.RegistrationRequest{Name: "Zoe", Phone: "5511111111", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	ana, err := f.svc.Register(ctx, app.RegistrationRequest{Name: "Ana", Phone: "5522222222", Password: "secret2"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_ = f.svc.RecordResult(ctx, zoe.ID, result(4, 4, 10, true))
	_ = f.svc.RecordResult(ctx, ana.ID, result(4, 4, 10, true))
	_ = f.svc.RecordResult(ctx, "guest", result(1, 4, 3, true))

	board, err := f.svc.Leaderboard(ctx, "name")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 3 || board[0].DisplayName != "Ana" || board[1].DisplayName != "Zoe" {
		t.Fatalf("expected name tie-break, got %+v", board)
	}
	if board[2].UserID != "guest" || board[2].DisplayName != "guest" {
		t.Fatalf("expected unnamed user last with id as name, got %+v", board[2])
	}

	pos, err := f.svc.Position(ctx, "guest")
	if err != nil || pos != 3 {
		t.Fatalf("expected position 3, got %d err=%v", pos, err)
	}
	if pos, _ := f.svc.Position(ctx, "nobody"); pos != 0 {
		t.Fatalf("expected 0 for unranked user, got %d", pos)
	}
}

func TestDashboardAndReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	p, err := f.svc.Register(ctx, app.RegistrationRequest{Name: "Ana", Phone: "+525512345678", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	for i, r := range []domain.SessionResult{
		result(2, 4, 8, true),
		result(4, 4, 4, true),
		result(3, 4, 12, true),
		result(1, 4, 16, true),
	} {
		f.clock.Advance(time.Duration(i+1) * time.Minute)
		if err := f.svc.RecordResult(ctx, p.ID, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	d, err := f.svc.Dashboard(ctx, p.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TestsTaken != 4 || d.BestScore != 100 || d.Position != 1 || d.AverageTime != 2.5 {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if len(d.RecentResults) != 3 || d.RecentResults[0].Result.ScorePercent != 25 {
		t.Fatalf("expected three most recent results, newest first, got %+v", d.RecentResults)
	}

	rep, err := f.svc.Report(ctx, p.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if rep.Name != "Ana" || rep.TestsTaken != 4 || *rep.BestScore != 100 || *rep.BestTime != 4 {
		t.Fatalf("unexpected report %+v", rep)
	}

	if _, err := f.svc.Report(ctx, "missing"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)

	_, err := f.svc.Register(ctx, app.RegistrationRequest{Name: " ", Phone: "12ab", Password: "123"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"name", "phone", "password"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected %s to be rejected, got %v", field, verr.Fields)
		}
	}

	p, err := f.svc.Register(ctx, app.RegistrationRequest{Name: "Ana", Phone: "5512345678", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.ID == "" || p.PasswordHash == "" || p.PasswordHash == "secret1" {
		t.Fatalf("expected id and hashed password, got %+v", p)
	}
	_, err = f.svc.Register(ctx, app.RegistrationRequest{Name: "Otra", Phone: "5512345678", Password: "secret2"})
	if !errors.Is(err, domain.ErrDuplicateRegistration) || !errors.As(err, &verr) {
		t.Fatalf("expected duplicate registration validation error, got %v", err)
	}

	if err := f.svc.SetProfilePicture(ctx, p.ID, "/images/avatars/x/1.png"); err != nil {
		t.Fatalf("set picture: %v", err)
	}
	got, _ := f.svc.Profile(ctx, p.ID)
	if got.ProfilePicture != "/images/avatars/x/1.png" {
		t.Fatalf("picture not stored: %+v", got)
	}
}

func TestLoginAndUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)

	p, err := f.svc.Register(ctx, app.RegistrationRequest{Name: "Ana", Phone: "5512345678", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := f.svc.Login(ctx, app.LoginRequest{Phone: " 5512345678 ", Password: "secret1"})
	if err != nil || got.ID != p.ID {
		t.Fatalf("expected login as %s, got %+v err=%v", p.ID, got, err)
	}

	var verr *domain.ValidationError
	for _, req := range []app.LoginRequest{
		{Phone: "5512345678", Password: "wrong-pass"},
		{Phone: "5599999999", Password: "secret1"},
	} {
		_, err := f.svc.Login(ctx, req)
		if !errors.Is(err, domain.ErrInvalidCredentials) || !errors.As(err, &verr) {
			t.Fatalf("expected invalid credentials for %+v, got %v", req, err)
		}
	}
	if _, err := f.svc.Login(ctx, app.LoginRequest{}); !errors.As(err, &verr) || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected field validation error, got %v", err)
	}

	updated, err := f.svc.UpdateProfile(ctx, p.ID, app.ProfileUpdate{Name: "  Ana María "})
	if err != nil || updated.Name != "Ana María" {
		t.Fatalf("expected renamed profile, got %+v err=%v", updated, err)
	}
	if _, err := f.svc.UpdateProfile(ctx, p.ID, app.ProfileUpdate{Name: ""}); !errors.As(err, &verr) {
		t.Fatalf("expected empty name rejected, got %v", err)
	}
	if _, err := f.svc.UpdateProfile(ctx, "missing", app.ProfileUpdate{Name: "X"}); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if again, _ := f.svc.Login(ctx, app.LoginRequest{Phone: "5512345678", Password: "secret1"}); again.Name != "Ana María" {
		t.Fatalf("login must see the new name, got %+v", again)
	}
}
