package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"tably-service/internal/app"
	"tably-service/internal/domain"
	pgstore "tably-service/internal/infra/postgres"
	pgmigrations "tably-service/internal/infra/postgres/migrations"
	infraredis "tably-service/internal/infra/redis"
)

func TestResultsEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	service := app.NewQuizService(app.Stores{
		Sessions: infraredis.NewSessionStore(redisClient, 5*time.Minute),
		Slots:    infraredis.NewConfigSlot(redisClient, 5*time.Minute),
		Results:  infraredis.NewResultCache(redisClient, pgstore.NewResultStore(pool), time.Minute),
		History:  infraredis.NewLocalHistory(redisClient, 200),
		Profiles: pgstore.NewProfileStore(pool),
	})

	ana, err := service.Register(ctx, app.RegistrationRequest{Name: "Ana", Phone: "5512345678", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	beto, err := service.Register(ctx, app.RegistrationRequest{Name: "Beto", Phone: "5587654321", Password: "secret2"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = service.Register(ctx, app.RegistrationRequest{Name: "Otra", Phone: "5512345678", Password: "secret3"})
	if !errors.Is(err, domain.ErrDuplicateRegistration) {
		t.Fatalf("expected duplicate registration, got %v", err)
	}

	record := func(userID string, correct, total int, seconds float64, persist bool) {
		t.Helper()
		result := domain.SessionResult{
			ScorePercent:          domain.PercentRounded(correct, total),
			CorrectCount:          correct,
			IncorrectCount:        total - correct,
			TotalCount:            total,
			TotalElapsedSeconds:   seconds,
			AverageElapsedSeconds: seconds / float64(total),
			Configuration: domain.TestConfiguration{
				Mode: domain.ModeParticipar, SelectedTables: []int{2, 3, 4, 5, 6, 7, 8, 9}, SecondsPerQuestion: 5, PersistToStore: persist,
			},
		}
		if err := service.RecordResult(ctx, userID, result); err != nil {
			t.Fatalf("record result: %v", err)
		}
	}
	record(ana.ID, 27, 36, 80, true)
	record(beto.ID, 36, 36, 95, true)
	record(beto.ID, 36, 36, 70, true)
	record(ana.ID, 36, 36, 10, false)

	board, err := service.Leaderboard(ctx, "")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 || board[0].UserID != beto.ID || board[0].DisplayName != "Beto" {
		t.Fatalf("expected Beto leading, got %+v", board)
	}
	if *board[0].BestTimeAtBestScore != 70 || board[0].TotalSessions != 2 || board[1].BestScorePercent != 75 {
		t.Fatalf("unexpected entries %+v", board)
	}

	history, err := service.History(ctx, beto.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Result.TotalElapsedSeconds != 70 {
		t.Fatalf("expected newest first, got %+v", history)
	}
	if got := history[0].Result.Configuration; got.Mode != domain.ModeParticipar || len(got.SelectedTables) != 8 {
		t.Fatalf("configuration lost in round trip: %+v", got)
	}

	if logged, err := service.Login(ctx, app.LoginRequest{Phone: "5587654321", Password: "secret2"}); err != nil || logged.ID != beto.ID {
		t.Fatalf("login: %+v err=%v", logged, err)
	}
	if _, err := service.Login(ctx, app.LoginRequest{Phone: "5587654321", Password: "secret1"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if renamed, err := service.UpdateProfile(ctx, beto.ID, app.ProfileUpdate{Name: "Roberto"}); err != nil || renamed.Name != "Roberto" {
		t.Fatalf("update profile: %+v err=%v", renamed, err)
	}

	if err := service.SetProfilePicture(ctx, ana.ID, "/images/avatars/a/1.png"); err != nil {
		t.Fatalf("set picture: %v", err)
	}
	rep, err := service.Report(ctx, ana.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if rep.Position != 2 || rep.TestsTaken != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "tably", "POSTGRES_PASSWORD": "tablypass", "POSTGRES_DB": "tably"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://tably:tablypass@%s:%s/tably?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
