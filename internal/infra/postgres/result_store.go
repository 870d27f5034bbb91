package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"tably-service/internal/domain"
	"tably-service/internal/logger"
)

// ResultStore persists finished sessions in the tests table. Rows are read back
// as JSON and normalized, so rows written by older schemas still load.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveResult(ctx context.Context, rec domain.StoredResult) error {
	r := rec.Result
	answers, err := json.Marshal(r.PerAnswer)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	tables := make([]int32, len(r.Configuration.SelectedTables))
	for i, t := range r.Configuration.SelectedTables {
		tables[i] = int32(t)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO tests (user_id, created_at, score, correct, total, total_time, average_time,
		                   mode, tables, time_per_question, save_to_db, answers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb)`,
		rec.UserID, rec.RecordedAt, r.ScorePercent, r.CorrectCount, r.TotalCount,
		r.TotalElapsedSeconds, r.AverageElapsedSeconds, string(r.Configuration.Mode),
		tables, r.Configuration.SecondsPerQuestion, r.Configuration.PersistToStore, string(answers))
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *ResultStore) ListResults(ctx context.Context, userID string) ([]domain.StoredResult, error) {
	return s.query(ctx, `SELECT to_jsonb(t) FROM tests t WHERE t.user_id = $1 ORDER BY t.created_at DESC, t.id DESC`, userID)
}

func (s *ResultStore) AllResults(ctx context.Context) ([]domain.StoredResult, error) {
	return s.query(ctx, `SELECT to_jsonb(t) FROM tests t ORDER BY t.created_at DESC, t.id DESC`)
}

func (s *ResultStore) query(ctx context.Context, sql string, args ...interface{}) ([]domain.StoredResult, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredResult
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		rec, err := domain.DecodeStoredResult(raw)
		if err != nil {
			logger.Warn("skipping stored result: %v", err)
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
