package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"tably-service/internal/domain"
)

const uniqueViolation = "23505"

// ProfileStore persists registered users in the profiles table.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) CreateProfile(ctx context.Context, p domain.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (id, name, phone, password_hash, profile_picture, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Phone, p.PasswordHash, p.ProfilePicture, p.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateRegistration
	}
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	return s.getBy(ctx, "id", id)
}

func (s *ProfileStore) GetProfileByPhone(ctx context.Context, phone string) (domain.Profile, error) {
	return s.getBy(ctx, "phone", phone)
}

// getBy loads one profile; column is always a constant from this file.
func (s *ProfileStore) getBy(ctx context.Context, column, value string) (domain.Profile, error) {
	var p domain.Profile
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, phone, password_hash, profile_picture, created_at
		FROM profiles WHERE `+column+` = $1`, value).
		Scan(&p.ID, &p.Name, &p.Phone, &p.PasswordHash, &p.ProfilePicture, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, phone, password_hash, profile_picture, created_at
		FROM profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &p.PasswordHash, &p.ProfilePicture, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *ProfileStore) UpdateProfilePicture(ctx context.Context, id, url string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET profile_picture = $2 WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("update profile picture: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (s *ProfileStore) UpdateProfileName(ctx context.Context, id, name string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("update profile name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
