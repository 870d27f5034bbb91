package app

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tably-service/internal/domain"
	"tably-service/internal/logger"
)

// RegistrationRequest is the payload of a new user.
type RegistrationRequest struct {
	Name     string `json:"name" validate:"required,max=80"`
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register creates a profile. The phone number identifies the user, so a second
// registration with the same phone is refused.
func (s *QuizService) Register(ctx context.Context, req RegistrationRequest) (domain.Profile, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validate.Struct(req); err != nil {
		return domain.Profile{}, toValidationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Profile{}, err
	}
	profile := domain.Profile{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, domain.ErrDuplicateRegistration) {
			return domain.Profile{}, &domain.ValidationError{
				Fields: map[string]string{"phone": "is already registered"},
				Err:    domain.ErrDuplicateRegistration,
			}
		}
		return domain.Profile{}, &domain.PersistenceError{Op: "create profile", Err: err}
	}
	logger.Info("registered user %s", profile.ID)
	return profile, nil
}

// LoginRequest identifies a user by phone and password.
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login checks the password of the profile registered under the phone. An unknown
// phone and a wrong password fail the same way.
func (s *QuizService) Login(ctx context.Context, req LoginRequest) (domain.Profile, error) {
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validate.Struct(req); err != nil {
		return domain.Profile{}, toValidationError(err)
	}
	p, err := s.profiles.GetProfileByPhone(ctx, req.Phone)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return domain.Profile{}, &domain.PersistenceError{Op: "get profile", Err: err}
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)) != nil {
		return domain.Profile{}, &domain.ValidationError{
			Fields: map[string]string{"password": "does not match the phone number"},
			Err:    domain.ErrInvalidCredentials,
		}
	}
	logger.Debug("user %s logged in", p.ID)
	return p, nil
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name string `json:"name" validate:"required,max=80"`
}

// UpdateProfile renames a user and returns the updated profile.
func (s *QuizService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (domain.Profile, error) {
	upd.Name = strings.TrimSpace(upd.Name)
	if err := s.validate.Struct(upd); err != nil {
		return domain.Profile{}, toValidationError(err)
	}
	if err := s.profiles.UpdateProfileName(ctx, userID, upd.Name); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.Profile{}, err
		}
		return domain.Profile{}, &domain.PersistenceError{Op: "update profile", Err: err}
	}
	return s.Profile(ctx, userID)
}

// Profile returns a registered user.
func (s *QuizService) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	if userID == "" {
		return domain.Profile{}, domain.NewValidationError("userId", "is required")
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.Profile{}, err
		}
		return domain.Profile{}, &domain.PersistenceError{Op: "get profile", Err: err}
	}
	return p, nil
}

// SetProfilePicture records the public URL of the user's avatar.
func (s *QuizService) SetProfilePicture(ctx context.Context, userID, url string) error {
	if err := s.profiles.UpdateProfilePicture(ctx, userID, url); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return err
		}
		return &domain.PersistenceError{Op: "update profile picture", Err: err}
	}
	return nil
}
