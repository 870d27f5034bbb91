package memory

import (
	"context"
	"sort"
	"sync"

	"tably-service/internal/domain"
)

// ProfileStore keeps registered users in process. Phone numbers are unique.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
	phones   map[string]string
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]domain.Profile),
		phones:   make(map[string]string),
	}
}

func (s *ProfileStore) CreateProfile(_ context.Context, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.phones[p.Phone]; taken {
		return domain.ErrDuplicateRegistration
	}
	s.profiles[p.ID] = p
	s.phones[p.Phone] = p.ID
	return nil
}

func (s *ProfileStore) GetProfile(_ context.Context, id string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (s *ProfileStore) GetProfileByPhone(_ context.Context, phone string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.phones[phone]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return s.profiles[id], nil
}

func (s *ProfileStore) ListProfiles(_ context.Context) ([]domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *ProfileStore) UpdateProfilePicture(_ context.Context, id, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.ProfilePicture = url
	s.profiles[id] = p
	return nil
}

func (s *ProfileStore) UpdateProfileName(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.Name = name
	s.profiles[id] = p
	return nil
}
