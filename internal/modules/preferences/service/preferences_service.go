package service

import (
	"context"
	"sync"

	"peerlink/internal/modules/preferences/domain"
	preferencesout "peerlink/internal/modules/preferences/port/out"
)

type PreferencesService struct {
	store preferencesout.PreferencesStore
	mu    sync.Mutex
}

func NewPreferencesService(store preferencesout.PreferencesStore) *PreferencesService {
	return &PreferencesService{store: store}
}

func (s *PreferencesService) Load(ctx context.Context) (domain.Preferences, error) {
	prefs, err := s.store.Load(ctx)
	if err != nil {
		return domain.Preferences{}, err
	}
	return prefs.Normalize(), nil
}

// Update applies change to the stored preferences as one read-modify-write.
func (s *PreferencesService) Update(ctx context.Context, change func(*domain.Preferences) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := change(&prefs); err != nil {
		return err
	}
	return s.store.Save(ctx, prefs.Normalize())
}
