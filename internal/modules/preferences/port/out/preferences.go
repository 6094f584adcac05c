package out

import (
	"context"

	"peerlink/internal/modules/preferences/domain"
)

type PreferencesStore interface {
	Load(ctx context.Context) (domain.Preferences, error)
	Save(ctx context.Context, prefs domain.Preferences) error
}
