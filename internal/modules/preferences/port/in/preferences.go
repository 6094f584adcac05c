package in

import (
	"context"

	"peerlink/internal/modules/preferences/dto"
)

type Usecase interface {
	Get(ctx context.Context) (dto.PreferencesOutput, error)
	SetOfflineMode(ctx context.Context, enabled bool) error
	SetLanguage(ctx context.Context, language string) error
	SetTheme(ctx context.Context, themeID string) error
	RememberLogin(ctx context.Context, login string) error
	ForgetLogin(ctx context.Context) error
	Themes() []dto.ThemeOutput
	// Message returns the text for key in the selected language.
	Message(ctx context.Context, key string) string
}
