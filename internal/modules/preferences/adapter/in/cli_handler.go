package in

import (
	"context"

	preferencesdto "peerlink/internal/modules/preferences/dto"
	preferencesin "peerlink/internal/modules/preferences/port/in"
)

type CLIHandler struct {
	usecase preferencesin.Usecase
}

func NewCLIHandler(usecase preferencesin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Get(ctx context.Context) (preferencesdto.PreferencesOutput, error) {
	return h.usecase.Get(ctx)
}

func (h CLIHandler) SetOfflineMode(ctx context.Context, enabled bool) error {
	return h.usecase.SetOfflineMode(ctx, enabled)
}

func (h CLIHandler) SetLanguage(ctx context.Context, language string) error {
	return h.usecase.SetLanguage(ctx, language)
}

func (h CLIHandler) SetTheme(ctx context.Context, themeID string) error {
	return h.usecase.SetTheme(ctx, themeID)
}

func (h CLIHandler) ForgetLogin(ctx context.Context) error {
	return h.usecase.ForgetLogin(ctx)
}

func (h CLIHandler) Themes() []preferencesdto.ThemeOutput {
	return h.usecase.Themes()
}

func (h CLIHandler) Message(ctx context.Context, key string) string {
	return h.usecase.Message(ctx, key)
}
