package usecase

import (
	"context"
	"fmt"
	"strings"

	"peerlink/internal/modules/preferences/domain"
	preferencesdto "peerlink/internal/modules/preferences/dto"
	preferencesin "peerlink/internal/modules/preferences/port/in"
	"peerlink/internal/modules/preferences/service"
	apperrors "peerlink/internal/platform/errors"
)

type Interactor struct {
	svc *service.PreferencesService
}

func NewInteractor(svc *service.PreferencesService) preferencesin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Get(ctx context.Context) (preferencesdto.PreferencesOutput, error) {
	prefs, err := i.svc.Load(ctx)
	if err != nil {
		return preferencesdto.PreferencesOutput{}, err
	}
	theme, _ := domain.FindTheme(prefs.ThemeID)
	return preferencesdto.PreferencesOutput{
		OfflineMode:     prefs.OfflineMode,
		RememberedLogin: prefs.RememberedLogin,
		Language:        string(prefs.Language),
		ThemeID:         theme.ID,
		ThemeName:       theme.Name,
		ThemeHex:        theme.Hex,
	}, nil
}

func (i *Interactor) SetOfflineMode(ctx context.Context, enabled bool) error {
	return i.svc.Update(ctx, func(p *domain.Preferences) error {
		p.OfflineMode = enabled
		return nil
	})
}

func (i *Interactor) SetLanguage(ctx context.Context, language string) error {
	lang, err := domain.ParseLanguage(language)
	if err != nil {
		return err
	}
	return i.svc.Update(ctx, func(p *domain.Preferences) error {
		p.Language = lang
		return nil
	})
}

func (i *Interactor) SetTheme(ctx context.Context, themeID string) error {
	theme, err := domain.FindTheme(themeID)
	if err != nil {
		return err
	}
	return i.svc.Update(ctx, func(p *domain.Preferences) error {
		p.ThemeID = theme.ID
		return nil
	})
}

func (i *Interactor) RememberLogin(ctx context.Context, login string) error {
	login = strings.TrimSpace(login)
	if login == "" {
		return fmt.Errorf("%w: login is required", apperrors.ErrInvalidInput)
	}
	return i.svc.Update(ctx, func(p *domain.Preferences) error {
		p.RememberedLogin = login
		return nil
	})
}

func (i *Interactor) ForgetLogin(ctx context.Context) error {
	return i.svc.Update(ctx, func(p *domain.Preferences) error {
		p.RememberedLogin = ""
		return nil
	})
}

func (i *Interactor) Message(ctx context.Context, key string) string {
	lang := domain.LanguageEN
	if prefs, err := i.svc.Load(ctx); err == nil {
		lang = prefs.Language
	}
	return domain.Translate(lang, key)
}

func (i *Interactor) Themes() []preferencesdto.ThemeOutput {
	out := make([]preferencesdto.ThemeOutput, 0, len(domain.Themes))
	for _, t := range domain.Themes {
		out = append(out, preferencesdto.ThemeOutput{ID: t.ID, Name: t.Name, Hex: t.Hex})
	}
	return out
}
