package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	preferencesadapter "peerlink/internal/modules/preferences/adapter/out"
	"peerlink/internal/modules/preferences/domain"
	preferencesin "peerlink/internal/modules/preferences/port/in"
	"peerlink/internal/modules/preferences/service"
	"peerlink/internal/modules/preferences/usecase"
	apperrors "peerlink/internal/platform/errors"
)

func newUsecase(t *testing.T, dbPath string) preferencesin.Usecase {
	t.Helper()
	store, err := preferencesadapter.NewSQLitePreferencesStore(dbPath)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return usecase.NewInteractor(service.NewPreferencesService(store))
}

func TestDefaultsBeforeAnyWrite(t *testing.T) {
	t.Parallel()
	uc := newUsecase(t, filepath.Join(t.TempDir(), "peerlink.db"))
	prefs, err := uc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prefs.OfflineMode || prefs.RememberedLogin != "" || prefs.Language != "EN" || prefs.ThemeID != "cyber" || prefs.ThemeHex != "#00f3ff" {
		t.Fatalf("unexpected defaults %+v", prefs)
	}
}

func TestPreferencesPersistAcrossRestart(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "peerlink.db")
	ctx := context.Background()
	uc := newUsecase(t, dbPath)

	if err := uc.SetOfflineMode(ctx, true); err != nil {
		t.Fatalf("set offline: %v", err)
	}
	if err := uc.SetLanguage(ctx, "uz"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if err := uc.SetTheme(ctx, "blood"); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if err := uc.RememberLogin(ctx, "RRangesi"); err != nil {
		t.Fatalf("remember login: %v", err)
	}

	prefs, err := newUsecase(t, dbPath).Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !prefs.OfflineMode || prefs.Language != "UZ" || prefs.ThemeID != "blood" || prefs.RememberedLogin != "rrangesi" {
		t.Fatalf("unexpected persisted preferences %+v", prefs)
	}
	if msg := uc.Message(ctx, domain.MsgNotFound); msg != "Ishtirokchi topilmadi" {
		t.Fatalf("expected uzbek message, got %q", msg)
	}

	if err := uc.ForgetLogin(ctx); err != nil {
		t.Fatalf("forget login: %v", err)
	}
	prefs, _ = uc.Get(ctx)
	if prefs.RememberedLogin != "" || !prefs.OfflineMode {
		t.Fatalf("forget must only clear the login: %+v", prefs)
	}
}

func TestRejectsInvalidValues(t *testing.T) {
	t.Parallel()
	uc := newUsecase(t, filepath.Join(t.TempDir(), "peerlink.db"))
	ctx := context.Background()
	for name, err := range map[string]error{
		"language": uc.SetLanguage(ctx, "klingon"),
		"theme":    uc.SetTheme(ctx, "neon"),
		"login":    uc.RememberLogin(ctx, "  "),
	} {
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", name, err)
		}
	}
}

func TestThemesListsPresets(t *testing.T) {
	t.Parallel()
	themes := newUsecase(t, filepath.Join(t.TempDir(), "peerlink.db")).Themes()
	if len(themes) != 5 || themes[0].ID != "cyber" || themes[4].Hex != "#ff0000" {
		t.Fatalf("unexpected themes %+v", themes)
	}
}
