package domain

import (
	"fmt"
	"strings"

	apperrors "peerlink/internal/platform/errors"
)

type Language string

const (
	LanguageEN Language = "EN"
	LanguageRU Language = "RU"
	LanguageUZ Language = "UZ"
)

func ParseLanguage(v string) (Language, error) {
	switch lang := Language(strings.ToUpper(strings.TrimSpace(v))); lang {
	case LanguageEN, LanguageRU, LanguageUZ:
		return lang, nil
	default:
		return "", fmt.Errorf("%w: unsupported language %q (EN, RU, UZ)", apperrors.ErrInvalidInput, v)
	}
}

type Theme struct {
	ID   string
	Name string
	Hex  string
}

const DefaultThemeID = "cyber"

var Themes = []Theme{
	{ID: "cyber", Name: "Cyberpunk", Hex: "#00f3ff"},
	{ID: "matrix", Name: "Matrix", Hex: "#00ff41"},
	{ID: "sunset", Name: "Sunset", Hex: "#ff9900"},
	{ID: "royal", Name: "Royal", Hex: "#ffd700"},
	{ID: "blood", Name: "Vampire", Hex: "#ff0000"},
}

func FindTheme(id string) (Theme, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, theme := range Themes {
		if theme.ID == id {
			return theme, nil
		}
	}
	return Theme{}, fmt.Errorf("%w: unknown theme %q", apperrors.ErrInvalidInput, id)
}

type Preferences struct {
	OfflineMode     bool
	RememberedLogin string
	Language        Language
	ThemeID         string
}

func Defaults() Preferences {
	return Preferences{Language: LanguageEN, ThemeID: DefaultThemeID}
}

// Normalize replaces unknown stored values with defaults.
func (p Preferences) Normalize() Preferences {
	if _, err := ParseLanguage(string(p.Language)); err != nil {
		p.Language = LanguageEN
	}
	if _, err := FindTheme(p.ThemeID); err != nil {
		p.ThemeID = DefaultThemeID
	}
	p.RememberedLogin = strings.ToLower(strings.TrimSpace(p.RememberedLogin))
	return p
}
