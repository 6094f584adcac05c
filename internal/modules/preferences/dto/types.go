package dto

import "peerlink/internal/modules/preferences/domain"

// Message keys accepted by Usecase.Message.
const (
	MessageNotFound     = domain.MsgNotFound
	MessageUnauthorized = domain.MsgUnauthorized
	MessageError        = domain.MsgError
	MessageNetwork      = domain.MsgNetwork
	MessageLoading      = domain.MsgLoading
	MessageOffline      = domain.MsgOffline
)

type PreferencesOutput struct {
	OfflineMode     bool
	RememberedLogin string
	Language        string
	ThemeID         string
	ThemeName       string
	ThemeHex        string
}

type ThemeOutput struct {
	ID   string
	Name string
	Hex  string
}
