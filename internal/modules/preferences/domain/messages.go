package domain

const (
	MsgNotFound     = "notFound"
	MsgUnauthorized = "unauthorized"
	MsgError        = "error"
	MsgNetwork      = "network"
	MsgLoading      = "loading"
	MsgOffline      = "offlineMode"
)

var catalog = map[Language]map[string]string{
	LanguageEN: {
		MsgNotFound:     "Participant not found",
		MsgUnauthorized: "Session expired. Please log in again.",
		MsgError:        "Error",
		MsgNetwork:      "Network error. Check your connection.",
		MsgLoading:      "Loading profile...",
		MsgOffline:      "Offline Mode",
	},
	LanguageRU: {
		MsgNotFound:     "Участник не найден",
		MsgUnauthorized: "Сессия истекла. Войдите снова.",
		MsgError:        "Ошибка",
		MsgNetwork:      "Ошибка сети. Проверьте подключение.",
		MsgLoading:      "Загрузка профиля...",
		MsgOffline:      "Офлайн режим",
	},
	LanguageUZ: {
		MsgNotFound:     "Ishtirokchi topilmadi",
		MsgUnauthorized: "Sessiya tugadi. Qaytadan kiring.",
		MsgError:        "Xato",
		MsgNetwork:      "Tarmoq xatosi. Ulanishni tekshiring.",
		MsgLoading:      "Profil yuklanmoqda...",
		MsgOffline:      "Oflayn rejim",
	},
}

// Translate falls back to English, then to the key itself.
func Translate(lang Language, key string) string {
	if msg, ok := catalog[lang][key]; ok {
		return msg
	}
	if msg, ok := catalog[LanguageEN][key]; ok {
		return msg
	}
	return key
}
