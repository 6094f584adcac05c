package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	preferencesdto "peerlink/internal/modules/preferences/dto"
	profiledto "peerlink/internal/modules/profile/dto"
	sessiondto "peerlink/internal/modules/session/dto"
	apperrors "peerlink/internal/platform/errors"
)

const (
	maxRequestBody = 64 << 10
	clientIDHeader = "X-Client-ID"
)

// Response helpers

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiResponse{Success: status >= 200 && status < 300, Data: data}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiResponse{Error: &apiError{Code: code, Message: message}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode error response", "error", err)
	}
}

// respondFailure maps the error taxonomy onto HTTP statuses.
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	var authErr *apperrors.AuthError
	var netErr *apperrors.NetworkError
	var protoErr *apperrors.ProtocolError
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		s.respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.As(err, &authErr):
		s.respondError(w, http.StatusUnauthorized, "auth_rejected", authErr.Message)
	case errors.Is(err, apperrors.ErrNoCredential), errors.Is(err, apperrors.ErrUnauthorized):
		s.respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.As(err, &netErr):
		s.respondError(w, http.StatusBadGateway, "network_error", "no response from upstream")
	case errors.As(err, &protoErr):
		s.respondError(w, http.StatusBadGateway, "protocol_error", protoErr.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return errors.Join(apperrors.ErrInvalidInput, err)
	}
	return nil
}

// Health

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Session

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	Login         string     `json:"login,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Expired       bool       `json:"expired"`
	Verified      bool       `json:"verified"`
	VerifyError   string     `json:"verifyError,omitempty"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	verify := r.URL.Query().Get("verify") == "true"
	status, err := s.session.Status(r.Context(), sessiondto.StatusInput{Verify: verify})
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sessionResponse{
		Authenticated: status.Authenticated,
		Login:         status.Login,
		ExpiresAt:     optionalTime(status.ExpiresAt),
		Expired:       status.Expired,
		Verified:      status.Verified,
		VerifyError:   status.VerifyError,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_body", "expected {username, password, remember}")
		return
	}
	out, err := s.session.Login(r.Context(), sessiondto.LoginInput{
		Username: req.Username,
		Password: req.Password,
		Remember: req.Remember,
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Login:         out.Login,
		ExpiresAt:     optionalTime(out.ExpiresAt),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Logout(r.Context()); err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
}

// Participants

type participantResponse struct {
	Profile        any      `json:"profile"`
	Source         string   `json:"source"`
	Missing        []string `json:"missing,omitempty"`
	Reauthenticate bool     `json:"reauthenticate"`
	Message        string   `json:"message,omitempty"`
}

func (s *Server) handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	login := chi.URLParam(r, "login")
	out, err := s.profiles.LoadProfile(r.Context(), profiledto.LoadProfileInput{Login: login, Caller: caller(r)})
	if out.RequestID != "" {
		w.Header().Set("X-Request-ID", out.RequestID)
	}
	switch {
	case errors.Is(err, apperrors.ErrSuperseded):
		s.respondError(w, http.StatusConflict, "superseded", err.Error())
	case errors.Is(err, apperrors.ErrInvalidInput):
		s.respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case out.State == profiledto.StateReady:
		s.respondJSON(w, http.StatusOK, participantResponse{
			Profile:        out.Profile,
			Source:         string(out.Source),
			Missing:        out.Missing,
			Reauthenticate: out.Reauthenticate,
			Message:        out.Message,
		})
	case out.State == profiledto.StateNotFound:
		s.respondError(w, http.StatusNotFound, "not_found", out.Message)
	case out.State == profiledto.StateUnauthorized:
		s.respondError(w, http.StatusUnauthorized, "unauthorized", out.Message)
	default:
		s.respondError(w, http.StatusBadGateway, "upstream_error", out.Message)
	}
}

// caller scopes supersession to one browser client. Requests without an
// X-Client-ID header never overtake each other.
func caller(r *http.Request) string {
	if client := strings.TrimSpace(r.Header.Get(clientIDHeader)); client != "" {
		return "client:" + client
	}
	return "request:" + middleware.GetReqID(r.Context())
}

// Preferences

type preferencesRequest struct {
	OfflineMode *bool   `json:"offlineMode"`
	Language    *string `json:"language"`
	Theme       *string `json:"theme"`
}

type preferencesResponse struct {
	OfflineMode     bool   `json:"offlineMode"`
	RememberedLogin string `json:"rememberedLogin,omitempty"`
	Language        string `json:"language"`
	Theme           string `json:"theme"`
	ThemeColor      string `json:"themeColor"`
}

func toPreferencesResponse(p preferencesdto.PreferencesOutput) preferencesResponse {
	return preferencesResponse{
		OfflineMode:     p.OfflineMode,
		RememberedLogin: p.RememberedLogin,
		Language:        p.Language,
		Theme:           p.ThemeID,
		ThemeColor:      p.ThemeHex,
	}
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.preferences.Get(r.Context())
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toPreferencesResponse(prefs))
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_body", "expected {offlineMode, language, theme}")
		return
	}
	ctx := r.Context()
	if req.Language != nil {
		if err := s.preferences.SetLanguage(ctx, *req.Language); err != nil {
			s.respondFailure(w, err)
			return
		}
	}
	if req.Theme != nil {
		if err := s.preferences.SetTheme(ctx, *req.Theme); err != nil {
			s.respondFailure(w, err)
			return
		}
	}
	if req.OfflineMode != nil {
		if err := s.preferences.SetOfflineMode(ctx, *req.OfflineMode); err != nil {
			s.respondFailure(w, err)
			return
		}
	}
	s.handleGetPreferences(w, r)
}

type themeResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleListThemes(w http.ResponseWriter, _ *http.Request) {
	themes := s.preferences.Themes()
	out := make([]themeResponse, 0, len(themes))
	for _, t := range themes {
		out = append(out, themeResponse{ID: t.ID, Name: t.Name, Color: t.Hex})
	}
	s.respondJSON(w, http.StatusOK, out)
}

// Cache

func (s *Server) handlePurgeCache(w http.ResponseWriter, r *http.Request) {
	login := strings.TrimSpace(r.URL.Query().Get("login"))
	out, err := s.profiles.PurgeCache(r.Context(), login)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"removed": out.Removed})
}
