package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "peerlink/internal/platform/errors"
)

// InvalidCredentialsHint replaces terse identity-server rejections that
// mention invalid credentials.
const InvalidCredentialsHint = "Invalid Credentials. (Check: 2FA must be OFF, CapsLock)"

// Token is the opaque bearer credential.
type Token string

func (t Token) String() string { return string(t) }

type Credentials struct {
	Username string
	Password string
}

// NewCredentials trims the username and keeps the password byte for byte.
func NewCredentials(username, password string) (Credentials, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Credentials{}, fmt.Errorf("%w: username and password are required", apperrors.ErrInvalidInput)
	}
	if strings.Contains(username, "@") {
		return Credentials{}, fmt.Errorf("%w: use your platform login, not an email address", apperrors.ErrInvalidInput)
	}
	return Credentials{Username: username, Password: password}, nil
}

// Login is the form shown to the user and remembered between runs.
func (c Credentials) Login() string {
	return strings.ToLower(c.Username)
}

// Claims summarizes an access token. Nothing here is trusted unless it came
// from a verifier.
type Claims struct {
	Subject   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// RejectionMessage picks a readable message out of an identity endpoint
// error body: error_description, then error, then message.
func RejectionMessage(status int, body []byte) string {
	msg := fmt.Sprintf("Server Error: %d", status)
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error_description", "error", "message"} {
			if text := describe(payload[key]); text != "" {
				msg = text
				break
			}
		}
	}
	if (status == 401 || status == 403) && strings.Contains(strings.ToLower(msg), "invalid") {
		return InvalidCredentialsHint
	}
	return msg
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case bool:
		if !x {
			return ""
		}
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(encoded)
}
