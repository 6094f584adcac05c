package service

import (
	"context"
	"log/slog"

	"peerlink/internal/modules/session/domain"
	sessionout "peerlink/internal/modules/session/port/out"
	"peerlink/internal/platform/clock"
	apperrors "peerlink/internal/platform/errors"
)

type SessionService struct {
	clock     clock.Clock
	store     sessionout.TokenStore
	identity  sessionout.IdentityProvider
	inspector sessionout.TokenInspector
	logger    *slog.Logger
}

func NewSessionService(
	clock clock.Clock,
	store sessionout.TokenStore,
	identity sessionout.IdentityProvider,
	inspector sessionout.TokenInspector,
	logger *slog.Logger,
) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{clock: clock, store: store, identity: identity, inspector: inspector, logger: logger}
}

// Authenticate exchanges credentials for a token and stores it. The password
// only ever reaches the identity provider.
func (s *SessionService) Authenticate(ctx context.Context, creds domain.Credentials) (domain.Claims, error) {
	token, err := s.identity.PasswordGrant(ctx, creds)
	if err != nil {
		s.logger.Warn("authentication failed", "login", creds.Login(), "error", err)
		return domain.Claims{}, err
	}
	if token == "" {
		return domain.Claims{}, &apperrors.ProtocolError{Target: "identity", Reason: "no token in response"}
	}
	if err := s.store.Set(ctx, token); err != nil {
		return domain.Claims{}, err
	}
	claims := s.Inspect(token)
	s.logger.Info("authenticated", "login", creds.Login(), "expires_at", claims.ExpiresAt)
	return claims, nil
}

func (s *SessionService) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// Expire clears a token the API has rejected. A token stored after the
// rejected request was sent is left alone.
func (s *SessionService) Expire(ctx context.Context, rejected domain.Token) error {
	cleared, err := s.store.ClearIf(ctx, rejected)
	if err != nil {
		return err
	}
	if cleared {
		s.logger.Warn("session expired, clearing token")
	}
	return nil
}

func (s *SessionService) Current() (domain.Token, error) {
	token, ok := s.store.Get()
	if !ok {
		return "", apperrors.ErrNoCredential
	}
	return token, nil
}

// Inspect decodes what it can from the token; opaque tokens give empty claims.
func (s *SessionService) Inspect(token domain.Token) domain.Claims {
	if s.inspector == nil {
		return domain.Claims{}
	}
	claims, err := s.inspector.Inspect(token)
	if err != nil {
		s.logger.Debug("token is not inspectable", "error", err)
		return domain.Claims{}
	}
	return claims
}

func (s *SessionService) Expired(claims domain.Claims) bool {
	return claims.Expired(s.clock.Now())
}
