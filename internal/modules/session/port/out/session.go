package out

import (
	"context"

	"peerlink/internal/modules/session/domain"
)

// TokenStore holds the current bearer token and persists every change.
type TokenStore interface {
	Get() (domain.Token, bool)
	Set(ctx context.Context, token domain.Token) error
	Clear(ctx context.Context) error
	// ClearIf clears the store only while it still holds token and reports
	// whether it did.
	ClearIf(ctx context.Context, token domain.Token) (bool, error)
}

type IdentityProvider interface {
	PasswordGrant(ctx context.Context, creds domain.Credentials) (domain.Token, error)
}

type TokenInspector interface {
	Inspect(token domain.Token) (domain.Claims, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token domain.Token) (domain.Claims, error)
}
