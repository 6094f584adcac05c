package out

import (
	"context"
	"time"

	"peerlink/internal/modules/profile/domain"
)

type ResourceFetcher interface {
	FetchAuthorized(ctx context.Context, endpoint string) (domain.Payload, error)
	// FetchOptional turns every failure into an absent payload.
	FetchOptional(ctx context.Context, endpoint string) domain.Payload
}

// CredentialSource is the session as seen by the fetcher.
type CredentialSource interface {
	AccessToken(ctx context.Context) (string, error)
	// Invalidate forgets rejected if it is still the current token.
	Invalidate(ctx context.Context, rejected string) error
}

type ProfileCache interface {
	// Load returns apperrors.ErrCacheMiss when login has no entry.
	Load(ctx context.Context, login string) ([]byte, error)
	Store(ctx context.Context, login string, blob []byte, loadedAt time.Time) error
	Delete(ctx context.Context, login string) (bool, error)
	Purge(ctx context.Context) (int, error)
}
