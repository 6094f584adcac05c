package out

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"

	"peerlink/internal/modules/session/domain"
	sessionout "peerlink/internal/modules/session/port/out"
)

// OIDCVerifier checks a stored access token against the realm's published
// keys. Discovery happens on first use.
type OIDCVerifier struct {
	issuer string
	client *http.Client

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(issuer string, client *http.Client) sessionout.TokenVerifier {
	return &OIDCVerifier{issuer: issuer, client: client}
}

func (v *OIDCVerifier) Verify(ctx context.Context, token domain.Token) (domain.Claims, error) {
	if v.client != nil {
		ctx = oidc.ClientContext(ctx, v.client)
	}
	verifier, err := v.load(ctx)
	if err != nil {
		return domain.Claims{}, err
	}
	idToken, err := verifier.Verify(ctx, token.String())
	if err != nil {
		return domain.Claims{}, fmt.Errorf("verify token: %w", err)
	}
	var extra struct {
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&extra); err != nil {
		return domain.Claims{}, fmt.Errorf("decode token claims: %w", err)
	}
	return domain.Claims{
		Subject:   idToken.Subject,
		Username:  extra.PreferredUsername,
		IssuedAt:  idToken.IssuedAt.UTC(),
		ExpiresAt: idToken.Expiry.UTC(),
	}, nil
}

func (v *OIDCVerifier) load(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.verifier != nil {
		return v.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, v.issuer)
	if err != nil {
		return nil, fmt.Errorf("discover issuer %s: %w", v.issuer, err)
	}
	// Access tokens carry the "account" audience, not our client id.
	v.verifier = provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
	return v.verifier, nil
}
