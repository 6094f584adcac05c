package out

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"peerlink/internal/modules/session/domain"
	sessionout "peerlink/internal/modules/session/port/out"
	apperrors "peerlink/internal/platform/errors"
)

// OAuthIdentityProvider runs the resource-owner password grant against the
// Keycloak token endpoint.
type OAuthIdentityProvider struct {
	config oauth2.Config
	client *http.Client
}

func NewOAuthIdentityProvider(tokenURL, clientID string, client *http.Client) sessionout.IdentityProvider {
	return &OAuthIdentityProvider{
		config: oauth2.Config{
			ClientID: clientID,
			Endpoint: oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
			Scopes:   []string{"openid"},
		},
		client: client,
	}
}

func (p *OAuthIdentityProvider) PasswordGrant(ctx context.Context, creds domain.Credentials) (domain.Token, error) {
	if p.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	}
	tok, err := p.config.PasswordCredentialsToken(ctx, creds.Username, creds.Password)
	if err != nil {
		return "", p.mapError(err)
	}
	return domain.Token(tok.AccessToken), nil
}

func (p *OAuthIdentityProvider) mapError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		status := retrieveErr.Response.StatusCode
		return &apperrors.AuthError{Status: status, Message: domain.RejectionMessage(status, retrieveErr.Body)}
	}
	var netErr *apperrors.NetworkError
	if errors.As(err, &netErr) {
		return netErr
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &apperrors.NetworkError{Target: p.config.Endpoint.TokenURL, Attempts: []error{urlErr.Err}}
	}
	return &apperrors.ProtocolError{Target: p.config.Endpoint.TokenURL, Reason: "no token in response", Err: err}
}
