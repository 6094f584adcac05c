package out

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"peerlink/internal/modules/profile/domain"
	profileout "peerlink/internal/modules/profile/port/out"
	apperrors "peerlink/internal/platform/errors"
	"peerlink/internal/platform/id"
)

const maxBodyBytes = 8 << 20

// APIFetcher reads participant resources with the session's bearer token.
// Transport fallback happens inside the http.Client.
type APIFetcher struct {
	baseURL     string
	client      *http.Client
	credentials profileout.CredentialSource
	logger      *slog.Logger
}

func NewAPIFetcher(baseURL string, client *http.Client, credentials profileout.CredentialSource, logger *slog.Logger) profileout.ResourceFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &APIFetcher{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      client,
		credentials: credentials,
		logger:      logger,
	}
}

func (f *APIFetcher) FetchAuthorized(ctx context.Context, endpoint string) (domain.Payload, error) {
	token, err := f.credentials.AccessToken(ctx)
	if err != nil {
		return domain.Payload{}, err
	}
	target := f.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if requestID := id.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.Payload{}, networkError(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if err := f.credentials.Invalidate(ctx, token); err != nil {
			f.logger.Warn("clear rejected token", "error", err)
		}
		return domain.Payload{}, fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return domain.Payload{}, &apperrors.APIError{Status: resp.StatusCode, Endpoint: endpoint}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Payload{}, &apperrors.ProtocolError{Target: endpoint, Reason: "read body", Err: err}
	}
	payload, err := domain.ParsePayload(raw)
	if err != nil {
		return domain.Payload{}, &apperrors.ProtocolError{Target: endpoint, Reason: "undecodable body", Err: err}
	}
	return payload, nil
}

func (f *APIFetcher) FetchOptional(ctx context.Context, endpoint string) domain.Payload {
	payload, err := f.FetchAuthorized(ctx, endpoint)
	if err != nil {
		f.logger.Debug("optional resource unavailable", "endpoint", endpoint, "error", err)
		return domain.Absent()
	}
	return payload
}

func networkError(endpoint string, err error) error {
	var netErr *apperrors.NetworkError
	if errors.As(err, &netErr) {
		return netErr
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return &apperrors.NetworkError{Target: endpoint, Attempts: []error{err}}
}
