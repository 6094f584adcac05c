package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"peerlink/internal/modules/profile/domain"
	profileout "peerlink/internal/modules/profile/port/out"
	"peerlink/internal/platform/clock"
	apperrors "peerlink/internal/platform/errors"
)

type Assembly struct {
	Profile        domain.ParticipantProfile
	Missing        []domain.Resource
	Reauthenticate bool
}

// Aggregator fetches the core record and every optional resource at once
// and joins them into one profile.
type Aggregator struct {
	fetcher     profileout.ResourceFetcher
	credentials profileout.CredentialSource
	clock       clock.Clock
	origin      string
	emailDomain string
	logger      *slog.Logger
}

func NewAggregator(
	fetcher profileout.ResourceFetcher,
	credentials profileout.CredentialSource,
	clk clock.Clock,
	origin string,
	emailDomain string,
	logger *slog.Logger,
) *Aggregator {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		fetcher:     fetcher,
		credentials: credentials,
		clock:       clk,
		origin:      origin,
		emailDomain: emailDomain,
		logger:      logger,
	}
}

// Assemble waits for all ten fetches before looking at any result. Only the
// core fetch can fail the assembly; optional failures leave their resource
// absent.
func (a *Aggregator) Assemble(ctx context.Context, login string) (Assembly, error) {
	var (
		group    errgroup.Group
		core     domain.Payload
		optional = make([]domain.Payload, len(domain.OptionalResources))
	)
	group.Go(func() error {
		p, err := a.fetcher.FetchAuthorized(ctx, domain.CoreEndpoint(login))
		if err != nil {
			return err
		}
		core = p
		return nil
	})
	for i, resource := range domain.OptionalResources {
		i, resource := i, resource
		group.Go(func() error {
			optional[i] = a.fetcher.FetchOptional(ctx, domain.ResourceEndpoint(login, resource))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Assembly{}, err
	}

	res := domain.Resources{Core: core, Optional: make(map[domain.Resource]domain.Payload, len(optional))}
	var missing []domain.Resource
	for i, resource := range domain.OptionalResources {
		res.Optional[resource] = optional[i]
		if !optional[i].Present() {
			missing = append(missing, resource)
		}
	}

	normalizer := domain.Normalizer{Origin: a.origin, EmailDomain: a.emailDomain, FetchedAt: a.clock.Now()}
	profile, err := normalizer.Assemble(login, res)
	if err != nil {
		return Assembly{}, err
	}
	if len(missing) > 0 {
		a.logger.Debug("profile assembled with absent resources", "login", login, "missing", missing)
	}
	return Assembly{Profile: profile, Missing: missing, Reauthenticate: a.tokenRevoked(ctx)}, nil
}

// tokenRevoked reports whether an optional fetch hit a 401 and cleared the
// token while the core fetch still succeeded.
func (a *Aggregator) tokenRevoked(ctx context.Context) bool {
	if a.credentials == nil {
		return false
	}
	_, err := a.credentials.AccessToken(ctx)
	return errors.Is(err, apperrors.ErrNoCredential)
}
