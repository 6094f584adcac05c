package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	preferencesdto "peerlink/internal/modules/preferences/dto"
	preferencesin "peerlink/internal/modules/preferences/port/in"
	"peerlink/internal/modules/profile/domain"
	profiledto "peerlink/internal/modules/profile/dto"
	profilein "peerlink/internal/modules/profile/port/in"
	"peerlink/internal/modules/profile/service"
	apperrors "peerlink/internal/platform/errors"
	"peerlink/internal/platform/id"
)

type Interactor struct {
	aggregator  *service.Aggregator
	cache       *service.CacheService
	preferences preferencesin.Usecase
	ids         id.Generator
	logger      *slog.Logger
	generation  atomic.Uint64

	mu     sync.Mutex
	latest map[string]uint64
}

func NewInteractor(
	aggregator *service.Aggregator,
	cache *service.CacheService,
	preferences preferencesin.Usecase,
	ids id.Generator,
	logger *slog.Logger,
) profilein.Usecase {
	if ids == nil {
		ids = id.UUID{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Interactor{
		aggregator:  aggregator,
		cache:       cache,
		preferences: preferences,
		ids:         ids,
		logger:      logger,
		latest:      make(map[string]uint64),
	}
}

func (i *Interactor) Latest() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.latest[""]
}

// begin issues the next generation and records it as caller's newest load.
func (i *Interactor) begin(caller string) uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	gen := i.generation.Add(1)
	i.latest[caller] = gen
	return gen
}

// current reports whether gen is still caller's newest load. Entries of
// named callers are forgotten once their newest load settles.
func (i *Interactor) current(caller string, gen uint64) (bool, uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	latest := i.latest[caller]
	if latest != gen {
		return false, latest
	}
	if caller != "" {
		delete(i.latest, caller)
	}
	return true, latest
}

func (i *Interactor) LoadProfile(ctx context.Context, input profiledto.LoadProfileInput) (profiledto.ProfileOutput, error) {
	gen := i.begin(input.Caller)
	requestID := i.ids.New()
	out := profiledto.ProfileOutput{State: profiledto.StateLoading, Generation: gen, RequestID: requestID, Caller: input.Caller}

	login, err := domain.NormalizeLogin(input.Login)
	if err != nil {
		out.State = profiledto.StateErrored
		out.Message = err.Error()
		return out, err
	}
	out.Login = login
	ctx = id.WithRequestID(ctx, requestID)
	logger := i.logger.With("request_id", requestID, "login", login, "generation", gen)

	offline := false
	if prefs, err := i.preferences.Get(ctx); err != nil {
		logger.Warn("read preferences", "error", err)
	} else {
		offline = prefs.OfflineMode
	}

	if offline {
		if profile, ok := i.cache.Fresh(ctx, login); ok {
			logger.Debug("profile served from cache", "loaded_at", profile.LoadedAt)
			out.Source = profiledto.SourceCache
			return i.settle(out, &profile, nil)
		}
	}

	assembly, err := i.aggregator.Assemble(ctx, login)
	if err != nil {
		logger.Info("profile load failed", "error", err)
		return i.fail(ctx, out, err)
	}
	if offline {
		if err := i.cache.Save(ctx, assembly.Profile); err != nil {
			logger.Warn("write profile cache", "error", err)
		}
	}
	out.Source = profiledto.SourceNetwork
	out.Reauthenticate = assembly.Reauthenticate
	for _, resource := range assembly.Missing {
		out.Missing = append(out.Missing, string(resource))
	}
	if assembly.Reauthenticate {
		out.Message = i.preferences.Message(ctx, preferencesdto.MessageUnauthorized)
	}
	logger.Info("profile loaded", "missing", len(assembly.Missing))
	return i.settle(out, &assembly.Profile, nil)
}

func (i *Interactor) PurgeCache(ctx context.Context, login string) (profiledto.CachePurgeOutput, error) {
	if login != "" {
		normalized, err := domain.NormalizeLogin(login)
		if err != nil {
			return profiledto.CachePurgeOutput{}, err
		}
		login = normalized
	}
	removed, err := i.cache.Purge(ctx, login)
	if err != nil {
		return profiledto.CachePurgeOutput{}, err
	}
	return profiledto.CachePurgeOutput{Removed: removed}, nil
}

// fail maps a failed core fetch onto a terminal state.
func (i *Interactor) fail(ctx context.Context, out profiledto.ProfileOutput, err error) (profiledto.ProfileOutput, error) {
	var apiErr *apperrors.APIError
	var netErr *apperrors.NetworkError
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrNoCredential):
		out.State = profiledto.StateUnauthorized
		out.Reauthenticate = true
		out.Message = i.preferences.Message(ctx, preferencesdto.MessageUnauthorized)
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		out.State = profiledto.StateNotFound
		out.Message = i.preferences.Message(ctx, preferencesdto.MessageNotFound)
		err = fmt.Errorf("%w: %w", apperrors.ErrNotFound, err)
	case errors.As(err, &netErr):
		out.State = profiledto.StateErrored
		out.Message = i.preferences.Message(ctx, preferencesdto.MessageNetwork)
	default:
		out.State = profiledto.StateErrored
		out.Message = i.preferences.Message(ctx, preferencesdto.MessageError) + ": " + err.Error()
	}
	return i.settle(out, nil, err)
}

// settle drops the result when a newer load started in the meantime.
func (i *Interactor) settle(out profiledto.ProfileOutput, profile *domain.ParticipantProfile, err error) (profiledto.ProfileOutput, error) {
	if ok, latest := i.current(out.Caller, out.Generation); !ok {
		i.logger.Debug("discarding superseded profile load", "login", out.Login, "generation", out.Generation, "latest", latest)
		return profiledto.ProfileOutput{State: profiledto.StateIdle, Generation: out.Generation, RequestID: out.RequestID, Login: out.Login, Caller: out.Caller}, apperrors.ErrSuperseded
	}
	if profile != nil {
		out.State = profiledto.StateReady
		out.Profile = profile
	}
	return out, err
}
