package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	preferencesadapter "peerlink/internal/modules/preferences/adapter/out"
	preferencesin "peerlink/internal/modules/preferences/port/in"
	preferencesservice "peerlink/internal/modules/preferences/service"
	preferencesusecase "peerlink/internal/modules/preferences/usecase"
	profileadapter "peerlink/internal/modules/profile/adapter/out"
	"peerlink/internal/modules/profile/domain"
	profiledto "peerlink/internal/modules/profile/dto"
	profilein "peerlink/internal/modules/profile/port/in"
	profileout "peerlink/internal/modules/profile/port/out"
	"peerlink/internal/modules/profile/service"
	"peerlink/internal/modules/profile/usecase"
	apperrors "peerlink/internal/platform/errors"
	"peerlink/internal/platform/transport"
)

type fakeCredentials struct {
	mu    sync.Mutex
	token string
}

func (f *fakeCredentials) AccessToken(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == "" {
		return "", apperrors.ErrNoCredential
	}
	return f.token, nil
}

func (f *fakeCredentials) Invalidate(_ context.Context, rejected string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == rejected {
		f.token = ""
	}
	return nil
}

func (f *fakeCredentials) held() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token != ""
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type route struct {
	status int
	body   string
	delay  time.Duration
}

func platformServer(t *testing.T, hits *atomic.Int32, routes map[string]route) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		rt, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if rt.delay > 0 {
			select {
			case <-time.After(rt.delay):
			case <-r.Context().Done():
				return
			}
		}
		if rt.status != 0 {
			w.WriteHeader(rt.status)
		}
		_, _ = w.Write([]byte(rt.body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	usecase     profilein.Usecase
	preferences preferencesin.Usecase
	cache       profileout.ProfileCache
	credentials *fakeCredentials
	clock       *testClock
}

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, fetcher func(profileout.CredentialSource) profileout.ResourceFetcher) *harness {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "peerlink.db")
	store, err := preferencesadapter.NewSQLitePreferencesStore(dbPath)
	require.NoError(t, err)
	prefs := preferencesusecase.NewInteractor(preferencesservice.NewPreferencesService(store))
	cache, err := profileadapter.NewSQLiteProfileCache(dbPath)
	require.NoError(t, err)

	h := &harness{
		preferences: prefs,
		cache:       cache,
		credentials: &fakeCredentials{token: "tok"},
		clock:       &testClock{now: t0},
	}
	aggregator := service.NewAggregator(fetcher(h.credentials), h.credentials, h.clock, "https://platform.21-school.ru", "student.21-school.ru", nil)
	h.usecase = usecase.NewInteractor(aggregator, service.NewCacheService(cache, h.clock, 24*time.Hour, nil), prefs, nil, nil)
	return h
}

func httpFetcher(srv *httptest.Server) func(profileout.CredentialSource) profileout.ResourceFetcher {
	client := transport.NewClient(transport.Options{AttemptTimeout: 300 * time.Millisecond})
	return func(creds profileout.CredentialSource) profileout.ResourceFetcher {
		return profileadapter.NewAPIFetcher(srv.URL, client, creds, nil)
	}
}

func load(t *testing.T, h *harness, login string) (profiledto.ProfileOutput, error) {
	t.Helper()
	return h.usecase.LoadProfile(context.Background(), profiledto.LoadProfileInput{Login: login})
}

func TestScenarioRrangesiWithProjectsTimeout(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := platformServer(t, &hits, map[string]route{
		"/participants/rrangesi":          {body: `{"login":"rrangesi","level":12,"expValue":5000,"expToNextLevel":1500}`},
		"/participants/rrangesi/skills":   {body: `{"skills":[{"name":"C","points":80}]}`},
		"/participants/rrangesi/projects": {body: `{"projects":[{"title":"late"}]}`, delay: 2 * time.Second},
	})
	h := newHarness(t, httpFetcher(srv))

	out, err := load(t, h, "RRangesi")
	require.NoError(t, err)
	require.Equal(t, profiledto.StateReady, out.State)
	require.Equal(t, profiledto.SourceNetwork, out.Source)
	require.NotNil(t, out.Profile)
	require.EqualValues(t, 12, out.Profile.Level)
	require.Equal(t, []domain.Skill{{ID: 0, Name: "C", Level: 80}}, out.Profile.Skills)
	require.NotNil(t, out.Profile.Projects)
	require.Empty(t, out.Profile.Projects)
	require.Contains(t, out.Missing, "projects")
	require.NotContains(t, out.Missing, "skills")
	require.False(t, out.Reauthenticate)
	require.Equal(t, int32(10), hits.Load())
	require.NotEmpty(t, out.RequestID)
}

func TestMandatoryUnauthorizedClearsTokenWhateverOptionalsDo(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	routes := map[string]route{"/participants/alice": {status: http.StatusUnauthorized}}
	for _, r := range domain.OptionalResources {
		routes["/participants/alice/"+string(r)] = route{body: `[]`}
	}
	h := newHarness(t, httpFetcher(platformServer(t, &hits, routes)))

	out, err := load(t, h, "alice")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.Equal(t, profiledto.StateUnauthorized, out.State)
	require.True(t, out.Reauthenticate)
	require.Nil(t, out.Profile)
	require.False(t, h.credentials.held())
	require.Equal(t, "Session expired. Please log in again.", out.Message)
}

func TestNoTokenIsUnauthorizedWithoutNetwork(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	h := newHarness(t, httpFetcher(platformServer(t, &hits, nil)))
	require.NoError(t, h.credentials.Invalidate(context.Background(), "tok"))

	out, err := load(t, h, "alice")
	require.ErrorIs(t, err, apperrors.ErrNoCredential)
	require.Equal(t, profiledto.StateUnauthorized, out.State)
	require.Zero(t, hits.Load())
}

func TestNotFoundIsLocalized(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	h := newHarness(t, httpFetcher(platformServer(t, &hits, nil)))
	require.NoError(t, h.preferences.SetLanguage(context.Background(), "RU"))

	out, err := load(t, h, "ghost")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.Equal(t, profiledto.StateNotFound, out.State)
	require.Equal(t, "Участник не найден", out.Message)
}

func TestOtherCoreFailuresAreErrored(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	h := newHarness(t, httpFetcher(platformServer(t, &hits, map[string]route{
		"/participants/alice": {status: http.StatusInternalServerError},
		"/participants/bob":   {body: `["not","an","object"]`},
	})))

	out, err := load(t, h, "alice")
	var apiErr *apperrors.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, profiledto.StateErrored, out.State)
	require.True(t, strings.HasPrefix(out.Message, "Error: "))

	out, err = load(t, h, "bob")
	var protoErr *apperrors.ProtocolError
	require.True(t, errors.As(err, &protoErr))
	require.Equal(t, profiledto.StateErrored, out.State)
}

func TestOptionalUnauthorizedKeepsProfileAndFlagsReauthentication(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	h := newHarness(t, httpFetcher(platformServer(t, &hits, map[string]route{
		"/participants/alice":          {body: `{"login":"alice"}`},
		"/participants/alice/feedback": {status: http.StatusUnauthorized, delay: 100 * time.Millisecond},
		"/participants/alice/skills":   {body: `{"skills":{"broken":true}}`},
		"/participants/alice/badges":   {body: `{"badges":[`},
	})))

	out, err := load(t, h, "alice")
	require.NoError(t, err)
	require.Equal(t, profiledto.StateReady, out.State)
	require.Nil(t, out.Profile.Feedback)
	require.Empty(t, out.Profile.Badges)
	require.Empty(t, out.Profile.Skills)
	require.True(t, out.Reauthenticate)
	require.False(t, h.credentials.held())
}

func TestOfflineCacheWindow(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	h := newHarness(t, httpFetcher(platformServer(t, &hits, map[string]route{
		"/participants/alice": {body: `{"login":"alice","level":4}`},
	})))
	ctx := context.Background()
	require.NoError(t, h.preferences.SetOfflineMode(ctx, true))

	out, err := load(t, h, "alice")
	require.NoError(t, err)
	require.Equal(t, profiledto.SourceNetwork, out.Source)
	networkHits := hits.Load()
	require.NotZero(t, networkHits)

	h.clock.Set(t0.Add(23*time.Hour + 59*time.Minute))
	out, err = load(t, h, "alice")
	require.NoError(t, err)
	require.Equal(t, profiledto.SourceCache, out.Source)
	require.Equal(t, profiledto.StateReady, out.State)
	require.EqualValues(t, 4, out.Profile.Level)
	require.Equal(t, t0, out.Profile.LoadedAt)
	require.Equal(t, networkHits, hits.Load())

	h.clock.Set(t0.Add(24*time.Hour + time.Millisecond))
	out, err = load(t, h, "alice")
	require.NoError(t, err)
	require.Equal(t, profiledto.SourceNetwork, out.Source)
	require.Greater(t, hits.Load(), networkHits)
}

func TestCacheIgnoredAndNotWrittenWhenOnline(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	h := newHarness(t, httpFetcher(platformServer(t, &hits, map[string]route{
		"/participants/alice": {body: `{"login":"alice"}`},
	})))
	ctx := context.Background()
	require.NoError(t, h.cache.Store(ctx, "alice", []byte(`{"login":"alice","level":99,"loadedAt":"2026-05-01T12:00:00Z"}`), t0))

	out, err := load(t, h, "alice")
	require.NoError(t, err)
	require.Equal(t, profiledto.SourceNetwork, out.Source)
	require.Zero(t, out.Profile.Level)

	blob, err := h.cache.Load(ctx, "alice")
	require.NoError(t, err)
	require.Contains(t, string(blob), `"level":99`)
}

func TestCorruptCacheEntryIsDeleted(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	h := newHarness(t, httpFetcher(platformServer(t, &hits, map[string]route{
		"/participants/alice": {body: `{"login":"alice"}`},
	})))
	ctx := context.Background()
	require.NoError(t, h.preferences.SetOfflineMode(ctx, true))
	require.NoError(t, h.cache.Store(ctx, "alice", []byte(`{not json`), t0))

	out, err := load(t, h, "alice")
	require.NoError(t, err)
	require.Equal(t, profiledto.SourceNetwork, out.Source)

	blob, err := h.cache.Load(ctx, "alice")
	require.NoError(t, err)
	require.Contains(t, string(blob), `"login":"alice"`)
}

func TestPurgeCache(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	h := newHarness(t, httpFetcher(platformServer(t, &hits, nil)))
	ctx := context.Background()
	require.NoError(t, h.cache.Store(ctx, "alice", []byte(`{}`), t0))
	require.NoError(t, h.cache.Store(ctx, "bob", []byte(`{}`), t0))

	out, err := h.usecase.PurgeCache(ctx, " Alice ")
	require.NoError(t, err)
	require.Equal(t, 1, out.Removed)

	out, err = h.usecase.PurgeCache(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 1, out.Removed)
}

func TestInvalidLogin(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	h := newHarness(t, httpFetcher(platformServer(t, &hits, nil)))
	out, err := load(t, h, "   ")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	require.Equal(t, profiledto.StateErrored, out.State)
	require.Zero(t, hits.Load())
}

// gatedFetcher holds the core fetch of one login until released.
type gatedFetcher struct {
	gated   string
	started chan struct{}
	release chan struct{}
}

func (f *gatedFetcher) FetchAuthorized(_ context.Context, endpoint string) (domain.Payload, error) {
	login := strings.TrimPrefix(endpoint, "/participants/")
	if strings.Contains(login, "/") {
		return domain.Absent(), nil
	}
	if login == f.gated {
		close(f.started)
		<-f.release
	}
	return domain.NewPayload(map[string]any{"login": login}), nil
}

func (f *gatedFetcher) FetchOptional(ctx context.Context, endpoint string) domain.Payload {
	p, _ := f.FetchAuthorized(ctx, endpoint)
	return p
}

func TestOnlyTheLatestLoadBecomesVisible(t *testing.T) {
	t.Parallel()
	gate := &gatedFetcher{gated: "alice", started: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, func(profileout.CredentialSource) profileout.ResourceFetcher { return gate })

	type result struct {
		out profiledto.ProfileOutput
		err error
	}
	aliceDone := make(chan result, 1)
	go func() {
		out, err := load(t, h, "alice")
		aliceDone <- result{out, err}
	}()
	<-gate.started

	bob, err := load(t, h, "bob")
	require.NoError(t, err)
	require.Equal(t, profiledto.StateReady, bob.State)
	require.Equal(t, "bob", bob.Profile.Login)

	close(gate.release)
	alice := <-aliceDone
	require.ErrorIs(t, alice.err, apperrors.ErrSuperseded)
	require.Equal(t, profiledto.StateIdle, alice.out.State)
	require.Nil(t, alice.out.Profile)
	require.Less(t, alice.out.Generation, bob.Generation)
	require.Equal(t, bob.Generation, h.usecase.Latest())
}

func TestLoadsOfDifferentCallersDoNotSupersedeEachOther(t *testing.T) {
	t.Parallel()
	gate := &gatedFetcher{gated: "alice", started: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, func(profileout.CredentialSource) profileout.ResourceFetcher { return gate })
	ctx := context.Background()

	type result struct {
		out profiledto.ProfileOutput
		err error
	}
	aliceDone := make(chan result, 1)
	go func() {
		out, err := h.usecase.LoadProfile(ctx, profiledto.LoadProfileInput{Login: "alice", Caller: "client:a"})
		aliceDone <- result{out, err}
	}()
	<-gate.started

	bob, err := h.usecase.LoadProfile(ctx, profiledto.LoadProfileInput{Login: "bob", Caller: "client:b"})
	require.NoError(t, err)
	require.Equal(t, profiledto.StateReady, bob.State)

	close(gate.release)
	alice := <-aliceDone
	require.NoError(t, alice.err)
	require.Equal(t, profiledto.StateReady, alice.out.State)
	require.Equal(t, "alice", alice.out.Profile.Login)
	require.Zero(t, h.usecase.Latest())
}
