package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/redis/go-redis/v9"

	preferencesinadapter "peerlink/internal/modules/preferences/adapter/in"
	preferencesoutadapter "peerlink/internal/modules/preferences/adapter/out"
	preferencesin "peerlink/internal/modules/preferences/port/in"
	preferencesservice "peerlink/internal/modules/preferences/service"
	preferencesusecase "peerlink/internal/modules/preferences/usecase"
	profileinadapter "peerlink/internal/modules/profile/adapter/in"
	profileoutadapter "peerlink/internal/modules/profile/adapter/out"
	profilein "peerlink/internal/modules/profile/port/in"
	profileout "peerlink/internal/modules/profile/port/out"
	profileservice "peerlink/internal/modules/profile/service"
	profileusecase "peerlink/internal/modules/profile/usecase"
	sessioninadapter "peerlink/internal/modules/session/adapter/in"
	sessionoutadapter "peerlink/internal/modules/session/adapter/out"
	sessionin "peerlink/internal/modules/session/port/in"
	sessionservice "peerlink/internal/modules/session/service"
	sessionusecase "peerlink/internal/modules/session/usecase"
	"peerlink/internal/platform/clock"
	"peerlink/internal/platform/config"
	"peerlink/internal/platform/id"
	"peerlink/internal/platform/sqlitedb"
	"peerlink/internal/platform/transport"
	"peerlink/internal/server"
	uiapp "peerlink/internal/ui/app"
)

type App struct {
	SessionCLI     sessioninadapter.CLIHandler
	ProfileCLI     profileinadapter.CLIHandler
	PreferencesCLI preferencesinadapter.CLIHandler

	Session     sessionin.Usecase
	Profiles    profilein.Usecase
	Preferences preferencesin.Usecase

	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clk := clock.SystemClock{}

	authClient := transport.NewClient(transportOptions(cfg, clk, logger.With("component", "auth-transport")))
	apiClient := transport.NewClient(transportOptions(cfg, clk, logger.With("component", "api-transport")))

	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	app := &App{cfg: cfg, logger: logger, db: db}
	built := false
	defer func() {
		if !built {
			_ = app.Close()
		}
	}()

	preferencesStore, err := preferencesoutadapter.NewSQLitePreferencesStoreFromDB(db)
	if err != nil {
		return nil, fmt.Errorf("new preferences store: %w", err)
	}
	preferencesUC := preferencesusecase.NewInteractor(preferencesservice.NewPreferencesService(preferencesStore))

	tokenStore, err := sessionoutadapter.NewSQLiteTokenStoreFromDB(db)
	if err != nil {
		return nil, fmt.Errorf("new token store: %w", err)
	}
	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewSessionService(
			clk,
			tokenStore,
			sessionoutadapter.NewOAuthIdentityProvider(cfg.API.AuthURL, cfg.API.ClientID, authClient),
			sessionoutadapter.NewJWTInspector(),
			logger.With("module", "session"),
		),
		preferencesUC,
		sessionoutadapter.NewOIDCVerifier(cfg.API.IssuerURL, authClient),
	)

	cache, err := app.newProfileCache()
	if err != nil {
		return nil, err
	}
	profileLogger := logger.With("module", "profile")
	fetcher := profileoutadapter.NewAPIFetcher(cfg.API.BaseURL, apiClient, sessionUC, profileLogger)
	profileUC := profileusecase.NewInteractor(
		profileservice.NewAggregator(fetcher, sessionUC, clk, cfg.API.PlatformOrigin, cfg.API.EmailDomain, profileLogger),
		profileservice.NewCacheService(cache, clk, cfg.Cache.TTL, profileLogger),
		preferencesUC,
		id.UUID{},
		profileLogger,
	)

	app.Session = sessionUC
	app.Profiles = profileUC
	app.Preferences = preferencesUC
	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.ProfileCLI = profileinadapter.NewCLIHandler(profileUC)
	app.PreferencesCLI = preferencesinadapter.NewCLIHandler(preferencesUC)
	built = true
	return app, nil
}

// transportOptions builds the fallback chain shared by the identity and API
// clients. Relayed requests always carry a cache-busting timestamp.
func transportOptions(cfg config.Config, clk clock.Clock, logger *slog.Logger) transport.Options {
	relay := ""
	if cfg.Transport.RelayEnabled {
		relay = cfg.Transport.RelayURL
	}
	return transport.Options{
		AttemptTimeout:    cfg.Transport.AttemptTimeout,
		RelayURL:          relay,
		CacheBust:         true,
		RequestsPerSecond: cfg.Transport.RequestsPerSecond,
		Burst:             cfg.Transport.Burst,
		Clock:             clk,
		Logger:            logger,
	}
}

func (a *App) newProfileCache() (profileout.ProfileCache, error) {
	switch a.cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Cache.RedisAddr,
			Password: a.cfg.Cache.RedisPassword,
			DB:       a.cfg.Cache.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", a.cfg.Cache.RedisAddr, err)
		}
		a.redis = client
		a.logger.Debug("profile cache backend", "backend", "redis", "addr", a.cfg.Cache.RedisAddr)
		return profileoutadapter.NewRedisProfileCache(client, a.cfg.Cache.TTL), nil
	default:
		cache, err := profileoutadapter.NewSQLiteProfileCacheFromDB(a.db)
		if err != nil {
			return nil, fmt.Errorf("new profile cache: %w", err)
		}
		return cache, nil
	}
}

// Server builds the HTTP bridge over the same use cases the CLI uses.
func (a *App) Server() *server.Server {
	return server.New(a.Session, a.Profiles, a.Preferences, server.Options{
		CORSOrigins: a.cfg.Server.CORSOrigins,
		Logger:      a.logger.With("component", "http"),
	})
}

func (a *App) Config() config.Config {
	return a.cfg
}

// Close releases the shared database handle and the redis client.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
		a.redis = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		a.db = nil
	}
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.Session, app.Profiles, app.Preferences)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
