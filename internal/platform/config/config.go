package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL        = "https://platform.21-school.ru/services/21-school/api/v1"
	DefaultAuthURL        = "https://auth.21-school.ru/auth/realms/EduPowerKeycloak/protocol/openid-connect/token"
	DefaultIssuerURL      = "https://auth.21-school.ru/auth/realms/EduPowerKeycloak"
	DefaultClientID       = "s21-open-api"
	DefaultPlatformOrigin = "https://platform.21-school.ru"
	DefaultEmailDomain    = "student.21-school.ru"
	DefaultRelayURL       = "https://corsproxy.io/?"
)

type Config struct {
	StateDir  string          `yaml:"-"`
	DBPath    string          `yaml:"-"`
	API       APIConfig       `yaml:"api"`
	Transport TransportConfig `yaml:"transport"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	AuthURL        string `yaml:"auth_url"`
	IssuerURL      string `yaml:"issuer_url"`
	ClientID       string `yaml:"client_id"`
	PlatformOrigin string `yaml:"platform_origin"`
	EmailDomain    string `yaml:"email_domain"`
}

type TransportConfig struct {
	RelayURL          string        `yaml:"relay_url"`
	RelayEnabled      bool          `yaml:"relay_enabled"`
	AttemptTimeout    time.Duration `yaml:"attempt_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultStateDir is where the token, preferences and cache live when no
// --state-dir is given.
func DefaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "peerlink")
	}
	return ".peerlink"
}

// New layers defaults, <stateDir>/config.yaml, .env and PEERLINK_* variables,
// in that order.
func New(stateDir string) (Config, error) {
	if stateDir == "" {
		return Config{}, fmt.Errorf("state dir is required")
	}
	cfg := defaults()
	cfg.StateDir = stateDir
	cfg.DBPath = filepath.Join(stateDir, "peerlink.db")

	if err := cfg.loadFile(filepath.Join(stateDir, "config.yaml")); err != nil {
		return Config{}, err
	}
	// A missing .env is the common case.
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			AuthURL:        DefaultAuthURL,
			IssuerURL:      DefaultIssuerURL,
			ClientID:       DefaultClientID,
			PlatformOrigin: DefaultPlatformOrigin,
			EmailDomain:    DefaultEmailDomain,
		},
		Transport: TransportConfig{
			RelayURL:          DefaultRelayURL,
			RelayEnabled:      true,
			AttemptTimeout:    5 * time.Second,
			RequestsPerSecond: 20,
			Burst:             10,
		},
		Cache: CacheConfig{
			Backend:   "sqlite",
			TTL:       24 * time.Hour,
			RedisAddr: "localhost:6379",
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8421",
			CORSOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Log: LogConfig{Level: "info", Format: "pretty"},
	}
}

func (c *Config) loadFile(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(payload, c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.API.BaseURL = getEnv("PEERLINK_API_BASE_URL", c.API.BaseURL)
	c.API.AuthURL = getEnv("PEERLINK_AUTH_URL", c.API.AuthURL)
	c.API.IssuerURL = getEnv("PEERLINK_ISSUER_URL", c.API.IssuerURL)
	c.API.ClientID = getEnv("PEERLINK_CLIENT_ID", c.API.ClientID)
	c.API.PlatformOrigin = getEnv("PEERLINK_PLATFORM_ORIGIN", c.API.PlatformOrigin)
	c.API.EmailDomain = getEnv("PEERLINK_EMAIL_DOMAIN", c.API.EmailDomain)

	c.Transport.RelayURL = getEnv("PEERLINK_RELAY_URL", c.Transport.RelayURL)
	c.Cache.Backend = getEnv("PEERLINK_CACHE_BACKEND", c.Cache.Backend)
	c.Cache.RedisAddr = getEnv("PEERLINK_REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnv("PEERLINK_REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Server.Addr = getEnv("PEERLINK_SERVER_ADDR", c.Server.Addr)
	if origins := os.Getenv("PEERLINK_CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}
	c.Log.Level = getEnv("PEERLINK_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("PEERLINK_LOG_FORMAT", c.Log.Format)

	var err error
	if c.Transport.RelayEnabled, err = getEnvAsBool("PEERLINK_RELAY_ENABLED", c.Transport.RelayEnabled); err != nil {
		return err
	}
	if c.Transport.AttemptTimeout, err = getEnvAsDuration("PEERLINK_ATTEMPT_TIMEOUT", c.Transport.AttemptTimeout); err != nil {
		return err
	}
	if c.Transport.RequestsPerSecond, err = getEnvAsFloat("PEERLINK_REQUESTS_PER_SECOND", c.Transport.RequestsPerSecond); err != nil {
		return err
	}
	if c.Cache.TTL, err = getEnvAsDuration("PEERLINK_CACHE_TTL", c.Cache.TTL); err != nil {
		return err
	}
	if c.Cache.RedisDB, err = getEnvAsInt("PEERLINK_REDIS_DB", c.Cache.RedisDB); err != nil {
		return err
	}
	return nil
}

// Validate rejects configurations the clients cannot run with.
func (c Config) Validate() error {
	if c.API.BaseURL == "" || c.API.AuthURL == "" {
		return fmt.Errorf("api base_url and auth_url are required")
	}
	if c.API.ClientID == "" {
		return fmt.Errorf("api client_id is required")
	}
	if c.Transport.RelayEnabled && c.Transport.RelayURL == "" {
		return fmt.Errorf("transport relay_url is required when the relay is enabled")
	}
	if c.Transport.AttemptTimeout <= 0 {
		return fmt.Errorf("transport attempt_timeout must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	switch c.Cache.Backend {
	case "sqlite":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
