package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/2beens/formcheck/internal/formcheck"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`
	// PostgresPassword comes from the environment, never from the file
	PostgresPassword string `toml:"-"`
	MigrationsPath   string `toml:"migrations_path"`
	// sessions
	SessionStartRateLimitPerMin int           `toml:"session_start_rate_limit_per_min"`
	SessionIdleTimeout          time.Duration `toml:"session_idle_timeout"`
	SessionReaperSpec           string        `toml:"session_reaper_spec"`
	TokenTTL                    time.Duration `toml:"token_ttl"`
	SummaryCacheSizeMB          int           `toml:"summary_cache_size_mb"`
	SummaryCacheTTL             time.Duration `toml:"summary_cache_ttl"`
	AllowedOrigins              []string      `toml:"allowed_origins"`
	// coaching collaborator
	CoachEnabled bool          `toml:"coach_enabled"`
	CoachURL     string        `toml:"coach_url"`
	CoachTimeout time.Duration `toml:"coach_timeout"`

	Engine formcheck.Config `toml:"engine"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file and returns the section for env, with defaults applied.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse is Load for an in-memory TOML document.
func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9100
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.SessionStartRateLimitPerMin <= 0 {
		c.SessionStartRateLimitPerMin = 30
	}
	if c.SessionIdleTimeout <= 0 {
		c.SessionIdleTimeout = 10 * time.Minute
	}
	if c.SessionReaperSpec == "" {
		c.SessionReaperSpec = "@every 1m"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 2 * time.Hour
	}
	if c.SummaryCacheSizeMB <= 0 {
		c.SummaryCacheSizeMB = 10
	}
	if c.SummaryCacheTTL <= 0 {
		c.SummaryCacheTTL = time.Hour
	}
	if c.CoachTimeout <= 0 {
		c.CoachTimeout = 10 * time.Second
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
}

func (c *Config) validate() error {
	if c.CoachEnabled && c.CoachURL == "" {
		return fmt.Errorf("coach enabled but coach_url not set")
	}
	if c.Engine.MinVisibleFraction > 1 {
		return fmt.Errorf("engine.min_visible_fraction must be <= 1, got %v", c.Engine.MinVisibleFraction)
	}
	if c.Engine.VisibilityThreshold >= 1 {
		return fmt.Errorf("engine.visibility_threshold must be < 1, got %v", c.Engine.VisibilityThreshold)
	}
	return nil
}

// PostgresDSN builds the connection string shared by the pgx pool and the migrations runner.
func (c *Config) PostgresDSN() string {
	user := url.User(c.PostgresUser)
	if c.PostgresPassword != "" {
		user = url.UserPassword(c.PostgresUser, c.PostgresPassword)
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(c.PostgresHost, c.PostgresPort),
		Path:     "/" + c.PostgresDBName,
		RawQuery: "sslmode=disable",
	}
	return dsn.String()
}
