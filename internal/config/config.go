package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Host        string
	Port        int
	Environment string
	// logging
	LogLevel    string `toml:"log_level"`
	LogsPath    string `toml:"logs_path"`
	LogToStdout bool   `toml:"log_to_stdout"`
	// sentry
	SentryEnabled bool `toml:"sentry_enabled"`
	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort int    `toml:"prometheus_metrics_port"`
	// redis, used for admin sessions and rate limiting
	RedisHost string `toml:"redis_host"`
	RedisPort int    `toml:"redis_port"`
	// root dir for the on-disk wellness state store
	DataDirPath string `toml:"data_dir_path"`
	// ai gateway
	AIBaseURL              string `toml:"ai_base_url"`
	AIModel                string `toml:"ai_model"`
	AITimeoutSeconds       int    `toml:"ai_timeout_seconds"`
	AIStreamTimeoutSeconds int    `toml:"ai_stream_timeout_seconds"`
	// auth
	AuthEnabled            bool `toml:"auth_enabled"`
	LoginRateLimitAllowed  int  `toml:"login_rate_limit_allowed"`
	LoginSessionTTLMinutes int  `toml:"login_session_ttl_minutes"`

	Secrets Secrets `toml:"-"`
}

// Secrets are never read from the TOML file, only from the environment.
type Secrets struct {
	GeminiAPIKey      string `env:"GEMINI_API_KEY"`
	SentryDSN         string `env:"SENTRY_DSN"`
	RedisPassword     string `env:"BALANCE_REDIS_PASS"`
	AdminUsername     string `env:"BALANCE_ADMIN_USERNAME"`
	AdminPasswordHash string `env:"BALANCE_ADMIN_PASSWORD_HASH"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlCfg Toml
	if _, err := toml.DecodeFile(path, &tomlCfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlCfg.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s not found in %s", env, path)
	}

	cfg.Environment = env

	if err := envconfig.Process(context.Background(), &cfg.Secrets); err != nil {
		return nil, fmt.Errorf("process env secrets: %w", err)
	}

	return cfg, nil
}
