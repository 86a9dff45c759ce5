package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "strategieclub.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "MSC_PORT")
	setString(&cfg.Server.CORSOrigin, "MSC_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "MSC_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "MSC_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "MSC_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "MSC_PG_MAX_CONN_IDLE_TIME")
	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.Backends.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.Backends.Anthropic.BaseURL, "MSC_ANTHROPIC_BASE_URL")
	setDuration(&cfg.Backends.Anthropic.Timeout, "MSC_ANTHROPIC_TIMEOUT")
	setString(&cfg.Backends.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.Backends.OpenAI.BaseURL, "MSC_OPENAI_BASE_URL")
	setDuration(&cfg.Backends.OpenAI.Timeout, "MSC_OPENAI_TIMEOUT")
	setString(&cfg.Backends.Perplexity.APIKey, "PERPLEXITY_API_KEY")
	setString(&cfg.Backends.Perplexity.BaseURL, "MSC_PERPLEXITY_BASE_URL")
	setDuration(&cfg.Backends.Perplexity.Timeout, "MSC_PERPLEXITY_TIMEOUT")

	setInt(&cfg.Debate.Rounds, "MSC_ROUNDS")
	setInt(&cfg.Debate.MinRounds, "MSC_MIN_ROUNDS")
	setBool(&cfg.Debate.AutoStop, "MSC_AUTO_STOP")
	setInt(&cfg.Debate.ConvergenceThreshold, "MSC_CONVERGENCE_THRESHOLD")
	setInt64(&cfg.Debate.MaxConcurrent, "MSC_MAX_CONCURRENT")
	setInt(&cfg.Debate.CompressMaxChars, "MSC_COMPRESS_MAX_CHARS")
	setInt(&cfg.Debate.MaxTokens, "MSC_MAX_TOKENS")
	setInt(&cfg.Debate.Retries, "MSC_RETRIES")
	setString(&cfg.Debate.Models.Claude, "MSC_CLAUDE_MODEL")
	setString(&cfg.Debate.Models.Perplexity, "MSC_PERPLEXITY_MODEL")
	setString(&cfg.Debate.Models.ChatGPT, "MSC_OPENAI_MODEL")
	setString(&cfg.Debate.Models.Judge, "MSC_JUDGE_MODEL")
	setString(&cfg.Debate.Models.Synthesis, "MSC_SYNTHESIS_MODEL")

	setString(&cfg.Logging.Level, "MSC_LOG_LEVEL")
	setString(&cfg.Logging.Service, "MSC_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "MSC_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "MSC_BREAKER_TIMEOUT")
	setInt64(&cfg.Cache.MaxSizeMB, "MSC_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.ResultTTL, "MSC_CACHE_RESULT_TTL")

	setString(&cfg.Otel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Otel.Endpoint, "MSC_OTEL_ENDPOINT")

	setString(&cfg.APIToken, "MSC_API_TOKEN")
}

// validate checks that required fields are set and bounded.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Debate.Rounds < 1 || cfg.Debate.Rounds > 6 {
		return errors.New("debate.rounds must be between 1 and 6")
	}
	if cfg.Debate.MinRounds < 1 {
		return errors.New("debate.min_rounds must be >= 1")
	}
	if cfg.Debate.ConvergenceThreshold < 0 || cfg.Debate.ConvergenceThreshold > 100 {
		return errors.New("debate.convergence_threshold must be between 0 and 100")
	}
	if cfg.Debate.MaxConcurrent < 1 {
		return errors.New("debate.max_concurrent must be >= 1")
	}
	if cfg.Debate.Retries < 1 {
		return errors.New("debate.retries must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Postgres.DSN != "" && cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
