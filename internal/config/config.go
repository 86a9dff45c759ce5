// Package config provides hierarchical configuration loading for the
// Strategieclub debate service. Precedence: defaults < YAML file <
// environment variables.
package config

import "time"

// Config holds all runtime configuration for the debate service.
type Config struct {
	Server   Server   `yaml:"server"`
	Postgres Postgres `yaml:"postgres"`
	NATS     NATS     `yaml:"nats"`
	Backends Backends `yaml:"backends"`
	Debate   Debate   `yaml:"debate"`
	Logging  Logging  `yaml:"logging"`
	Breaker  Breaker  `yaml:"breaker"`
	Cache    Cache    `yaml:"cache"`
	Otel     Otel     `yaml:"otel"`

	// APIToken guards the HTTP API when set. Env only, never YAML.
	APIToken string `yaml:"-"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Postgres holds PostgreSQL connection configuration. An empty DSN switches
// the service to the in-memory job store.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// NATS holds NATS JetStream configuration. An empty URL disables event
// publishing.
type NATS struct {
	URL string `yaml:"url"`
}

// Backend holds connection settings for one LLM provider. API keys come from
// the environment only.
type Backend struct {
	APIKey  string        `yaml:"-"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Backends groups the three provider configurations.
type Backends struct {
	Anthropic  Backend `yaml:"anthropic"`
	OpenAI     Backend `yaml:"openai"`
	Perplexity Backend `yaml:"perplexity"`
}

// Models selects the model per role.
type Models struct {
	Claude     string `yaml:"claude"`
	Perplexity string `yaml:"perplexity"`
	ChatGPT    string `yaml:"chatgpt"`
	Judge      string `yaml:"judge"`
	Synthesis  string `yaml:"synthesis"`
}

// Debate holds the debate engine defaults.
type Debate struct {
	Rounds               int    `yaml:"rounds"`                // Default rounds per debate (1-6)
	MinRounds            int    `yaml:"min_rounds"`            // Rounds before the judge may stop the run
	AutoStop             bool   `yaml:"auto_stop"`             // Convergence judge enabled
	ConvergenceThreshold int    `yaml:"convergence_threshold"` // Judge confidence needed to stop (0-100)
	MaxConcurrent        int64  `yaml:"max_concurrent"`        // Parallel debate jobs
	CompressMaxChars     int    `yaml:"compress_max_chars"`    // Critique history budget per round
	MaxTokens            int    `yaml:"max_tokens"`            // Reviewer/synthesis response budget
	Retries              int    `yaml:"retries"`               // Attempts per provider call
	Models               Models `yaml:"models"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Cache holds the in-process result cache configuration.
type Cache struct {
	MaxSizeMB int64         `yaml:"max_size_mb"`
	ResultTTL time.Duration `yaml:"result_ttl"`
}

// Otel holds the OTLP exporter configuration. An empty endpoint disables
// export.
type Otel struct {
	Endpoint string `yaml:"endpoint"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "*",
		},
		Postgres: Postgres{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
		},
		Backends: Backends{
			Anthropic:  Backend{Timeout: 2 * time.Minute},
			OpenAI:     Backend{Timeout: 2 * time.Minute},
			Perplexity: Backend{Timeout: 2 * time.Minute},
		},
		Debate: Debate{
			Rounds:               3,
			MinRounds:            2,
			AutoStop:             true,
			ConvergenceThreshold: 70,
			MaxConcurrent:        2,
			CompressMaxChars:     4000,
			MaxTokens:            8192,
			Retries:              3,
			Models: Models{
				Claude:     "claude-sonnet-4-20250514",
				Perplexity: "sonar-pro",
				ChatGPT:    "gpt-4o",
				Judge:      "claude-sonnet-4-20250514",
				Synthesis:  "claude-sonnet-4-20250514",
			},
		},
		Logging: Logging{
			Level:   "info",
			Service: "strategieclub",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Cache: Cache{
			MaxSizeMB: 64,
			ResultTTL: time.Hour,
		},
	}
}
