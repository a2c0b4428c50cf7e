package config

import (
	"context"
	"time"
)

// Config is the validated process configuration. It is loaded once at startup
// and passed explicitly to the components that need it.
type Config struct {
	Automation AutomationConfig `koanf:"automation" json:"automation" yaml:"automation"`
	Results    ResultsConfig    `koanf:"results"    json:"results"    yaml:"results"`
	Discovery  DiscoveryConfig  `koanf:"discovery"  json:"discovery"  yaml:"discovery"`
	Server     ServerConfig     `koanf:"server"     json:"server"     yaml:"server"`
	Runtime    RuntimeConfig    `koanf:"runtime"    json:"runtime"    yaml:"runtime"`
}

// AutomationConfig addresses the automation platform's REST API.
type AutomationConfig struct {
	APIKey   SensitiveString `koanf:"api_key"   json:"api_key"   yaml:"api_key"   env:"MAKE_API_KEY"   validate:"required" sensitive:"true"`
	Zone     string          `koanf:"zone"      json:"zone"      yaml:"zone"      env:"MAKE_ZONE"      validate:"required,hostname_rfc1123"`
	TeamID   int64           `koanf:"team_id"   json:"team_id"   yaml:"team_id"   env:"MAKE_TEAM"      validate:"required,gt=0"`
	Timeout  time.Duration   `koanf:"timeout"   json:"timeout"   yaml:"timeout"   env:"MAKE_TIMEOUT"   validate:"gt=0"`
	PageSize int             `koanf:"page_size" json:"page_size" yaml:"page_size" env:"MAKE_PAGE_SIZE" validate:"min=1,max=10000"`
}

// ResultsConfig addresses the results retrieval service.
type ResultsConfig struct {
	BaseURL   string          `koanf:"base_url"   json:"base_url"   yaml:"base_url"   env:"RESULTS_BASE_URL"   validate:"required,url"`
	SecretKey SensitiveString `koanf:"secret_key" json:"secret_key" yaml:"secret_key" env:"RESULTS_SECRET_KEY" validate:"required" sensitive:"true"`
	Timeout   time.Duration   `koanf:"timeout"    json:"timeout"    yaml:"timeout"    env:"RESULTS_TIMEOUT"    validate:"gt=0"`
}

type DiscoveryConfig struct {
	// MaxConcurrency bounds interface fetches per discovery; 0 means unbounded.
	MaxConcurrency int `koanf:"max_concurrency" json:"max_concurrency" yaml:"max_concurrency" env:"DISCOVERY_MAX_CONCURRENCY" validate:"min=0"`
}

type ServerConfig struct {
	Transport         string        `koanf:"transport"          json:"transport"          yaml:"transport"          env:"MCP_TRANSPORT"          validate:"oneof=stdio http"`
	Host              string        `koanf:"host"               json:"host"               yaml:"host"               env:"MCP_HOST"`
	Port              int           `koanf:"port"               json:"port"               yaml:"port"               env:"MCP_PORT"               validate:"min=1,max=65535"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"   json:"shutdown_timeout"   yaml:"shutdown_timeout"   env:"MCP_SHUTDOWN_TIMEOUT"   validate:"gt=0"`
	ValidateArguments bool          `koanf:"validate_arguments" json:"validate_arguments" yaml:"validate_arguments" env:"MCP_VALIDATE_ARGUMENTS"`
}

type RuntimeConfig struct {
	LogLevel  string `koanf:"log_level"  json:"log_level"  yaml:"log_level"  env:"LOG_LEVEL"  validate:"oneof=debug info warn error disabled"`
	LogJSON   bool   `koanf:"log_json"   json:"log_json"   yaml:"log_json"   env:"LOG_JSON"`
	LogSource bool   `koanf:"log_source" json:"log_source" yaml:"log_source" env:"LOG_SOURCE"`
}

// Default returns the built-in defaults. Credentials and addresses have no
// defaults and must be supplied.
func Default() *Config {
	return &Config{
		Automation: AutomationConfig{
			Timeout:  30 * time.Second,
			PageSize: 100,
		},
		Results: ResultsConfig{
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Transport:       "stdio",
			Host:            "127.0.0.1",
			Port:            6060,
			ShutdownTimeout: 10 * time.Second,
		},
		Runtime: RuntimeConfig{
			LogLevel: "info",
		},
	}
}

// Source is a configuration layer applied on top of the defaults.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

type contextKey string

const configCtxKey contextKey = "config"

func ContextWithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configCtxKey, cfg)
}

// FromContext returns the configuration attached by the CLI, or nil.
func FromContext(ctx context.Context) *Config {
	if ctx == nil {
		return nil
	}
	cfg, ok := ctx.Value(configCtxKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}
