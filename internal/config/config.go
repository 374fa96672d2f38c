// Package config loads the flowdesk CLI configuration from flags, the
// environment (FLOWDESK_*), an optional .env file and flowdesk.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Sternrassler/flowdesk/pkg/logging"
	"github.com/Sternrassler/flowdesk/pkg/session"
)

// EnvPrefix prefixes every environment variable, e.g. FLOWDESK_BASE_URL.
const EnvPrefix = "FLOWDESK"

// EnvironmentVar selects the runtime environment. In production no .env
// file is read.
const EnvironmentVar = EnvPrefix + "_ENV"

// Configuration keys. Flags use the same names.
const (
	KeyBaseURL         = "base-url"
	KeyUserAgent       = "user-agent"
	KeyProfile         = "profile"
	KeyCredentialStore = "credential-store"
	KeyRedisURL        = "redis-url"
	KeyPageSize        = "page-size"
	KeyWindow          = "window"
	KeyMaxRetries      = "max-retries"
	KeyMaxConcurrency  = "max-concurrency"
	KeyTimeout         = "timeout"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
	KeyMetricsAddr     = "metrics-addr"
)

// Credential store kinds.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// DefaultUserAgent identifies the CLI to the API.
const DefaultUserAgent = "flowdesk-cli/1.0"

// Config is the resolved CLI configuration.
type Config struct {
	BaseURL         string        `mapstructure:"base-url"`
	UserAgent       string        `mapstructure:"user-agent"`
	Profile         string        `mapstructure:"profile"`
	CredentialStore string        `mapstructure:"credential-store"`
	RedisURL        string        `mapstructure:"redis-url"`
	PageSize        int           `mapstructure:"page-size"`
	Window          int           `mapstructure:"window"`
	MaxRetries      int           `mapstructure:"max-retries"`
	MaxConcurrency  int           `mapstructure:"max-concurrency"`
	Timeout         time.Duration `mapstructure:"timeout"`
	LogLevel        string        `mapstructure:"log-level"`
	LogFormat       string        `mapstructure:"log-format"`
	MetricsAddr     string        `mapstructure:"metrics-addr"`

	// Environment is read from FLOWDESK_ENV, "development" when unset.
	Environment string `mapstructure:"-"`

	// File is the config file used, empty when none was found.
	File string `mapstructure:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		UserAgent:       DefaultUserAgent,
		Profile:         "default",
		CredentialStore: StoreFile,
		PageSize:        20,
		Window:          5,
		MaxRetries:      2,
		MaxConcurrency:  5,
		Timeout:         30 * time.Second,
		LogLevel:        logging.LevelWarn,
		LogFormat:       logging.FormatConsole,
	}
}

// RegisterFlags adds the configuration flags to flags and binds each one
// to v and to its FLOWDESK_* environment variable.
func RegisterFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	d := Defaults()

	flags.String(KeyBaseURL, d.BaseURL, `Workflow API base URL, e.g. "https://workflow.example.com"`)
	flags.String(KeyUserAgent, d.UserAgent, "User-Agent sent with every request")
	flags.String(KeyProfile, d.Profile, "Credential profile name")
	flags.String(KeyCredentialStore, d.CredentialStore, "Where the session is kept (file, redis, memory)")
	flags.String(KeyRedisURL, d.RedisURL, `Redis URL for cache, rate limit and sessions, e.g. "redis://localhost:6379/0"`)
	flags.Int(KeyPageSize, d.PageSize, "Rows per page in list output")
	flags.Int(KeyWindow, d.Window, "Page numbers shown in the page bar")
	flags.Int(KeyMaxRetries, d.MaxRetries, "Retries for server, rate limit and network errors")
	flags.Int(KeyMaxConcurrency, d.MaxConcurrency, "Parallel requests when fetching all pages")
	flags.Duration(KeyTimeout, d.Timeout, "Timeout per HTTP attempt")
	flags.String(KeyLogLevel, d.LogLevel, "Log level (debug, info, warn, error)")
	flags.String(KeyLogFormat, d.LogFormat, "Log format (console, json)")
	flags.String(KeyMetricsAddr, d.MetricsAddr, `Expose Prometheus metrics on this address, e.g. ":9090"`)

	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// NewViper returns a viper instance reading FLOWDESK_* variables with the
// built-in defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault(KeyBaseURL, d.BaseURL)
	v.SetDefault(KeyUserAgent, d.UserAgent)
	v.SetDefault(KeyProfile, d.Profile)
	v.SetDefault(KeyCredentialStore, d.CredentialStore)
	v.SetDefault(KeyRedisURL, d.RedisURL)
	v.SetDefault(KeyPageSize, d.PageSize)
	v.SetDefault(KeyWindow, d.Window)
	v.SetDefault(KeyMaxRetries, d.MaxRetries)
	v.SetDefault(KeyMaxConcurrency, d.MaxConcurrency)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyMetricsAddr, d.MetricsAddr)
	return v
}

// LoadEnvFile reads .env files into the process environment unless
// FLOWDESK_ENV is "production". Variables already set are kept. A missing
// file is not an error.
func LoadEnvFile(filenames ...string) (string, error) {
	env := os.Getenv(EnvironmentVar)
	if env == "" {
		env = "development"
	}
	if env == "production" {
		return env, nil
	}

	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Debug().Str("file", name).Msg("No .env file found")
				continue
			}
			return env, fmt.Errorf("load %s: %w", name, err)
		}
	}
	return env, nil
}

// Load resolves the configuration from v. Config files named flowdesk.yaml
// are searched in configPaths, then ".", "./config" and "$HOME/.flowdesk".
func Load(v *viper.Viper, configPaths ...string) (*Config, error) {
	env, err := LoadEnvFile()
	if err != nil {
		return nil, err
	}

	v.SetConfigName("flowdesk")
	v.SetConfigType("yaml")
	for _, p := range append(configPaths, ".", "./config", "$HOME/.flowdesk") {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Environment = env
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and combinations. A missing base URL is
// only rejected when a command needs the API, see RequireAPI.
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("%s must start with http:// or https:// (got %q)", KeyBaseURL, c.BaseURL))
	}
	if strings.TrimSpace(c.Profile) == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyProfile))
	}

	switch c.CredentialStore {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, fmt.Errorf("%s=redis requires %s", KeyCredentialStore, KeyRedisURL))
		}
	default:
		errs = append(errs, fmt.Errorf("%s must be file, redis or memory (got %q)", KeyCredentialStore, c.CredentialStore))
	}

	if c.PageSize < 1 {
		errs = append(errs, fmt.Errorf("%s must be >= 1 (got %d)", KeyPageSize, c.PageSize))
	}
	if c.Window < 1 {
		errs = append(errs, fmt.Errorf("%s must be >= 1 (got %d)", KeyWindow, c.Window))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s must be >= 0 (got %d)", KeyMaxRetries, c.MaxRetries))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("%s must be >= 1 (got %d)", KeyMaxConcurrency, c.MaxConcurrency))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive (got %s)", KeyTimeout, c.Timeout))
	}
	if err := c.Logging().Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// RequireAPI reports an error when no base URL is configured.
func (c *Config) RequireAPI() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%s is required (flag --%s or %s_BASE_URL)", KeyBaseURL, KeyBaseURL, EnvPrefix)
	}
	return nil
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	return cfg
}

// CredentialPath returns the file used by the file credential store.
func (c *Config) CredentialPath() (string, error) {
	return session.DefaultFilePath(c.Profile)
}
