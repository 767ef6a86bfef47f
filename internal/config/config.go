// Package config resolves the runtime configuration of the govform binaries.
//
// Sources are layered: defaults, an optional YAML file, then GOVFORM_*
// environment variables. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "GOVFORM_"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full runtime configuration.
type Config struct {
	LogLevel   string           `mapstructure:"log_level" env:"LOG_LEVEL"`
	LogFormat  string           `mapstructure:"log_format" env:"LOG_FORMAT"`
	Autosave   bool             `mapstructure:"autosave" env:"AUTOSAVE"`
	Store      StoreConfig      `mapstructure:"store" envPrefix:"STORE_"`
	Server     ServerConfig     `mapstructure:"server" envPrefix:"SERVER_"`
	Submission SubmissionConfig `mapstructure:"submission" envPrefix:"SUBMISSION_"`
	Auth       AuthConfig       `mapstructure:"auth" envPrefix:"AUTH_"`
}

// StoreConfig selects and tunes the draft backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver" env:"DRIVER"`
	// Path is the directory of the file driver or the database of sqlite.
	Path string `mapstructure:"path" env:"PATH"`
	// URL is the redis URL or the postgres DSN.
	URL    string        `mapstructure:"url" env:"URL"`
	Prefix string        `mapstructure:"prefix" env:"PREFIX"`
	TTL    time.Duration `mapstructure:"ttl" env:"TTL"`

	// EncryptionKey is a base64 AES-256 key. Empty disables encryption.
	EncryptionKey   string   `mapstructure:"encryption_key" env:"ENCRYPTION_KEY"`
	FallbackKeys    []string `mapstructure:"fallback_keys" env:"FALLBACK_KEYS"`
	DistributedLock bool     `mapstructure:"distributed_lock" env:"DISTRIBUTED_LOCK"`
}

// ServerConfig tunes the HTTP transport.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" env:"ADDR"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" env:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	Metrics         bool          `mapstructure:"metrics" env:"METRICS"`
}

// SubmissionConfig tunes the submission. With a Command the application
// is handed to that executable instead of the simulated gateway.
type SubmissionConfig struct {
	Delay   time.Duration `mapstructure:"delay" env:"DELAY"`
	Command string        `mapstructure:"command" env:"COMMAND"`
	Args    []string      `mapstructure:"args" env:"ARGS"`
	Timeout time.Duration `mapstructure:"timeout" env:"TIMEOUT"`
}

// AuthConfig enables bearer tokens on the HTTP API when Secret is set.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret" env:"SECRET"`
	TokenTTL time.Duration `mapstructure:"token_ttl" env:"TOKEN_TTL"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Autosave:  true,
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   ".govform/drafts",
			Prefix: "govform:draft:",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  11 << 20,
			Metrics:         true,
		},
		Submission: SubmissionConfig{Delay: 2 * time.Second},
		Auth:       AuthConfig{TokenTTL: 24 * time.Hour},
	}
}

// Load layers the YAML file at path (optional), the environment and then
// overrides over Default. Command line flags are applied as overrides.
func Load(path string, overrides ...func(*Config)) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decodeYAML(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	for _, o := range overrides {
		o(&cfg)
	}

	return cfg, cfg.Validate()
}

func decodeYAML(raw []byte, cfg *Config) error {
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return err
	}
	if tree == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(tree)
}

// Validate rejects settings no component can start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverSQLite:
	case DriverRedis, DriverPostgres:
		if c.Store.URL == "" {
			errs = append(errs, fmt.Errorf("store.url is required for the %s driver", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Store.DistributedLock && c.Store.Driver != DriverRedis {
		errs = append(errs, errors.New("store.distributed_lock requires the redis driver"))
	}
	if c.Submission.Delay < 0 {
		errs = append(errs, errors.New("submission.delay must not be negative"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	return errors.Join(errs...)
}
