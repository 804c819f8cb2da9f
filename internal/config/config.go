// Package config provides functionality for managing configuration options
// for the server using command-line flags, a JSON file, a dotenv file and
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Options holds the configuration values for the server.
//
// Precedence, lowest first: flag values (or their defaults), the JSON config
// file, environment variables. A dotenv file only fills variables that are
// not already set in the environment.
type Options struct {
	// Address is the listen address (ip:port).
	Address string `env:"SERVER_ADDRESS"`
	// DatabaseDSN is the Postgres connection string.
	DatabaseDSN string `env:"DATABASE_DSN"`
	// LogLevel is a zap level name.
	LogLevel string `env:"LOG_LEVEL"`

	// RateLimitRPS and RateLimitBurst bound requests per owner. A zero RPS
	// disables rate limiting.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST"`

	// TaskRetention, when positive, turns on purging of uncompleted daily
	// tasks older than it; CleanupInterval is how often the purge runs. Zero
	// keeps every task.
	TaskRetention   time.Duration `env:"TASK_RETENTION"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `env:"TLS_CERT"`
	TLSKey  string `env:"TLS_KEY"`

	// Config is the path to the JSON config file.
	Config string `env:"CONFIG"`
	// EnvFile is the dotenv file loaded before reading the environment.
	EnvFile string
}

// fileOptions mirrors the JSON config file. Durations are Go duration strings.
type fileOptions struct {
	Address         *string  `json:"address"`
	DatabaseDSN     *string  `json:"database_dsn"`
	LogLevel        *string  `json:"log_level"`
	RateLimitRPS    *float64 `json:"rate_limit_rps"`
	RateLimitBurst  *int     `json:"rate_limit_burst"`
	TaskRetention   *string  `json:"task_retention"`
	CleanupInterval *string  `json:"cleanup_interval"`
	TLSCert         *string  `json:"tls_cert"`
	TLSKey          *string  `json:"tls_key"`
}

// Load builds Options from args (without the program name) and the process
// environment.
func Load(args []string) (*Options, error) {
	opts := &Options{}

	fs := flag.NewFlagSet("habitxp", flag.ContinueOnError)
	fs.StringVar(&opts.Address, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&opts.Config, "config", "config.json", "path to config file")
	fs.StringVar(&opts.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&opts.LogLevel, "l", "info", "log level")
	fs.StringVar(&opts.EnvFile, "env", ".env", "path to dotenv file")
	fs.Float64Var(&opts.RateLimitRPS, "rps", 20, "requests per second per owner, 0 disables")
	fs.IntVar(&opts.RateLimitBurst, "burst", 40, "rate limit burst per owner")
	fs.DurationVar(&opts.TaskRetention, "task-retention", 0, "purge uncompleted daily tasks older than this, 0 disables")
	fs.DurationVar(&opts.CleanupInterval, "cleanup-interval", time.Hour, "stale task cleanup interval")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.EnvFile != "" {
		if _, err := os.Stat(opts.EnvFile); err == nil {
			if err := godotenv.Load(opts.EnvFile); err != nil {
				return nil, fmt.Errorf("load env file: %w", err)
			}
		}
	}

	if path := os.Getenv("CONFIG"); path != "" {
		opts.Config = path
	}
	if opts.Config != "" {
		if err := applyFile(opts, opts.Config); err != nil {
			return nil, err
		}
	}

	if err := envdecode.Decode(opts); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Parse loads Options from the command line and environment and exits on
// error.
func Parse() *Options {
	opts, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	return opts
}

// TaskCleanupEnabled reports whether stale daily tasks should be purged.
func (o *Options) TaskCleanupEnabled() bool {
	return o.TaskRetention > 0
}

// TLSEnabled reports whether both certificate and key are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

func applyFile(opts *Options, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	var f fileOptions
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	setIf(&opts.Address, f.Address)
	setIf(&opts.DatabaseDSN, f.DatabaseDSN)
	setIf(&opts.LogLevel, f.LogLevel)
	setIf(&opts.RateLimitRPS, f.RateLimitRPS)
	setIf(&opts.RateLimitBurst, f.RateLimitBurst)
	setIf(&opts.TLSCert, f.TLSCert)
	setIf(&opts.TLSKey, f.TLSKey)
	if err := setDuration(&opts.TaskRetention, f.TaskRetention, "task_retention"); err != nil {
		return err
	}
	return setDuration(&opts.CleanupInterval, f.CleanupInterval, "cleanup_interval")
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, name string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("error while parsing config file: %s: %w", name, err)
	}
	*dst = d
	return nil
}

func (o *Options) validate() error {
	switch {
	case o.Address == "":
		return errors.New("server address is required")
	case o.RateLimitRPS < 0:
		return errors.New("rate limit rps must not be negative")
	case o.RateLimitRPS > 0 && o.RateLimitBurst < 1:
		return errors.New("rate limit burst must be at least 1")
	case o.TaskRetention < 0:
		return errors.New("task retention must not be negative")
	case o.TaskRetention > 0 && o.CleanupInterval <= 0:
		return errors.New("cleanup interval must be positive")
	case (o.TLSCert == "") != (o.TLSKey == ""):
		return errors.New("tls cert and key must be set together")
	}
	return nil
}
