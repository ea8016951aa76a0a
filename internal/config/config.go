// Package config provides Viper-based configuration loading for stashplan.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/stashplan/internal/inventory"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "STASHPLAN"

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// PlannerConfig holds allocation engine defaults.
type PlannerConfig struct {
	// DefaultLimit is the per-type sink limit used when a request leaves it unset.
	DefaultLimit int `mapstructure:"default_limit"`
	// UseSubCategories packs by sub-category when a request does not ask for it.
	UseSubCategories bool `mapstructure:"use_sub_categories"`
	// SplitBoundaryStacks lets the sink take part of the first stack that no
	// longer fits whole.
	SplitBoundaryStacks bool `mapstructure:"split_boundary_stacks"`
	// RulesFile is an optional YAML category rule file. Empty selects the
	// built-in rules.
	RulesFile string `mapstructure:"rules_file"`
	// CacheSize is the number of reports the planning service keeps.
	CacheSize int `mapstructure:"cache_size"`
}

// Policy returns the capacity policy the planner defaults describe.
//
// Postcondition: PerItemOverride is nil.
func (p PlannerConfig) Policy() inventory.CapacityPolicy {
	return inventory.CapacityPolicy{DefaultLimit: p.DefaultLimit, SplitBoundaryStacks: p.SplitBoundaryStacks}
}

// ApplyDefaults fills the planner settings a request leaves unset: a zero
// default limit takes DefaultLimit, and the split and sub-category switches
// are turned on when configured.
//
// Postcondition: req is not modified.
func (p PlannerConfig) ApplyDefaults(req inventory.Request) inventory.Request {
	if req.Policy.DefaultLimit == 0 {
		req.Policy.DefaultLimit = p.DefaultLimit
	}
	req.Policy.SplitBoundaryStacks = req.Policy.SplitBoundaryStacks || p.SplitBoundaryStacks
	req.UseSubCategories = req.UseSubCategories || p.UseSubCategories
	return req
}

// ServerConfig holds planning service gRPC settings.
type ServerConfig struct {
	// GRPCHost is the bind address for the planning service.
	GRPCHost string `mapstructure:"grpc_host"`
	// GRPCPort is the TCP port for the planning service.
	GRPCPort int `mapstructure:"grpc_port"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.GRPCHost, s.GRPCPort)
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Server   ServerConfig   `mapstructure:"server"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validatePlanner(c.Planner); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePlanner(p PlannerConfig) error {
	var errs []string
	if p.DefaultLimit < 1 || p.DefaultLimit > inventory.MaxSinkLimit {
		errs = append(errs, fmt.Sprintf("planner.default_limit must be 1-%d, got %d", inventory.MaxSinkLimit, p.DefaultLimit))
	}
	if p.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("planner.cache_size must be >= 1, got %d", p.CacheSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.GRPCHost == "" {
		errs = append(errs, "server.grpc_host must not be empty")
	}
	if s.GRPCPort < 1 || s.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.grpc_port must be 1-65535, got %d", s.GRPCPort))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Precondition: path must be empty or a valid path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// Defaults returns the validated default configuration with environment
// overrides applied.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Defaults() (Config, error) {
	return Load("")
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with STASHPLAN_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "stashplan")
	v.SetDefault("database.password", "stashplan")
	v.SetDefault("database.name", "stashplan")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("planner.default_limit", inventory.DefaultSinkLimit)
	v.SetDefault("planner.use_sub_categories", false)
	v.SetDefault("planner.split_boundary_stacks", false)
	v.SetDefault("planner.rules_file", "")
	v.SetDefault("planner.cache_size", 256)

	v.SetDefault("server.grpc_host", "127.0.0.1")
	v.SetDefault("server.grpc_port", 50061)
}
