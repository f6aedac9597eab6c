// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

// Package config loads and validates the wikibrowser service configuration
// from defaults, an optional YAML file, and WIKIBROWSER_ environment
// variables.
package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
)

// Config is the top-level service configuration.
type Config struct {
	Networking NetworkingConfig `mapstructure:"networking"`
	Sparql     SparqlConfig     `mapstructure:"sparql"`
	Locator    LocatorConfig    `mapstructure:"locator"`
	Lang       LangConfig       `mapstructure:"lang"`
	Mirror     MirrorConfig     `mapstructure:"mirror"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

// NetworkingConfig controls how the service listens for connections.
type NetworkingConfig struct {
	Listen string `mapstructure:"listen"`
}

// SparqlConfig points at the remote query execution service.
type SparqlConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LocatorConfig points at the article-locator microservice. An empty base
// URL disables enrichment.
type LocatorConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LangConfig holds the locale policy.
type LangConfig struct {
	Default string `mapstructure:"default"`
}

// MirrorConfig selects the graph-mirror backend. Timeout bounds each
// best-effort upsert.
type MirrorConfig struct {
	Backend string             `mapstructure:"backend"`
	Timeout time.Duration      `mapstructure:"timeout"`
	Neo4j   MirrorNeo4jConfig  `mapstructure:"neo4j"`
	SQLite  MirrorSQLiteConfig `mapstructure:"sqlite"`
}

// MirrorNeo4jConfig holds neo4j connection settings.
type MirrorNeo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// MirrorSQLiteConfig holds the sqlite backend's database path.
type MirrorSQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RateLimitConfig configures per-IP request limiting. Zero rate disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// CORSConfig lists allowed origins.
type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// SetDefaults installs default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("networking.listen", "127.0.0.1:8080")
	v.SetDefault("sparql.endpoint", "https://query.wikidata.org/bigdata/namespace/wdq/sparql")
	v.SetDefault("sparql.timeout", 30*time.Second)
	v.SetDefault("locator.base_url", "")
	v.SetDefault("locator.timeout", 10*time.Second)
	v.SetDefault("lang.default", "en")
	v.SetDefault("mirror.backend", "noop")
	v.SetDefault("mirror.timeout", 2*time.Second)
	v.SetDefault("mirror.sqlite.path", "wikibrowser-mirror.db")
	v.SetDefault("ratelimit.requests_per_second", 0.0)
	v.SetDefault("ratelimit.burst", 0)
}

// SetupEnv binds WIKIBROWSER_-prefixed environment variables.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("WIKIBROWSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults only when the
// path is empty) with environment variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, wberr.Wrapf(err, wberr.CodeConfigLoadReadFailure, "reading config %s", path)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals and validates a populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, wberr.Wrap(err, wberr.CodeConfigValidateInvalidValue, "unmarshalling config")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, wberr.Wrap(errors.Join(errs...), wberr.CodeConfigValidateInvalidValue, "validating config")
	}
	return &cfg, nil
}

// Validate checks the configuration for logical errors, collecting all
// issues rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateNetworking()...)
	errs = append(errs, c.validateUpstreams()...)
	errs = append(errs, c.validateMirror()...)
	errs = append(errs, c.validateRateLimit()...)

	return errs
}

func (c *Config) validateNetworking() []error {
	var errs []error

	if c.Networking.Listen == "" {
		errs = append(errs, wberr.New(wberr.CodeConfigValidateInvalidValue,
			"config: networking.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Networking.Listen)
	if err != nil {
		errs = append(errs, wberr.Errorf(wberr.CodeConfigValidateInvalidValue,
			"config: networking.listen must be a valid host:port address, got %q: %w",
			c.Networking.Listen, err))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, wberr.Errorf(wberr.CodeConfigValidateInvalidValue,
			"config: networking.listen port must be a number, got %q", portStr))
	} else if port < 0 || port > 65535 {
		errs = append(errs, wberr.Errorf(wberr.CodeConfigValidateInvalidValue,
			"config: networking.listen port must be between 0 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateUpstreams() []error {
	var errs []error

	if c.Sparql.Endpoint == "" {
		errs = append(errs, wberr.New(wberr.CodeConfigValidateInvalidValue,
			"config: sparql.endpoint must not be empty"))
	}
	if c.Sparql.Timeout <= 0 {
		errs = append(errs, wberr.Errorf(wberr.CodeConfigValidateInvalidValue,
			"config: sparql.timeout must be positive, got %s", c.Sparql.Timeout))
	}
	if c.Locator.BaseURL != "" && c.Locator.Timeout <= 0 {
		errs = append(errs, wberr.Errorf(wberr.CodeConfigValidateInvalidValue,
			"config: locator.timeout must be positive, got %s", c.Locator.Timeout))
	}
	if c.Lang.Default == "" {
		errs = append(errs, wberr.New(wberr.CodeConfigValidateInvalidValue,
			"config: lang.default must not be empty"))
	}

	return errs
}

func (c *Config) validateMirror() []error {
	var errs []error

	validBackends := map[string]bool{"": true, "noop": true, "neo4j": true, "sqlite": true}
	if !validBackends[c.Mirror.Backend] {
		errs = append(errs, wberr.Errorf(wberr.CodeConfigValidateInvalidValue,
			"config: mirror.backend must be one of [noop, neo4j, sqlite], got %q", c.Mirror.Backend))
	}

	if c.Mirror.Backend == "neo4j" && c.Mirror.Neo4j.URI == "" {
		errs = append(errs, wberr.New(wberr.CodeConfigValidateInvalidValue,
			"config: mirror.neo4j.uri is required for the neo4j backend"))
	}
	if c.Mirror.Backend == "sqlite" && c.Mirror.SQLite.Path == "" {
		errs = append(errs, wberr.New(wberr.CodeConfigValidateInvalidValue,
			"config: mirror.sqlite.path is required for the sqlite backend"))
	}
	if c.Mirror.Timeout <= 0 {
		errs = append(errs, wberr.Errorf(wberr.CodeConfigValidateInvalidValue,
			"config: mirror.timeout must be positive, got %s", c.Mirror.Timeout))
	}

	return errs
}

func (c *Config) validateRateLimit() []error {
	var errs []error

	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, wberr.Errorf(wberr.CodeConfigValidateInvalidValue,
			"config: ratelimit.requests_per_second must not be negative, got %g",
			c.RateLimit.RequestsPerSecond))
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, wberr.Errorf(wberr.CodeConfigValidateInvalidValue,
			"config: ratelimit.burst must be positive when a rate is set, got %d",
			c.RateLimit.Burst))
	}

	return errs
}

// ComputeLang applies the locale policy: the request's lang parameter when
// present, otherwise the configured default.
func (c *Config) ComputeLang(requested string) string {
	if requested != "" {
		return requested
	}
	return c.Lang.Default
}
