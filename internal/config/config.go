// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package config

import (
	"errors"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/tessella-dev/tessella/internal/store"
	tesserr "github.com/tessella-dev/tessella/pkg/errors"
)

// Config is the top-level Tessella configuration.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StoreConfig selects and tunes the storage backend.
type StoreConfig struct {
	Type                   string  `mapstructure:"type"`
	ConnectionString       string  `mapstructure:"connection_string"`
	EnableInference        bool    `mapstructure:"enable_inference"`
	EnableVersioning       bool    `mapstructure:"enable_versioning"`
	DefaultGraphURI        string  `mapstructure:"default_graph_uri"`
	DefaultQueryLimit      int     `mapstructure:"default_query_limit"`
	QueryTimeoutSeconds    int     `mapstructure:"query_timeout_seconds"`
	ValidateTriples        bool    `mapstructure:"validate_triples"`
	MinConfidenceThreshold float64 `mapstructure:"min_confidence_threshold"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix TESSELLA_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("store.type", string(store.StoreTypeMemory))
	v.SetDefault("store.connection_string", "")
	v.SetDefault("store.enable_inference", false)
	v.SetDefault("store.enable_versioning", true)
	v.SetDefault("store.default_graph_uri", store.DefaultGraphURI)
	v.SetDefault("store.default_query_limit", store.DefaultQueryLimit)
	v.SetDefault("store.query_timeout_seconds", store.DefaultQueryTimeoutSeconds)
	v.SetDefault("store.validate_triples", true)
	v.SetDefault("store.min_confidence_threshold", store.DefaultMinConfidenceThreshold)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Environment
	v.SetEnvPrefix("TESSELLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, tesserr.Errorf(tesserr.CodeConfigReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, tesserr.Errorf(tesserr.CodeConfigInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, tesserr.Errorf(tesserr.CodeConfigInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a slice
// of all validation errors found, collecting all issues rather than stopping
// at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateStore()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateStore() []error {
	var errs []error

	validTypes := map[string]bool{
		string(store.StoreTypeMemory):         true,
		string(store.StoreTypeFile):           true,
		string(store.StoreTypeSQL):            true,
		string(store.StoreTypeNoSQL):          true,
		string(store.StoreTypeSparqlEndpoint): true,
	}
	if !validTypes[c.Store.Type] {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigInvalidValue,
			"config: store.type must be one of [memory, file, sqlite, nosql, sparql], got %q",
			c.Store.Type,
		))
	}

	// The memory backend is the only one that runs without a location.
	if c.Store.Type != string(store.StoreTypeMemory) && c.Store.ConnectionString == "" {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigInvalidValue,
			"config: store.connection_string must not be empty for store.type %q",
			c.Store.Type,
		))
	}

	if c.Store.DefaultQueryLimit < 1 {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigInvalidValue,
			"config: store.default_query_limit must be at least 1, got %d",
			c.Store.DefaultQueryLimit,
		))
	}
	if c.Store.QueryTimeoutSeconds < 1 {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigInvalidValue,
			"config: store.query_timeout_seconds must be at least 1, got %d",
			c.Store.QueryTimeoutSeconds,
		))
	}
	if t := c.Store.MinConfidenceThreshold; math.IsNaN(t) || t < 0 || t > 1 {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigInvalidValue,
			"config: store.min_confidence_threshold must be between 0 and 1, got %v",
			t,
		))
	}
	if c.Store.DefaultGraphURI == "" {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigInvalidValue,
			"config: store.default_graph_uri must not be empty"))
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigInvalidValue,
			"config: logging.level must be one of [debug, info, warn, error], got %q",
			c.Logging.Level,
		))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, tesserr.Errorf(tesserr.CodeConfigInvalidValue,
			"config: logging.format must be one of [text, json], got %q",
			c.Logging.Format,
		))
	}

	return errs
}

// StoreOptions maps the store section onto backend options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		StoreType:              store.StoreType(c.Store.Type),
		ConnectionString:       c.Store.ConnectionString,
		EnableInference:        c.Store.EnableInference,
		EnableVersioning:       c.Store.EnableVersioning,
		DefaultGraphURI:        c.Store.DefaultGraphURI,
		DefaultQueryLimit:      c.Store.DefaultQueryLimit,
		QueryTimeoutSeconds:    c.Store.QueryTimeoutSeconds,
		ValidateTriples:        c.Store.ValidateTriples,
		MinConfidenceThreshold: c.Store.MinConfidenceThreshold,
	}
}
