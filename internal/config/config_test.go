// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessella-dev/tessella/internal/config"
	"github.com/tessella-dev/tessella/internal/store"
	tesserr "github.com/tessella-dev/tessella/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Type)
	assert.True(t, cfg.Store.EnableVersioning)
	assert.True(t, cfg.Store.ValidateTriples)
	assert.Equal(t, store.DefaultGraphURI, cfg.Store.DefaultGraphURI)
	assert.Equal(t, store.DefaultQueryLimit, cfg.Store.DefaultQueryLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
store:
  type: sql
  connection_string: /tmp/tessella.db
  default_query_limit: 25
  min_confidence_threshold: 0.4
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sql", cfg.Store.Type)
	assert.Equal(t, "/tmp/tessella.db", cfg.Store.ConnectionString)
	assert.Equal(t, 25, cfg.Store.DefaultQueryLimit)
	assert.InDelta(t, 0.4, cfg.Store.MinConfidenceThreshold, 1e-9)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, tesserr.CodeConfigReadFailure, tesserr.CodeOf(err))
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TESSELLA_STORE_TYPE", "file")
	t.Setenv("TESSELLA_STORE_CONNECTION_STRING", "state.yaml")
	t.Setenv("TESSELLA_LOGGING_LEVEL", "warn")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store.Type)
	assert.Equal(t, "state.yaml", cfg.Store.ConnectionString)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg, err := config.Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		errs   int
	}{
		{"valid defaults", func(*config.Config) {}, 0},
		{"unknown store type", func(c *config.Config) { c.Store.Type = "graphql" }, 1},
		{"sql without connection string", func(c *config.Config) { c.Store.Type = "sql" }, 1},
		{"bad query limit", func(c *config.Config) { c.Store.DefaultQueryLimit = 0 }, 1},
		{"bad timeout", func(c *config.Config) { c.Store.QueryTimeoutSeconds = -1 }, 1},
		{"threshold out of range", func(c *config.Config) { c.Store.MinConfidenceThreshold = 1.5 }, 1},
		{"empty graph uri", func(c *config.Config) { c.Store.DefaultGraphURI = "" }, 1},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "trace" }, 1},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "logfmt" }, 1},
		{
			"multiple errors collected",
			func(c *config.Config) {
				c.Store.Type = "graphql"
				c.Logging.Level = "trace"
			},
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Len(t, cfg.Validate(), tt.errs)
		})
	}
}

func TestLoad_InvalidValueRejected(t *testing.T) {
	t.Setenv("TESSELLA_STORE_TYPE", "graphql")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Equal(t, tesserr.CodeConfigInvalidValue, tesserr.CodeOf(err))
}

func TestStoreOptions(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Store.Type = "sql"
	cfg.Store.ConnectionString = "/tmp/t.db"
	cfg.Store.DefaultQueryLimit = 50

	opts := cfg.StoreOptions()
	assert.Equal(t, store.StoreTypeSQL, opts.StoreType)
	assert.Equal(t, "/tmp/t.db", opts.ConnectionString)
	assert.Equal(t, 50, opts.DefaultQueryLimit)
	assert.True(t, opts.EnableVersioning)
}
