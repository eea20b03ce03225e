package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "calc.yaml")
	require.NoError(t, os.WriteFile(name, []byte(text), 0o600))
	return name
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvServerAddr, "")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvServerAddr, "")
	name := writeConfig(t, `
logging:
  log_level: debug
  include_src: true
format: "%.3f"
jobs: 2
lines: true
server:
  addr: "127.0.0.1:9000"
  read_timeout: 2s
  write_timeout: 1m
`)
	cfg, err := Load(name)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logging.LogLevel)
	require.True(t, cfg.Logging.IncludeSrc)
	require.Equal(t, "%.3f", cfg.Format)
	require.Equal(t, 2, cfg.Jobs)
	require.True(t, cfg.Lines)
	require.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	require.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, time.Minute, cfg.Server.WriteTimeout)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvServerAddr, "")
	cfg, err := Load(writeConfig(t, "jobs: 8\n"))
	require.NoError(t, err)
	want := Default()
	want.Jobs = 8
	require.Equal(t, want, cfg)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvServerAddr, ":1234")
	cfg, err := Load(writeConfig(t, "logging:\n  log_level: debug\n"))
	require.NoError(t, err)
	require.Equal(t, "error", cfg.Logging.LogLevel)
	require.Equal(t, ":1234", cfg.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvServerAddr, "")
	cases := []struct {
		name string
		text string
		msg  string
	}{
		{"unknown-key", "precision: 64\n", "precision"},
		{"jobs", "jobs: 0\n", "jobs must be at least 1"},
		{"format", "format: g\n", "fmt verb"},
		{"timeout", "server:\n  read_timeout: -1s\n", "read_timeout"},
		{"level", "logging:\n  log_level: loud\n", "unknown log level"},
		{"type", "jobs: many\n", "many"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.text))
			require.ErrorContains(t, err, c.msg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Jobs = -1
	cfg.Format = ""
	err := cfg.Validate()
	require.ErrorContains(t, err, "jobs")
	require.ErrorContains(t, err, "format")
}
