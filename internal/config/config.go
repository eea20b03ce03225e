// Package config loads calc settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/zephyrtronium/calc/internal/logging"
)

// Environment variables
const (
	EnvConfigFilePath = "CALC_CONFIG_FILE_PATH"
	EnvLogLevel       = "CALC_LOG_LEVEL"
	EnvServerAddr     = "CALC_SERVER_ADDR"
)

// Config is the full set of calc settings.
type Config struct {
	Logging logging.Config `json:"logging" yaml:"logging"`

	// Format is the fmt verb used to print results.
	Format string `json:"format" yaml:"format"`
	// Jobs bounds concurrent evaluations.
	Jobs int `json:"jobs" yaml:"jobs"`
	// Lines treats each input line as a separate expression.
	Lines bool `json:"lines" yaml:"lines"`

	Server Server `json:"server" yaml:"server"`
}

// Server holds HTTP listener settings.
type Server struct {
	Addr         string        `json:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Logging: logging.Config{LogLevel: "info"},
		Format:  "%g",
		Jobs:    4,
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Load reads the config file at path over the defaults, applies environment
// overrides, and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := Parse(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.envOverride()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Unknown keys are an error. Fields absent from
// the document keep their current values.
func Parse(b []byte, cfg *Config) error {
	return yaml.UnmarshalStrict(b, cfg)
}

func (cfg *Config) envOverride() {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.Logging.LogLevel = lvl
	}
	if addr := os.Getenv(EnvServerAddr); addr != "" {
		cfg.Server.Addr = addr
	}
}

// Validate checks settings that would otherwise fail later.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs must be at least 1, not %d", cfg.Jobs))
	}
	if !strings.HasPrefix(cfg.Format, "%") {
		errs = append(errs, fmt.Errorf("format %q must be a fmt verb starting with %%", cfg.Format))
	}
	if cfg.Server.ReadTimeout < 0 {
		errs = append(errs, fmt.Errorf("server read_timeout must not be negative, not %v", cfg.Server.ReadTimeout))
	}
	if cfg.Server.WriteTimeout < 0 {
		errs = append(errs, fmt.Errorf("server write_timeout must not be negative, not %v", cfg.Server.WriteTimeout))
	}
	if !logging.ValidLevel(cfg.Logging.LogLevel) {
		errs = append(errs, fmt.Errorf("unknown log level %q", cfg.Logging.LogLevel))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
