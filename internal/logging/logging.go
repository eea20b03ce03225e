// Package logging builds the structured loggers used by the calc command and
// server.
package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger construction.
type Config struct {
	LogLevel        string `json:"log_level" yaml:"log_level"`
	IncludeSrc      bool   `json:"include_src" yaml:"include_src"`
	LogToFile       bool   `json:"log_to_file" yaml:"log_to_file"`
	Filename        string `json:"filename" yaml:"filename"`
	MaxSize         int    `json:"max_size" yaml:"max_size"`
	MaxAge          int    `json:"max_age" yaml:"max_age"`
	MaxBackups      int    `json:"max_backups" yaml:"max_backups"`
	CompressOldLogs bool   `json:"compress_old_logs" yaml:"compress_old_logs"`
}

// New creates a JSON logger writing to w. If cfg asks for file output, records
// are also written to a rotating log file.
func New(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     Level(cfg.LogLevel),
		AddSource: cfg.IncludeSrc,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
					source.Function = strings.TrimPrefix(source.Function, "github.com/zephyrtronium/calc")
				}
			}
			return a
		},
	}
	if cfg.LogToFile && cfg.Filename != "" {
		target := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize, // megabytes
			MaxAge:     cfg.MaxAge,  // days
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.CompressOldLogs,
		}
		w = io.MultiWriter(w, target)
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Level converts a level name to a slog level. Unknown names are info.
func Level(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether name is a level Level recognizes.
func ValidLevel(name string) bool {
	switch strings.ToLower(name) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
