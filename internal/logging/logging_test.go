package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for name, want := range cases {
		require.Equal(t, want, Level(name), "level %q", name)
	}
	require.True(t, ValidLevel(""))
	require.True(t, ValidLevel("Warn"))
	require.False(t, ValidLevel("loud"))
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{LogLevel: "warn"}, &buf)
	log.Info("quiet")
	require.Zero(t, buf.Len())
	log.Warn("loud", slog.String("expression", "2 + 2"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "loud", rec["msg"])
	require.Equal(t, "WARN", rec["level"])
	require.Equal(t, "2 + 2", rec["expression"])
}

func TestNewSource(t *testing.T) {
	var buf bytes.Buffer
	New(Config{IncludeSrc: true}, &buf).Info("here")

	var rec struct {
		Source struct {
			File string `json:"file"`
		} `json:"source"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "logging_test.go", rec.Source.File)
}

func TestNewToFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "calc.log")
	var buf bytes.Buffer
	log := New(Config{LogToFile: true, Filename: name, MaxSize: 1}, &buf)
	log.Info("both")

	b, err := os.ReadFile(name)
	require.NoError(t, err)
	require.Contains(t, string(b), `"msg":"both"`)
	require.Equal(t, buf.String(), string(b))
}
