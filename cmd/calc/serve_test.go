package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/calc/internal/config"
)

// syncBuffer is a Buffer that the server's logger can write while the test
// reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// listenAddr finds the address from the server's start log line.
func listenAddr(logs string) string {
	for _, line := range strings.Split(logs, "\n") {
		var rec struct {
			Msg  string `json:"msg"`
			Addr string `json:"addr"`
		}
		if json.Unmarshal([]byte(line), &rec) == nil && rec.Msg == "Starting server" {
			return rec.Addr
		}
	}
	return ""
}

// serve runs the serve command until the returned cancel is called, then
// reports the command's result on the returned channel.
func serve(t *testing.T, args ...string) (addr string, cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	var logs syncBuffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"serve"}, args...))
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&logs)
	cmd.SetErr(&logs)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	errs := make(chan error, 1)
	go func() { errs <- cmd.ExecuteContext(ctx) }()
	require.Eventually(t, func() bool {
		addr = listenAddr(logs.String())
		return addr != ""
	}, 5*time.Second, 10*time.Millisecond, "server never started; logs:\n%s", logs.String())
	return addr, cancel, errs
}

func health(t *testing.T, addr string) {
	t.Helper()
	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func stopped(t *testing.T, cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("serve didn't return after cancel")
	}
}

func TestServeAddrFlag(t *testing.T) {
	t.Setenv(config.EnvConfigFilePath, "")
	t.Setenv(config.EnvLogLevel, "")
	// The flag wins over the environment, which can't be listened on.
	t.Setenv(config.EnvServerAddr, "256.0.0.1:0")
	addr, cancel, done := serve(t, "--addr", "127.0.0.1:0")
	require.True(t, strings.HasPrefix(addr, "127.0.0.1:"), addr)
	health(t, addr)
	stopped(t, cancel, done)
}

func TestServeConfigAddr(t *testing.T) {
	name := filepath.Join(t.TempDir(), "calc.yaml")
	require.NoError(t, os.WriteFile(name, []byte("server:\n  addr: \"127.0.0.1:0\"\n"), 0o600))
	t.Setenv(config.EnvConfigFilePath, name)
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvServerAddr, "")
	addr, cancel, done := serve(t)
	require.True(t, strings.HasPrefix(addr, "127.0.0.1:"), addr)
	health(t, addr)
	stopped(t, cancel, done)
}

func TestServeBadAddr(t *testing.T) {
	t.Setenv(config.EnvConfigFilePath, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvServerAddr, "")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve", "--addr", "127.0.0.1:-1"})
	var logs syncBuffer
	cmd.SetOut(&logs)
	cmd.SetErr(&logs)
	require.Error(t, cmd.Execute())
}

func TestServeArgs(t *testing.T) {
	t.Setenv(config.EnvConfigFilePath, "")
	_, _, err := execute(t, "", "serve", "1 + 1")
	require.Error(t, err)
}
