package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/conduit-lang/mockls/internal/cli/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serveConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Transport: config.TransportWebSocket, Addr: "127.0.0.1:0", WSPath: "/lsp"},
		Log:     config.LogConfig{Level: "info"},
		Journal: config.JournalConfig{Key: "mockls:test"},
	}
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	fixturePath := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(fixturePath, []byte(`{"hover": {"contents": {"kind": "plaintext", "value": "hi"}}}`), 0644))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := serveConfig()
	cfg.Fixture = config.FixtureConfig{Path: fixturePath, Watch: true}
	cfg.Journal.RedisAddr = mr.Addr()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg, zap.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunServe_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "missing fixture", mutate: func(c *config.Config) { c.Fixture.Path = filepath.Join(t.TempDir(), "missing.json") }},
		{name: "unreachable redis", mutate: func(c *config.Config) { c.Journal.RedisAddr = "localhost:99999" }},
		{name: "bad listen address", mutate: func(c *config.Config) { c.Server.Addr = "not-an-address" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := serveConfig()
			tt.mutate(cfg)
			assert.Error(t, runServe(context.Background(), cfg, zap.NewNop()))
		})
	}
}

func TestServeCommand_IdleTimeout(t *testing.T) {
	t.Setenv("MOCKLS_LOG_LEVEL", "error")

	_, _, err := execute(t, "serve", "--transport", "tcp", "--addr", "127.0.0.1:0", "--idle-timeout", "50ms")
	assert.NoError(t, err)
}

func TestServeCommand_InvalidFlags(t *testing.T) {
	_, _, err := execute(t, "serve", "--transport", "pipe")
	assert.ErrorContains(t, err, "server.transport")

	_, _, err = execute(t, "serve", "--watch")
	assert.ErrorContains(t, err, "fixture.watch requires fixture.path")
}
