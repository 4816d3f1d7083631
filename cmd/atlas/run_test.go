package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mock "deckforge-hq/atlas/internal/providers"
)

// startGateway runs the gateway on an ephemeral port and returns its base
// URL. The gateway is stopped when the test ends.
func startGateway(t *testing.T, path string) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	listening := make(chan string, 1)
	done := make(chan error, 1)

	root := &rootOptions{configPath: path, configExplicit: true}
	opts := &runOptions{
		listenAddress:   "127.0.0.1:0",
		watch:           true,
		shutdownTimeout: 2 * time.Second,
		onListen:        func(addr string) { listening <- addr },
	}
	go func() { done <- runGateway(ctx, root, opts, io.Discard) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("gateway did not stop")
		}
	})

	select {
	case addr := <-listening:
		return "http://" + addr
	case err := <-done:
		require.NoError(t, err)
		t.Fatal("gateway exited before listening")
	case <-time.After(5 * time.Second):
		t.Fatal("gateway did not start")
	}
	return ""
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func withMetrics(cfg string) string {
	return cfg + "  metrics:\n    enabled: true\n"
}

func TestRunGateway(t *testing.T) {
	primary := mock.NewMockServer()
	defer primary.Close()
	backup := mock.NewMockServer()
	defer backup.Close()

	path := writeConfig(t, withMetrics(configYAML("round_robin", providerYAML("primary", primary.URL()))))
	base := startGateway(t, path)

	code, body := get(t, base+"/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"status":"ok"`)

	code, body = get(t, base+"/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"status":"ready"`)

	code, body = get(t, base+"/version")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, Version)

	code, body = get(t, base+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `atlas_gateway_provider_health{provider="primary"} 1`)

	t.Run("hot reload", func(t *testing.T) {
		updated := withMetrics(configYAML("round_robin", providerYAML("backup", backup.URL())))
		require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

		assert.Eventually(t, func() bool {
			resp, err := http.Get(base + "/metrics")
			if err != nil {
				return false
			}
			defer resp.Body.Close()
			raw, _ := io.ReadAll(resp.Body)
			body := string(raw)
			return strings.Contains(body, `atlas_gateway_provider_health{provider="backup"} 1`) &&
				!strings.Contains(body, `provider="primary"`)
		}, 5*time.Second, 50*time.Millisecond)
	})
}

func TestRunGatewayNotReady(t *testing.T) {
	path := writeConfig(t, configYAML("least_loaded"))
	base := startGateway(t, path)

	code, body := get(t, base+"/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "no providers registered")

	code, _ = get(t, base+"/metrics")
	assert.Equal(t, http.StatusNotFound, code, "metrics are mounted only when enabled")
}
