package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	mock "deckforge-hq/atlas/internal/providers"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// providerYAML is one provider entry pointed at a mock server.
func providerYAML(name, baseURL string) string {
	return fmt.Sprintf(`  %s:
    kind: deepseek
    api_key: sk-test-key-123456
    base_url: %s
    timeout: 2s
    retry_delays: [1ms, 2ms, 4ms]
`, name, baseURL)
}

// configYAML builds a configuration registering the given provider entries.
func configYAML(strategy string, entries ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "manager:\n  strategy: %s\n", strategy)
	if len(entries) > 0 {
		b.WriteString("providers:\n")
		for _, e := range entries {
			b.WriteString(e)
		}
	}
	b.WriteString("telemetry:\n  logging:\n    level: error\n")
	return b.String()
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// mockConfig starts one mock server per name and writes a config that
// registers them in order.
func mockConfig(t *testing.T, strategy string, names ...string) (string, map[string]*mock.MockServer) {
	t.Helper()

	servers := make(map[string]*mock.MockServer, len(names))
	entries := make([]string, 0, len(names))
	for _, name := range names {
		srv := mock.NewMockServer()
		t.Cleanup(srv.Close)
		servers[name] = srv
		entries = append(entries, providerYAML(name, srv.URL()))
	}
	return writeConfig(t, configYAML(strategy, entries...)), servers
}

// probeOK answers the credential probe sent when a provider registers.
func probeOK() mock.MockResponse {
	return mock.MockResponse{StatusCode: http.StatusOK, Body: mock.CompletionBody("ok", 1, 1)}
}
