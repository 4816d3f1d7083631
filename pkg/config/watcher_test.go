package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "providers:\n  primary:\n    api_key: \"sk-one\"\n")

	w, err := NewWatcher(path, WithDebounceInterval(20*time.Millisecond), WithLoader(LoadConfig))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()

	reloaded := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, func(cfg *Config) { reloaded <- cfg }) }()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("providers:\n  primary:\n    api_key: \"sk-two\"\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if got := cfg.Providers["primary"].APIKey; got != "sk-two" {
			t.Errorf("expected reloaded key, got %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected watch error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	path := writeConfig(t, "providers: {}\n")

	var calls atomic.Int32
	w, err := NewWatcher(path, WithDebounceInterval(10*time.Millisecond), WithLoader(func(string) (*Config, error) {
		calls.Add(1)
		return Default(), nil
	}))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	go func() { _ = w.Watch(context.Background(), func(*Config) {}) }()
	time.Sleep(50 * time.Millisecond)

	sibling := filepath.Join(filepath.Dir(path), "other.yaml")
	if err := os.WriteFile(sibling, []byte("x: 1\n"), 0644); err != nil {
		t.Fatalf("failed to write sibling: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("expected no reloads, got %d", n)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second stop should be a no-op: %v", err)
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var last atomic.Int32
	fired := make(chan struct{}, 3)
	for i := int32(1); i <= 3; i++ {
		d.Trigger(func() {
			last.Store(i)
			fired <- struct{}{}
		})
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired")
	}
	time.Sleep(50 * time.Millisecond)

	if got := last.Load(); got != 3 {
		t.Errorf("expected only the last callback, got %d", got)
	}
	if len(fired) != 0 {
		t.Errorf("expected a single invocation, got %d extra", len(fired))
	}

	d.Stop()
	d.Trigger(func() { t.Error("callback after stop") })
	time.Sleep(40 * time.Millisecond)
}
