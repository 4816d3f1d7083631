package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"deckforge-hq/atlas/pkg/routing"
)

// TestNew tests the creation of a new health checker.
func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{name: "default timeout", timeout: 0, expectedTimeout: DefaultCheckTimeout},
		{name: "negative timeout", timeout: -time.Second, expectedTimeout: DefaultCheckTimeout},
		{name: "custom timeout", timeout: 10 * time.Second, expectedTimeout: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout)

			if checker.timeout != tt.expectedTimeout {
				t.Errorf("expected timeout %v, got %v", tt.expectedTimeout, checker.timeout)
			}
			if len(checker.ListChecks()) != 0 {
				t.Errorf("expected no checks, got %v", checker.ListChecks())
			}
		})
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("b", func(context.Context) error { return nil })
	checker.RegisterCheck("a", func(context.Context) error { return nil })
	checker.RegisterCheck("a", func(context.Context) error { return errors.New("replaced") })

	got := checker.ListChecks()
	if strings.Join(got, ",") != "a,b" {
		t.Errorf("expected [a b], got %v", got)
	}

	report := checker.CheckReadiness(context.Background())
	if report.Checks["a"].Message != "replaced" {
		t.Errorf("expected replaced check to run, got %+v", report.Checks["a"])
	}

	checker.UnregisterCheck("a")
	checker.UnregisterCheck("missing")
	if got := checker.ListChecks(); len(got) != 1 || got[0] != "b" {
		t.Errorf("expected [b], got %v", got)
	}
}

func TestCheckLiveness(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("failing", func(context.Context) error { return errors.New("down") })

	report := checker.CheckLiveness(context.Background())
	if report.Status != StatusOK {
		t.Errorf("expected status %q, got %q", StatusOK, report.Status)
	}
	if report.Checks != nil {
		t.Errorf("liveness should not run checks, got %v", report.Checks)
	}
	if report.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		status string
	}{
		{
			name:   "no checks",
			checks: nil,
			status: StatusReady,
		},
		{
			name: "all passing",
			checks: map[string]CheckFunc{
				"one": func(context.Context) error { return nil },
				"two": func(context.Context) error { return nil },
			},
			status: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"one": func(context.Context) error { return nil },
				"two": func(context.Context) error { return errors.New("broken") },
			},
			status: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			report := checker.CheckReadiness(context.Background())
			if report.Status != tt.status {
				t.Errorf("expected status %q, got %q", tt.status, report.Status)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("expected %d results, got %d", len(tt.checks), len(report.Checks))
			}
			if tt.status == StatusDegraded {
				r := report.Checks["two"]
				if r.Status != StatusUnhealthy || r.Message != "broken" {
					t.Errorf("unexpected failing result %+v", r)
				}
			}
		})
	}
}

func TestCheckTimeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	report := checker.CheckReadiness(context.Background())
	if report.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %q", report.Status)
	}
	if msg := report.Checks["slow"].Message; msg != ErrCheckTimeout.Error() {
		t.Errorf("expected %q, got %q", ErrCheckTimeout.Error(), msg)
	}
}

type stubStats routing.GlobalMetrics

func (s stubStats) GlobalMetrics() routing.GlobalMetrics { return routing.GlobalMetrics(s) }

func TestProvidersCheck(t *testing.T) {
	tests := []struct {
		name    string
		stats   stubStats
		wantErr string
	}{
		{name: "none registered", stats: stubStats{}, wantErr: "no providers registered"},
		{name: "none healthy", stats: stubStats{TotalProviders: 2}, wantErr: "no healthy providers (2 registered)"},
		{name: "healthy", stats: stubStats{TotalProviders: 2, ActiveProviders: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ProvidersCheck(tt.stats)(context.Background())
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.wantErr != "" && (err == nil || err.Error() != tt.wantErr):
				t.Errorf("expected error %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		stats    stubStats
		wantCode int
		wantBody string
	}{
		{name: "ready", stats: stubStats{TotalProviders: 1, ActiveProviders: 1}, wantCode: http.StatusOK, wantBody: StatusReady},
		{name: "degraded", stats: stubStats{TotalProviders: 1}, wantCode: http.StatusServiceUnavailable, wantBody: StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			checker.RegisterCheck("providers", ProvidersCheck(tt.stats))

			rec := httptest.NewRecorder()
			checker.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}

			var report Report
			if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if report.Status != tt.wantBody {
				t.Errorf("expected status %q, got %q", tt.wantBody, report.Status)
			}
			if _, ok := report.Checks["providers"]; !ok {
				t.Error("expected providers check in report")
			}
		})
	}
}

func TestHandlersRejectWrites(t *testing.T) {
	checker := New(time.Second)
	handlers := map[string]http.HandlerFunc{
		"liveness":  checker.LivenessHandler(),
		"readiness": checker.ReadinessHandler(),
		"version":   VersionHandler("1.0.0", "abc", "now"),
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodPost, "/", nil))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected 405, got %d", rec.Code)
			}
		})
	}
}

func TestHeadHasNoBody(t *testing.T) {
	checker := New(time.Second)
	rec := httptest.NewRecorder()
	checker.LivenessHandler()(rec, httptest.NewRequest(http.MethodHead, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestRegister(t *testing.T) {
	checker := New(time.Second)
	mux := http.NewServeMux()
	checker.Register(mux, "1.2.3", "deadbeef", "2026-10-01")

	srv := httptest.NewServer(mux)
	defer srv.Close()

	for path, code := range map[string]int{
		"/health":  http.StatusOK,
		"/ready":   http.StatusOK,
		"/version": http.StatusOK,
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != code {
			t.Errorf("GET %s: expected %d, got %d", path, code, resp.StatusCode)
		}
	}

	resp, err := http.Get(srv.URL + "/version")
	if err != nil {
		t.Fatalf("GET /version: %v", err)
	}
	defer resp.Body.Close()

	var info VersionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "deadbeef" || info.GoVersion == "" {
		t.Errorf("unexpected version info %+v", info)
	}
}
