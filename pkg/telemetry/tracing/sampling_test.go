package tracing

import (
	"strings"
	"testing"
)

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name        string
		ratio       float64
		wantErr     bool
		description string
	}{
		{name: "always", ratio: 1, description: "AlwaysOnSampler"},
		{name: "never", ratio: 0, description: "AlwaysOffSampler"},
		{name: "ratio", ratio: 0.25, description: "TraceIDRatioBased{0.25}"},
		{name: "negative", ratio: -0.1, wantErr: true},
		{name: "above one", ratio: 1.1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := createSampler(tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			desc := sampler.Description()
			if !strings.HasPrefix(desc, "ParentBased{root:") {
				t.Errorf("expected parent-based sampler, got %q", desc)
			}
			if !strings.Contains(desc, tt.description) {
				t.Errorf("expected %q in %q", tt.description, desc)
			}
		})
	}
}
