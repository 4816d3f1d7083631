package tracing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"deckforge-hq/atlas/pkg/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T, ratio float64) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(&config.TracingConfig{
		Enabled:     true,
		SampleRatio: ratio,
		ServiceName: "test-service",
	}, WithExporter(exporter), WithoutGlobal())
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

// TestNew tests the creation of a new tracer
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *config.TracingConfig
		wantErr bool
		enabled bool
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name:   "disabled tracing",
			config: &config.TracingConfig{Enabled: false, ServiceName: "test-service"},
		},
		{
			name:    "stdout exporter",
			config:  &config.TracingConfig{Enabled: true, Exporter: "stdout", SampleRatio: 1},
			enabled: true,
		},
		{
			name:    "otlp exporter connects lazily",
			config:  &config.TracingConfig{Enabled: true, Exporter: "otlp", Endpoint: "localhost:4317", Insecure: true, SampleRatio: 0.5},
			enabled: true,
		},
		{
			name:    "otlp without endpoint",
			config:  &config.TracingConfig{Enabled: true, Exporter: "otlp", SampleRatio: 1},
			wantErr: true,
		},
		{
			name:    "unsupported exporter",
			config:  &config.TracingConfig{Enabled: true, Exporter: "zipkin", SampleRatio: 1},
			wantErr: true,
		},
		{
			name:    "invalid ratio",
			config:  &config.TracingConfig{Enabled: true, Exporter: "stdout", SampleRatio: 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, WithWriter(&bytes.Buffer{}), WithoutGlobal())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer tracer.Shutdown(context.Background())

			if tracer.Enabled() != tt.enabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.enabled)
			}
		})
	}
}

func TestTracer_StdoutExport(t *testing.T) {
	var buf bytes.Buffer
	tracer, err := New(&config.TracingConfig{
		Enabled:     true,
		Exporter:    "stdout",
		SampleRatio: 1,
		ServiceName: "atlas-test",
	}, WithWriter(&buf), WithoutGlobal())
	if err != nil {
		t.Fatalf("Failed to create tracer: %v", err)
	}

	_, span := tracer.Start(context.Background(), "atlas.manager.complete")
	span.End()

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "atlas.manager.complete") {
		t.Errorf("expected span in stdout output, got %q", buf.String())
	}
}

func TestTracer_NestedSpans(t *testing.T) {
	tracer, exporter := newRecordingTracer(t, 1)

	ctx, parent := tracer.Start(context.Background(), "parent")
	if TraceID(ctx) == "" || SpanID(ctx) == "" {
		t.Fatal("expected a valid span context")
	}
	_, child := tracer.Start(ctx, "child")
	child.End()
	parent.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "child" || spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Errorf("child span not linked to parent: %+v", spans[0].Parent)
	}
}

func TestTracer_Sampling(t *testing.T) {
	tracer, exporter := newRecordingTracer(t, 0)

	ctx, span := tracer.Start(context.Background(), "dropped")
	span.End()

	if len(exporter.GetSpans()) != 0 {
		t.Error("expected no spans with ratio 0")
	}
	if TraceID(ctx) == "" {
		t.Error("unsampled spans still carry a trace ID")
	}
}

func TestNoop(t *testing.T) {
	tracer := Noop()
	if tracer.Enabled() {
		t.Error("noop tracer should be disabled")
	}

	ctx, span := tracer.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("noop spans have no trace ID")
	}
	if err := tracer.ForceFlush(ctx); err != nil {
		t.Errorf("ForceFlush() error = %v", err)
	}
	if err := tracer.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestSetErrorAndStatus(t *testing.T) {
	tracer, exporter := newRecordingTracer(t, 1)

	_, failed := tracer.Start(context.Background(), "failed")
	SetError(failed, errors.New("boom"))
	SetStatus(failed, errors.New("boom"))
	failed.End()

	_, ok := tracer.Start(context.Background(), "ok")
	SetError(ok, nil)
	SetStatus(ok, nil)
	ok.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	if spans[0].Status.Code != codes.Error || spans[0].Status.Description != "boom" {
		t.Errorf("unexpected status %+v", spans[0].Status)
	}
	if len(spans[0].Events) != 1 || spans[0].Events[0].Name != "exception" {
		t.Errorf("expected recorded exception, got %+v", spans[0].Events)
	}
	if v, found := attrValue(spans[0].Attributes, "error.message"); !found || v.AsString() != "boom" {
		t.Errorf("expected error.message attribute, got %v", spans[0].Attributes)
	}

	if spans[1].Status.Code != codes.Ok {
		t.Errorf("expected OK status, got %+v", spans[1].Status)
	}
	if len(spans[1].Events) != 0 {
		t.Errorf("expected no events on success, got %+v", spans[1].Events)
	}
}
