package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if cfg.Enabled {
		t.Error("expected tracing disabled by default")
	}
}

func TestTracerConfigApplyDefaults(t *testing.T) {
	cfg := TracerConfig{Enabled: true}
	cfg.ApplyDefaults("rulekit-cache")

	if cfg.ServiceName != "rulekit-cache" {
		t.Errorf("expected service name to default, got %q", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0 when enabled, got %v", cfg.SampleRate)
	}

	disabled := TracerConfig{}
	disabled.ApplyDefaults("svc")
	if disabled.SampleRate != 0 {
		t.Errorf("expected sample rate untouched when disabled, got %v", disabled.SampleRate)
	}
}

func TestTracerConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    TracerConfig
		errMsg string
	}{
		{"disabled zero value", TracerConfig{}, ""},
		{"enabled with endpoint", TracerConfig{Enabled: true, Endpoint: "otel:4318", SampleRate: 0.5}, ""},
		{"sample rate too high", TracerConfig{SampleRate: 1.5}, "sample_rate"},
		{"negative sample rate", TracerConfig{SampleRate: -0.1}, "sample_rate"},
		{"enabled without endpoint", TracerConfig{Enabled: true}, "endpoint"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestMeterConfigFrom(t *testing.T) {
	tc := TracerConfig{
		ServiceName:    "svc",
		ServiceVersion: "2.0.0",
		Environment:    "staging",
		Endpoint:       "collector:4318",
	}
	mc := MeterConfigFrom(tc)

	if mc.Endpoint != "collector:4318" || mc.ServiceVersion != "2.0.0" || mc.Environment != "staging" {
		t.Errorf("meter config did not inherit tracer fields: %+v", mc)
	}
	if mc.Interval != 15*time.Second {
		t.Errorf("expected default interval, got %v", mc.Interval)
	}
}

func TestNewMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	if metrics == nil {
		t.Fatal("expected non-nil metrics")
	}

	ctx := context.Background()
	metrics.RecordRequestStart(ctx)
	metrics.RecordRequestEnd(ctx, "rulekit-cache", "GET /v1/blobs/:digest", "ok", 100*time.Millisecond)
	metrics.RecordNode(ctx, "compile", "ok", 50*time.Millisecond)
	metrics.RecordNode(ctx, "compile", "cached", 0)
	metrics.RecordError(ctx, "storage", "disk")
	metrics.RecordCacheLookup(ctx, "memory", true)
	metrics.RecordCacheLookup(ctx, "memory", false)
	metrics.RecordCacheBytes(ctx, "disk", "out", 512)
}

func TestOperationContextFromContext(t *testing.T) {
	oc := NewOperationContext("rulekit-cache", "put-blob", "req-1", nil)
	ctx := WithOperationContext(context.Background(), oc)

	retrieved := OperationContextFromContext(ctx)
	if retrieved == nil {
		t.Fatal("expected operation context from context")
	}
	if retrieved.RequestID != "req-1" {
		t.Errorf("expected RequestID req-1, got %s", retrieved.RequestID)
	}

	if OperationContextFromContext(context.Background()) != nil {
		t.Error("expected nil when operation context not set")
	}
}

func TestOperationContext_Duration(t *testing.T) {
	oc := NewOperationContext("svc", "op", "req-1", nil)
	oc.StartTime = time.Now().Add(-50 * time.Millisecond)

	duration := oc.Duration()
	if duration < 45*time.Millisecond || duration > 200*time.Millisecond {
		t.Errorf("expected duration around 50ms, got %v", duration)
	}
}

func TestOperationContext_StartEnd(t *testing.T) {
	metrics, _ := NewMetrics(noop.NewMeterProvider().Meter("test"))

	t.Run("nil metrics", func(t *testing.T) {
		oc := NewOperationContext("svc", "op", "req-1", nil)
		ctx, span := oc.StartSpanForOperation(context.Background(), "test.op")
		oc.EndOperation(ctx, span, "ok", nil)
	})

	t.Run("with metrics and error", func(t *testing.T) {
		oc := NewOperationContext("svc", "op", "req-2", metrics)
		ctx, span := oc.StartSpanForOperation(context.Background(), "test.op")
		oc.EndOperation(ctx, span, "error", fmt.Errorf("something failed"))
	})
}

type staticChecker Health

func (c staticChecker) CheckHealth(context.Context) Health { return Health(c) }

func TestServiceHealth_AddComponent(t *testing.T) {
	sh := NewServiceHealth("rulekit-cache", "1.0.0")
	if sh.Status != HealthStatusUp {
		t.Fatalf("expected status 'up', got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "memory", Status: HealthStatusUp})
	if sh.Status != HealthStatusUp {
		t.Errorf("expected status 'up' after healthy component, got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "remote", Status: HealthStatusDegraded, Message: "high latency"})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected status 'degraded', got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "disk", Status: HealthStatusDown, Message: "read-only filesystem"})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected status 'down', got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "late", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected 'down' not overridden by 'degraded', got %s", sh.Status)
	}
	if len(sh.Components) != 4 {
		t.Errorf("expected 4 components, got %d", len(sh.Components))
	}
}

func TestServiceHealth_CheckAndHTTPStatus(t *testing.T) {
	up := NewServiceHealth("svc", "1.0.0").Check(context.Background(),
		staticChecker{Name: "memory", Status: HealthStatusUp},
		staticChecker{Name: "remote", Status: HealthStatusDegraded},
	)
	if up.HTTPStatus() != http.StatusOK {
		t.Errorf("degraded should report 200, got %d", up.HTTPStatus())
	}

	down := NewServiceHealth("svc", "1.0.0").Check(context.Background(),
		staticChecker{Name: "disk", Status: HealthStatusDown},
	)
	if down.HTTPStatus() != http.StatusServiceUnavailable {
		t.Errorf("down should report 503, got %d", down.HTTPStatus())
	}
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), SpanCacheGet)
	defer span.End()

	if span == nil || ctx == nil {
		t.Fatal("expected non-nil span and context")
	}
	if SpanFromContext(ctx) == nil {
		t.Fatal("expected non-nil span from context")
	}
}

type stringerDigest string

func (s stringerDigest) String() string { return string(s) }

func TestSetSpanAttributeAndError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanNodeRun)
	SetSpanAttribute(ctx, AttrNode, "compile")
	SetSpanAttribute(ctx, AttrProviders, 3)
	SetSpanAttribute(ctx, "int64-key", int64(100))
	SetSpanAttribute(ctx, "float-key", 3.14)
	SetSpanAttribute(ctx, AttrCacheHit, true)
	SetSpanAttribute(ctx, "ids", []string{"a", "b"})
	SetSpanAttribute(ctx, AttrDigest, stringerDigest("ab12"))
	SetSpanAttribute(ctx, "unsupported-key", struct{}{})
	SetSpanError(ctx, fmt.Errorf("test error"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := map[string]bool{}
	for _, kv := range spans[0].Attributes {
		got[string(kv.Key)] = true
	}
	for _, key := range []string{AttrNode, AttrProviders, AttrCacheHit, AttrDigest, "ids"} {
		if !got[key] {
			t.Errorf("expected attribute %q to be recorded", key)
		}
	}
	if got["unsupported-key"] {
		t.Error("unsupported attribute type should be ignored")
	}
	if len(spans[0].Events) != 1 {
		t.Errorf("expected one error event, got %d", len(spans[0].Events))
	}
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span error"))
}
