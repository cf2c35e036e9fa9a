package dag

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/rulekit/logger"
	"github.com/kbukum/rulekit/observability"
	"github.com/kbukum/rulekit/provider"
)

func newTestMetrics(t *testing.T) *observability.Metrics {
	t.Helper()
	metrics, err := observability.NewMetrics(noop.NewMeterProvider().Meter("dag-test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return metrics
}

func newBufferLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, buf, "dag-test")
}

func TestWithTracing_RecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	traced := WithTracing(constNode("sources", sourceSet{Files: []string{"a.go"}}))
	if traced.Name() != "sources" {
		t.Fatalf("expected 'sources', got %q", traced.Name())
	}

	out, err := traced.Run(context.Background(), NewInputs(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Count() != 1 {
		t.Fatalf("expected one provider, got %d", out.Count())
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != observability.SpanNodeRun {
		t.Fatalf("expected one %q span, got %d", observability.SpanNodeRun, len(spans))
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[observability.AttrNode] != "sources" || attrs[observability.AttrProviders] != "1" {
		t.Fatalf("unexpected span attributes %v", attrs)
	}
}

func TestWithTracing_PropagatesError(t *testing.T) {
	nodeErr := errors.New("fail")
	traced := WithTracing(failingNode("fail-node", nodeErr))
	if _, err := traced.Run(context.Background(), NewInputs(nil)); !errors.Is(err, nodeErr) {
		t.Fatalf("expected node error, got %v", err)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	logged := WithLogging(constNode("ok-node", objectCount{N: 1}), log)
	if logged.Name() != "ok-node" {
		t.Fatalf("expected 'ok-node', got %q", logged.Name())
	}
	if _, err := logged.Run(context.Background(), NewInputs(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"node":"ok-node"`) || !strings.Contains(buf.String(), "Node completed") {
		t.Fatalf("missing completion log: %s", buf.String())
	}

	buf.Reset()
	nodeErr := errors.New("log-fail")
	failing := WithLogging(failingNode("bad-node", nodeErr), log)
	if _, err := failing.Run(context.Background(), NewInputs(nil)); !errors.Is(err, nodeErr) {
		t.Fatalf("expected node error, got %v", err)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), "log-fail") {
		t.Fatalf("missing failure log: %s", buf.String())
	}
}

func TestWithMetrics(t *testing.T) {
	metrics := newTestMetrics(t)

	wrapped := WithMetrics(constNode("metrics-node", objectCount{N: 2}), metrics)
	if wrapped.Name() != "metrics-node" {
		t.Fatalf("expected 'metrics-node', got %q", wrapped.Name())
	}
	out, err := wrapped.Run(context.Background(), NewInputs(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Count() != 1 {
		t.Fatalf("expected one provider, got %d", out.Count())
	}

	nodeErr := errors.New("metrics-fail")
	failing := WithMetrics(failingNode("fail-metrics", nodeErr), metrics)
	if _, err := failing.Run(context.Background(), NewInputs(nil)); !errors.Is(err, nodeErr) {
		t.Fatalf("expected node error, got %v", err)
	}
}

func TestInstrument_InDAG(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)
	metrics := newTestMetrics(t)

	a := Instrument(constNode("a", sourceSet{Files: []string{"x.go", "y.go"}}), log, metrics)
	b := Instrument(Func("b", func(_ context.Context, in *Inputs) (*provider.Map, error) {
		src, err := Need(in, "a", decodeSources)
		if err != nil {
			return nil, err
		}
		return provider.Build(objectCount{N: len(src.Files)})
	}), log, metrics)

	engine := &Engine{Log: log}
	state := NewState()
	result, err := engine.ExecuteBatch(context.Background(), NewGraph(a, b).Connect("a", "b"), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := result.Err(); err != nil {
		t.Fatalf("unexpected node failure: %v", err)
	}

	got, err := provider.Get(result.NodeResults["b"].Output, decodeObjects)
	if err != nil || got.N != 2 {
		t.Fatalf("b output = %+v, %v", got, err)
	}
	if !strings.Contains(buf.String(), result.ExecutionID) {
		t.Fatal("expected logs to carry the execution id")
	}
	if !strings.Contains(buf.String(), "Execution finished") {
		t.Fatal("expected an execution summary log")
	}
}
