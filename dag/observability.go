package dag

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/rulekit/logger"
	"github.com/kbukum/rulekit/observability"
	"github.com/kbukum/rulekit/provider"
)

// WithTracing wraps a Node with OpenTelemetry span creation.
// Each execution creates a "dag.node" span tagged with the node name.
func WithTracing(node Node) Node {
	return &tracingNode{inner: node}
}

type tracingNode struct {
	inner Node
}

func (n *tracingNode) Name() string { return n.inner.Name() }
func (n *tracingNode) Unwrap() Node { return n.inner }

func (n *tracingNode) Run(ctx context.Context, in *Inputs) (*provider.Map, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanNodeRun,
		trace.WithAttributes(attribute.String(observability.AttrNode, n.inner.Name())))
	defer span.End()

	out, err := n.inner.Run(ctx, in)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return out, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrProviders, out.Count())
	return out, nil
}

// WithMetrics wraps a Node with metric recording: run count and duration
// by status, plus an error count on failure.
func WithMetrics(node Node, metrics *observability.Metrics) Node {
	return &metricsNode{inner: node, metrics: metrics}
}

type metricsNode struct {
	inner   Node
	metrics *observability.Metrics
}

func (n *metricsNode) Name() string { return n.inner.Name() }
func (n *metricsNode) Unwrap() Node { return n.inner }

func (n *metricsNode) Run(ctx context.Context, in *Inputs) (*provider.Map, error) {
	start := time.Now()
	out, err := n.inner.Run(ctx, in)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		n.metrics.RecordError(ctx, "node_run", n.inner.Name())
	}
	n.metrics.RecordNode(ctx, n.inner.Name(), status, duration)

	return out, err
}

// WithLogging wraps a Node with execution logging.
func WithLogging(node Node, log *logger.Logger) Node {
	return &loggingNode{inner: node, log: log.WithComponent("dag")}
}

type loggingNode struct {
	inner Node
	log   *logger.Logger
}

func (n *loggingNode) Name() string { return n.inner.Name() }
func (n *loggingNode) Unwrap() Node { return n.inner }

func (n *loggingNode) Run(ctx context.Context, in *Inputs) (*provider.Map, error) {
	start := time.Now()
	out, err := n.inner.Run(ctx, in)
	duration := time.Since(start)

	fields := logger.Fields(
		logger.FieldNode, n.inner.Name(),
		logger.FieldDuration, duration.Milliseconds(),
		"inputs", in.Len(),
	)

	l := n.log.WithContext(ctx)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		l.Error("Node failed", fields)
	} else {
		fields[logger.FieldProviders] = out.Count()
		l.Debug("Node completed", fields)
	}

	return out, err
}

// Instrument applies logging, tracing and metrics wrappers to node. A nil
// log or metrics skips that wrapper.
func Instrument(node Node, log *logger.Logger, metrics *observability.Metrics) Node {
	if metrics != nil {
		node = WithMetrics(node, metrics)
	}
	node = WithTracing(node)
	if log != nil {
		node = WithLogging(node, log)
	}
	return node
}
