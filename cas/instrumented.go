package cas

import (
	"context"
	"errors"
	"time"

	"github.com/kbukum/rulekit/logger"
	"github.com/kbukum/rulekit/observability"
)

// InstrumentedStore decorates a Backend with logging, tracing and metrics.
// A nil metrics value disables metric recording.
type InstrumentedStore struct {
	inner   Backend
	name    string
	log     *logger.Logger
	metrics *observability.Metrics
}

// Instrument wraps inner. name labels log lines and metrics, e.g. "disk".
func Instrument(inner Backend, name string, log *logger.Logger, metrics *observability.Metrics) *InstrumentedStore {
	return &InstrumentedStore{
		inner:   inner,
		name:    name,
		log:     log.WithComponent("cas." + name),
		metrics: metrics,
	}
}

// Unwrap returns the decorated backend.
func (s *InstrumentedStore) Unwrap() Backend { return s.inner }

func (s *InstrumentedStore) Put(ctx context.Context, data []byte) (Digest, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanCachePut)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrBackend, s.name)

	start := time.Now()
	d, err := s.inner.Put(ctx, data)
	if err != nil {
		s.fail(ctx, "put", err)
		return d, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrDigest, d.String())
	if s.metrics != nil {
		s.metrics.RecordCacheBytes(ctx, s.name, "in", len(data))
	}
	s.log.Debug("blob stored", logger.Fields(
		logger.FieldDigest, d.Short(),
		"size", len(data),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return d, nil
}

func (s *InstrumentedStore) Get(ctx context.Context, d Digest) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanCacheGet)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrBackend, s.name)
	observability.SetSpanAttribute(ctx, observability.AttrDigest, d.String())

	data, err := s.inner.Get(ctx, d)
	hit := err == nil
	observability.SetSpanAttribute(ctx, observability.AttrCacheHit, hit)
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(ctx, s.name, hit)
		if hit {
			s.metrics.RecordCacheBytes(ctx, s.name, "out", len(data))
		}
	}
	switch {
	case hit:
	case errors.Is(err, ErrNotFound):
		s.log.Debug("blob not found", logger.Fields(logger.FieldDigest, d.Short()))
	default:
		s.fail(ctx, "get", err)
	}
	return data, err
}

func (s *InstrumentedStore) Contains(ctx context.Context, d Digest) (bool, error) {
	ok, err := s.inner.Contains(ctx, d)
	if err != nil {
		s.fail(ctx, "contains", err)
	}
	return ok, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, d Digest) error {
	err := s.inner.Delete(ctx, d)
	if err != nil {
		s.fail(ctx, "delete", err)
		return err
	}
	s.log.Debug("blob deleted", logger.Fields(logger.FieldDigest, d.Short()))
	return nil
}

func (s *InstrumentedStore) GetAction(ctx context.Context, key Digest) (Digest, error) {
	result, err := s.inner.GetAction(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.fail(ctx, "get_action", err)
	}
	return result, err
}

func (s *InstrumentedStore) PutAction(ctx context.Context, key, result Digest) error {
	err := s.inner.PutAction(ctx, key, result)
	if err != nil {
		s.fail(ctx, "put_action", err)
	}
	return err
}

// CheckHealth forwards to the decorated backend when it reports health.
func (s *InstrumentedStore) CheckHealth(ctx context.Context) observability.Health {
	if hc, ok := s.inner.(observability.HealthChecker); ok {
		return hc.CheckHealth(ctx)
	}
	return observability.Health{Name: "cache." + s.name, Status: observability.HealthStatusUp}
}

func (s *InstrumentedStore) fail(ctx context.Context, op string, err error) {
	observability.SetSpanError(ctx, err)
	if s.metrics != nil {
		s.metrics.RecordError(ctx, op, "cas."+s.name)
	}
	s.log.WithError(err).Warn("cache operation failed", logger.Fields(logger.FieldOperation, op))
}
