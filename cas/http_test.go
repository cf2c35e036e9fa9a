package cas

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/rulekit/digest"
	apperrors "github.com/kbukum/rulekit/errors"
	"github.com/kbukum/rulekit/resilience"
)

// flakyServer serves data for any blob GET after failing the first n
// requests with 503.
func flakyServer(t *testing.T, n int32, data []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= n {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestHTTPStore_RetriesUnavailable(t *testing.T) {
	data := []byte("object file")
	srv, calls := flakyServer(t, 2, data)

	store, err := NewHTTPStore(srv.URL, time.Second, WithRetry(fastRetry(3)))
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(t.Context(), digest.Of(data))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(data) || calls.Load() != 3 {
		t.Errorf("got %q after %d calls", got, calls.Load())
	}
}

func TestHTTPStore_NoRetryByDefault(t *testing.T) {
	srv, calls := flakyServer(t, 1, []byte("x"))

	store, err := NewHTTPStore(srv.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	_, err = store.Get(t.Context(), digest.Of([]byte("x")))
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeServiceUnavailable {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", calls.Load())
	}
}

func TestHTTPStore_MissIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store, _ := NewHTTPStore(srv.URL, time.Second, WithRetry(fastRetry(5)))
	if _, err := store.Get(t.Context(), digest.Of([]byte("absent"))); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("a miss must not be retried, got %d calls", calls.Load())
	}
}

func TestHTTPStore_CircuitBreakerOpens(t *testing.T) {
	srv, calls := flakyServer(t, 1000, nil)
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "test", MaxFailures: 2, Timeout: time.Hour})

	store, _ := NewHTTPStore(srv.URL, time.Second, WithRetry(fastRetry(2)), WithCircuitBreaker(cb))
	d := digest.Of([]byte("blob"))
	for range 2 {
		if _, err := store.Get(t.Context(), d); err == nil {
			t.Fatal("expected failure")
		}
	}
	if cb.State() != resilience.StateOpen {
		t.Fatalf("expected open breaker, got %s", cb.State())
	}

	before := calls.Load()
	_, err := store.Get(t.Context(), d)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeServiceUnavailable {
		t.Errorf("open circuit should surface as SERVICE_UNAVAILABLE, got %v", err)
	}
	if calls.Load() != before {
		t.Errorf("open circuit must not reach the server")
	}
}

func TestHTTPStore_HealthProbeBypassesRetry(t *testing.T) {
	srv, calls := flakyServer(t, 1000, nil)
	store, _ := NewHTTPStore(srv.URL, time.Second, WithRetry(fastRetry(4)))

	h := store.CheckHealth(t.Context())
	if h.Status == "" || calls.Load() != 1 {
		t.Errorf("health = %+v after %d calls", h, calls.Load())
	}
}
