// Package resilience guards calls to a remote cache.
//
// Retry repeats a call that failed transiently, with exponential backoff.
// CircuitBreaker fails fast once a remote has failed repeatedly, so a build
// falls back to running nodes instead of waiting on a dead cache:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("cache.http"))
//	err := cb.Execute(func() error {
//	    return resilience.RetryFunc(ctx, resilience.DefaultRetryConfig(), call)
//	})
//
// Both classify failures with IsTransient: only errors marked retryable by
// the errors package, or network failures, count.
package resilience
