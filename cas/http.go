package cas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/rulekit/digest"
	apperrors "github.com/kbukum/rulekit/errors"
	"github.com/kbukum/rulekit/observability"
	"github.com/kbukum/rulekit/resilience"
)

// BlobPath is the route prefix served by cas/server.
const BlobPath = "/v1/blobs"

// PutResponse is the body returned for an accepted upload.
type PutResponse struct {
	Digest Digest `json:"digest"`
	Size   int    `json:"size"`
}

// HTTPStore is a Store backed by a remote cache server.
type HTTPStore struct {
	baseURL string
	client  *http.Client
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// HTTPOption configures an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithRetry retries requests that fail transiently. Without it every
// request is attempted once.
func WithRetry(cfg resilience.RetryConfig) HTTPOption {
	return func(s *HTTPStore) { s.retry = cfg }
}

// WithCircuitBreaker rejects requests with a ServiceUnavailable error while
// cb is open.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) HTTPOption {
	return func(s *HTTPStore) { s.breaker = cb }
}

// NewHTTPStore returns a client for the cache server at baseURL.
// A zero timeout means no per-request deadline beyond the context.
func NewHTTPStore(baseURL string, timeout time.Duration, opts ...HTTPOption) (*HTTPStore, error) {
	if baseURL == "" {
		return nil, errors.New("cas: http store requires a base URL")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("cas: base URL %q must use http or https", baseURL)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	s := &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Transport: transport, Timeout: timeout},
		retry:   resilience.RetryConfig{MaxAttempts: 1},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *HTTPStore) Put(ctx context.Context, data []byte) (Digest, error) {
	resp, body, err := s.do(ctx, http.MethodPut, BlobPath, data, "application/octet-stream")
	if err != nil {
		return Digest{}, err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return Digest{}, classify(resp.StatusCode, body)
	}

	var out PutResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Digest{}, fmt.Errorf("decode put response: %w", err)
	}
	if want := digest.Of(data); out.Digest != want {
		return Digest{}, fmt.Errorf("%w: server stored %s, expected %s", ErrDigestMismatch, out.Digest.Short(), want.Short())
	}
	return out.Digest, nil
}

func (s *HTTPStore) Get(ctx context.Context, d Digest) ([]byte, error) {
	resp, body, err := s.do(ctx, http.MethodGet, blobURL(d), nil, "")
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, classify(resp.StatusCode, body)
	}
	if err := verify(d, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *HTTPStore) Contains(ctx context.Context, d Digest) (bool, error) {
	resp, body, err := s.do(ctx, http.MethodHead, blobURL(d), nil, "")
	if err != nil {
		return false, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, classify(resp.StatusCode, body)
	}
}

func (s *HTTPStore) Delete(ctx context.Context, d Digest) error {
	resp, body, err := s.do(ctx, http.MethodDelete, blobURL(d), nil, "")
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return classify(resp.StatusCode, body)
	}
}

// CheckHealth implements observability.HealthChecker by probing /healthz.
func (s *HTTPStore) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{
		Name:    "cache.http",
		Details: map[string]string{"url": s.baseURL},
	}
	resp, _, err := s.send(ctx, http.MethodGet, "/healthz", nil, "")
	switch {
	case err != nil:
		h.Status, h.Message = observability.HealthStatusDown, err.Error()
	case resp.StatusCode != http.StatusOK:
		h.Status, h.Message = observability.HealthStatusDegraded, resp.Status
	default:
		h.Status = observability.HealthStatusUp
	}
	return h
}

func blobURL(d Digest) string {
	return BlobPath + "/" + d.String()
}

// response is a fully read HTTP response.
type response struct {
	*http.Response
	body []byte
}

// do sends one logical request, retrying transient failures and 502/503/504
// responses through the configured breaker.
func (s *HTTPStore) do(ctx context.Context, method, path string, payload []byte, contentType string) (*http.Response, []byte, error) {
	attempt := func() (response, error) {
		resp, body, err := s.send(ctx, method, path, payload, contentType)
		if err != nil {
			return response{}, err
		}
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return response{}, classify(resp.StatusCode, body)
		}
		return response{resp, body}, nil
	}

	var out response
	call := func() error {
		var err error
		out, err = resilience.Retry(ctx, s.retry, attempt)
		return err
	}

	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(call)
	} else {
		err = call()
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, nil, apperrors.ServiceUnavailable("cache").WithCause(err)
	}
	if err != nil {
		return nil, nil, err
	}
	return out.Response, out.body, nil
}

func (s *HTTPStore) send(ctx context.Context, method, path string, payload []byte, contentType string) (*http.Response, []byte, error) {
	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, apperrors.Timeout("cache " + strings.ToLower(method)).WithCause(err)
		}
		return nil, nil, apperrors.ServiceUnavailable("cache").WithCause(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, apperrors.ServiceUnavailable("cache").WithCause(fmt.Errorf("read response body: %w", err))
	}
	return resp, body, nil
}

// classify turns an error response into an *apperrors.AppError, keeping the
// server's code when the body carries one.
func classify(status int, body []byte) error {
	var er apperrors.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Code != "" {
		appErr := apperrors.New(er.Error.Code, er.Error.Message, status)
		appErr.Retryable = er.Error.Retryable
		appErr.Details = er.Error.Details
		if er.Error.Code == apperrors.ErrCodeDigestMismatch {
			return fmt.Errorf("%w: %w", ErrDigestMismatch, appErr)
		}
		return appErr
	}
	if status >= 500 {
		return apperrors.ServiceUnavailable("cache").WithDetail("status", status)
	}
	return apperrors.New(apperrors.ErrCodeInternal, fmt.Sprintf("unexpected cache response: %d", status), status)
}

// ActionPath is the route prefix for action cache entries.
const ActionPath = "/v1/actions"

// ActionResponse is the body of an action cache entry.
type ActionResponse struct {
	Result Digest `json:"result"`
}

func (s *HTTPStore) GetAction(ctx context.Context, key Digest) (Digest, error) {
	resp, body, err := s.do(ctx, http.MethodGet, ActionPath+"/"+key.String(), nil, "")
	if err != nil {
		return Digest{}, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Digest{}, ErrNotFound
	default:
		return Digest{}, classify(resp.StatusCode, body)
	}
	var out ActionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Digest{}, fmt.Errorf("decode action response: %w", err)
	}
	return out.Result, nil
}

func (s *HTTPStore) PutAction(ctx context.Context, key, result Digest) error {
	payload, err := json.Marshal(ActionResponse{Result: result})
	if err != nil {
		return err
	}
	resp, body, err := s.do(ctx, http.MethodPut, ActionPath+"/"+key.String(), payload, "application/json")
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return classify(resp.StatusCode, body)
	}
	return nil
}
