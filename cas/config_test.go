package cas

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/rulekit/logger"
	"github.com/kbukum/rulekit/resilience"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Backend != BackendMemory {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.Compression != "zstd" {
		t.Errorf("Compression = %q", cfg.Compression)
	}
	if cfg.Cipher != "chacha20-poly1305" {
		t.Errorf("Cipher = %q", cfg.Cipher)
	}
	if cfg.LockTimeout != 5*time.Second || cfg.Timeout != 30*time.Second {
		t.Errorf("timeouts = %v, %v", cfg.LockTimeout, cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Breaker.MaxFailures != 0 {
		t.Errorf("retry = %+v, breaker = %+v", cfg.Retry, cfg.Breaker)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		errMsg string
	}{
		{"memory", Config{Backend: "memory"}, ""},
		{"disk", Config{Backend: "disk", Dir: "/tmp/cache", Compression: "lz4"}, ""},
		{"http", Config{Backend: "http", RemoteURL: "http://cache:8080"}, ""},
		{"unknown backend", Config{Backend: "s3"}, "cache.backend"},
		{"disk without dir", Config{Backend: "disk"}, "cache.dir"},
		{"http without url", Config{Backend: "http"}, "cache.remote_url"},
		{"bad compression", Config{Backend: "memory", Compression: "brotli"}, "cache.compression"},
		{"bad cipher", Config{Backend: "memory", Cipher: "des"}, "cache.cipher"},
		{"negative timeout", Config{Backend: "memory", Timeout: -time.Second}, "non-negative"},
		{"bad jitter", Config{Backend: "memory", Retry: resilience.RetryConfig{Jitter: 2}}, "cache.retry.jitter"},
		{"negative breaker", Config{Backend: "memory", Breaker: resilience.CircuitBreakerConfig{MaxFailures: -1}}, "cache.breaker"},
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

func TestNew(t *testing.T) {
	t.Run("memory without logger is bare", func(t *testing.T) {
		b, err := New(Config{}, nil, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, ok := b.(*MemoryStore); !ok {
			t.Fatalf("expected *MemoryStore, got %T", b)
		}
	})

	t.Run("disk with logger is instrumented", func(t *testing.T) {
		cfg := Config{Backend: BackendDisk, Dir: t.TempDir(), EncryptionKey: "secret"}
		b, err := New(cfg, logger.Nop(), nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		inst, ok := b.(*InstrumentedStore)
		if !ok {
			t.Fatalf("expected *InstrumentedStore, got %T", b)
		}
		disk, ok := inst.Unwrap().(*DiskStore)
		if !ok {
			t.Fatalf("expected *DiskStore inside, got %T", inst.Unwrap())
		}
		if disk.opts.Sealer == nil || disk.opts.Compression != CompressionZstd {
			t.Errorf("disk options not applied: %+v", disk.opts)
		}

		d, err := b.Put(context.Background(), []byte("through the factory"))
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if got, err := b.Get(context.Background(), d); err != nil || string(got) != "through the factory" {
			t.Fatalf("Get = %q, %v", got, err)
		}
	})

	t.Run("http", func(t *testing.T) {
		b, err := New(Config{Backend: BackendHTTP, RemoteURL: "http://localhost:1"}, nil, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, ok := b.(*HTTPStore); !ok {
			t.Fatalf("expected *HTTPStore, got %T", b)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		if _, err := New(Config{Backend: BackendDisk}, nil, nil); err == nil {
			t.Fatal("expected validation error")
		}
	})
}

func TestNewHTTPStore_RejectsBadURL(t *testing.T) {
	for _, url := range []string{"", "cache:8080", "ftp://cache"} {
		if _, err := NewHTTPStore(url, 0); err == nil {
			t.Errorf("NewHTTPStore(%q): expected error", url)
		}
	}
}
