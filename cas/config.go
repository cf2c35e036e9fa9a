package cas

import (
	"fmt"
	"slices"
	"time"

	"github.com/kbukum/rulekit/encryption"
	"github.com/kbukum/rulekit/logger"
	"github.com/kbukum/rulekit/observability"
	"github.com/kbukum/rulekit/resilience"
)

// Backend names accepted in Config.Backend.
const (
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendHTTP   = "http"
)

// Config selects and configures the cache backend.
type Config struct {
	Backend       string        `yaml:"backend" mapstructure:"backend"`
	Dir           string        `yaml:"dir" mapstructure:"dir"`
	Compression   string        `yaml:"compression" mapstructure:"compression"`
	EncryptionKey string        `yaml:"encryption_key" mapstructure:"encryption_key"`
	Cipher        string        `yaml:"cipher" mapstructure:"cipher"`
	LockTimeout   time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
	RemoteURL     string        `yaml:"remote_url" mapstructure:"remote_url"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Retry and Breaker apply to the http backend. A zero
	// Breaker.MaxFailures leaves the breaker off.
	Retry   resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	Breaker resilience.CircuitBreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// ApplyDefaults applies default values to cache configuration.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Compression == "" {
		c.Compression = CompressionZstd.String()
	}
	if c.Cipher == "" {
		c.Cipher = string(encryption.AlgorithmChaCha20)
	}
	if c.LockTimeout == 0 {
		c.LockTimeout = 5 * time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	c.Retry.ApplyDefaults()
}

// Validate validates cache configuration.
func (c *Config) Validate() error {
	backends := []string{BackendMemory, BackendDisk, BackendHTTP}
	if !slices.Contains(backends, c.Backend) {
		return fmt.Errorf("cache.backend must be one of %v (got: %s)", backends, c.Backend)
	}
	if _, err := ParseCompression(c.Compression); err != nil {
		return fmt.Errorf("cache.compression: %w", err)
	}
	ciphers := []string{string(encryption.AlgorithmAESGCM), string(encryption.AlgorithmChaCha20)}
	if c.Cipher != "" && !slices.Contains(ciphers, c.Cipher) {
		return fmt.Errorf("cache.cipher must be one of %v (got: %s)", ciphers, c.Cipher)
	}
	switch c.Backend {
	case BackendDisk:
		if c.Dir == "" {
			return fmt.Errorf("cache.dir is required for the disk backend")
		}
	case BackendHTTP:
		if c.RemoteURL == "" {
			return fmt.Errorf("cache.remote_url is required for the http backend")
		}
	}
	if c.LockTimeout < 0 || c.Timeout < 0 {
		return fmt.Errorf("cache timeouts must be non-negative")
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		return fmt.Errorf("cache.retry.jitter must be within [0, 1] (got: %v)", c.Retry.Jitter)
	}
	if c.Breaker.MaxFailures < 0 {
		return fmt.Errorf("cache.breaker.max_failures must be non-negative (got: %d)", c.Breaker.MaxFailures)
	}
	return nil
}

// New builds the configured backend. When log is non-nil the backend is
// wrapped in an InstrumentedStore; metrics may be nil.
func New(cfg Config, log *logger.Logger, metrics *observability.Metrics) (Backend, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case BackendMemory:
		backend = NewMemoryStore()
	case BackendDisk:
		backend, err = newDiskFromConfig(cfg)
	case BackendHTTP:
		backend, err = NewHTTPStore(cfg.RemoteURL, cfg.Timeout, httpOptions(cfg, log)...)
	}
	if err != nil {
		return nil, err
	}

	if log == nil {
		return backend, nil
	}
	log.Info("cache backend ready", logger.Fields(
		logger.FieldBackend, cfg.Backend,
		"compression", cfg.Compression,
		"sealed", cfg.EncryptionKey != "",
	))
	return Instrument(backend, cfg.Backend, log, metrics), nil
}

func newDiskFromConfig(cfg Config) (*DiskStore, error) {
	compression, err := ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	opts := DiskOptions{Compression: compression, LockTimeout: cfg.LockTimeout}
	if cfg.EncryptionKey != "" {
		opts.Sealer, err = encryption.New(cfg.EncryptionKey, encryption.WithAlgorithm(encryption.Algorithm(cfg.Cipher)))
		if err != nil {
			return nil, fmt.Errorf("cache encryption: %w", err)
		}
	}
	return NewDiskStore(cfg.Dir, opts)
}

func httpOptions(cfg Config, log *logger.Logger) []HTTPOption {
	opts := []HTTPOption{WithRetry(cfg.Retry)}
	if cfg.Breaker.MaxFailures == 0 {
		return opts
	}
	breaker := cfg.Breaker
	breaker.Name = "cache.http"
	if log != nil {
		breaker.OnStateChange = func(name string, from, to resilience.State) {
			log.Warn("Circuit breaker state changed", logger.Fields(
				"breaker", name, "from", from.String(), "to", to.String(),
			))
		}
	}
	return append(opts, WithCircuitBreaker(resilience.NewCircuitBreaker(breaker)))
}
