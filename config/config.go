package config

import (
	"fmt"

	"github.com/kbukum/rulekit/cas"
	"github.com/kbukum/rulekit/cas/server"
	"github.com/kbukum/rulekit/dag"
	"github.com/kbukum/rulekit/logger"
	"github.com/kbukum/rulekit/observability"
	"github.com/kbukum/rulekit/validation"
)

// Config is the configuration shared by the rulekit commands.
type Config struct {
	Base    BaseConfig                 `yaml:"base" mapstructure:"base"`
	Logging logger.Config              `yaml:"logging" mapstructure:"logging"`
	Cache   cas.Config                 `yaml:"cache" mapstructure:"cache"`
	Engine  dag.EngineConfig           `yaml:"engine" mapstructure:"engine"`
	Server  server.Config              `yaml:"server" mapstructure:"server"`
	Tracing observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
}

// ApplyDefaults fills unset fields of every section.
func (c *Config) ApplyDefaults(serviceName string) {
	c.Base.ApplyDefaults(serviceName)
	if c.Base.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
	c.Cache.ApplyDefaults()
	c.Engine.ApplyDefaults()
	c.Server.ApplyDefaults()
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = c.Base.Version
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Base.Environment
	}
	c.Tracing.ApplyDefaults(c.Base.Name)
}

// Validate checks struct tags, then each section's own rules.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	sections := []struct {
		name string
		fn   func() error
	}{
		{"logging", c.Logging.Validate},
		{"cache", c.Cache.Validate},
		{"engine", c.Engine.Validate},
		{"server", c.Server.Validate},
		{"tracing", c.Tracing.Validate},
	}
	v := validation.New()
	for _, s := range sections {
		if err := s.fn(); err != nil {
			v.AddError(s.name, err.Error())
		}
	}
	return v.Err()
}

// Load reads configuration for serviceName, applies defaults and validates.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults(serviceName)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
