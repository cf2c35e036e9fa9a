package dag

import "fmt"

// EngineConfig configures the Engine built by applications.
type EngineConfig struct {
	MaxParallel  int    `yaml:"max_parallel" mapstructure:"max_parallel"`
	FailFast     bool   `yaml:"fail_fast" mapstructure:"fail_fast"`
	PipelinesDir string `yaml:"pipelines_dir" mapstructure:"pipelines_dir"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *EngineConfig) ApplyDefaults() {
	if c.PipelinesDir == "" {
		c.PipelinesDir = "pipelines"
	}
}

// Validate checks the configuration for invalid values.
func (c *EngineConfig) Validate() error {
	if c.MaxParallel < 0 {
		return fmt.Errorf("engine.max_parallel must be non-negative (got: %d)", c.MaxParallel)
	}
	return nil
}
