package config

import (
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/observability"
	"github.com/kbukum/pipekit/progress"
	"github.com/kbukum/pipekit/validation"
)

// DefaultManifest is the manifest path used when none is configured.
const DefaultManifest = "pipeline/manifest.yml"

var environments = []string{"development", "staging", "production", "ci"}

// Config is the complete pipekit configuration.
type Config struct {
	Name        string               `yaml:"name" mapstructure:"name"`
	Environment string               `yaml:"environment" mapstructure:"environment"`
	Manifest    string               `yaml:"manifest" mapstructure:"manifest" validate:"required"`
	Logging     logger.Config        `yaml:"logging" mapstructure:"logging"`
	Progress    progress.Config      `yaml:"progress" mapstructure:"progress"`
	Tracing     observability.Config `yaml:"tracing" mapstructure:"tracing"`
}

// ApplyDefaults fills in zero-value fields of c and its sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "pipekit"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}
	c.Logging.ApplyDefaults()
	c.Progress.ApplyDefaults()
	c.Tracing.ApplyDefaults()
}

// Validate checks c after defaults have been applied.
func (c *Config) Validate() error {
	v := validation.New()
	v.Required("name", c.Name)
	v.OneOf("environment", c.Environment, environments)
	v.Merge("logging", c.Logging.Validate())
	v.Merge("config", validation.Validate(c))
	return v.Validate()
}
