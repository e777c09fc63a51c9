package progress

import "time"

const (
	DefaultPath              = "/api/progress"
	DefaultTimeout           = 10 * time.Second
	DefaultCorrelationHeader = "X-Correlation-Id"
	DefaultRetryBackoff      = 200 * time.Millisecond
	DefaultBreakerCooldown   = 30 * time.Second
)

// Config configures the progress notifier. An empty BaseURL disables it.
type Config struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	Path              string        `yaml:"path" mapstructure:"path"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CorrelationHeader string        `yaml:"correlation_header" mapstructure:"correlation_header"`

	// Attempts is the number of tries per event for timeouts, connection
	// failures and 5xx responses.
	Attempts     int           `yaml:"attempts" mapstructure:"attempts" validate:"gte=0,lte=10"`
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`

	// BreakerThreshold consecutive failed events stop delivery for
	// BreakerCooldown. Zero never stops.
	BreakerThreshold int           `yaml:"breaker_threshold" mapstructure:"breaker_threshold" validate:"gte=0"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown" mapstructure:"breaker_cooldown"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.CorrelationHeader == "" {
		c.CorrelationHeader = DefaultCorrelationHeader
	}
	if c.Attempts < 1 {
		c.Attempts = 1
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = DefaultBreakerCooldown
	}
}

// Enabled reports whether notifications will be sent.
func (c *Config) Enabled() bool {
	return c.BaseURL != ""
}
