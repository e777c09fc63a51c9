package progress

import (
	"context"
	"net/http"

	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/httpclient"
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/resilience"
)

// Notifier sends lifecycle events to the progress endpoint.
type Notifier struct {
	cfg     Config
	client  *httpclient.Client
	log     *logger.Logger
	retry   resilience.RetryPolicy
	breaker *resilience.Breaker
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger used for delivery warnings.
func WithLogger(l *logger.Logger) Option {
	return func(n *Notifier) { n.log = l }
}

// New creates a notifier. With an empty BaseURL the notifier is disabled and
// no HTTP client is created.
func New(cfg Config, opts ...Option) (*Notifier, error) {
	cfg.ApplyDefaults()
	n := &Notifier{cfg: cfg}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = logger.WithComponent("progress")
	}
	if !cfg.Enabled() {
		return n, nil
	}

	client, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, errors.InvalidConfig("progress: " + err.Error()).WithCause(err)
	}
	n.client = client
	n.retry = resilience.RetryPolicy{
		Attempts: cfg.Attempts,
		Backoff:  cfg.RetryBackoff,
		RetryIf:  httpclient.IsRetryable,
	}
	n.breaker = resilience.NewBreaker(resilience.BreakerConfig{
		Threshold: cfg.BreakerThreshold,
		Cooldown:  cfg.BreakerCooldown,
		OnStateChange: func(from, to resilience.State) {
			n.log.Warn("progress breaker "+to.String(), logger.Fields("from", from.String()))
		},
	})
	return n, nil
}

// Enabled reports whether events leave the process.
func (n *Notifier) Enabled() bool {
	return n != nil && n.client != nil
}

// Notify reports an event. Failures are logged and swallowed.
func (n *Notifier) Notify(ctx context.Context, step string, status Status, meta Meta) {
	if err := n.Deliver(ctx, step, status, meta); err != nil {
		n.log.Warn("progress notification failed", logger.Fields(
			logger.FieldStep, step,
			logger.FieldStatus, string(status),
			logger.FieldError, err.Error(),
		))
	}
}

// Deliver sends an event and returns the delivery error, for callers that
// want to observe failures. It returns nil when the notifier is disabled.
func (n *Notifier) Deliver(ctx context.Context, step string, status Status, meta Meta) error {
	if !n.Enabled() {
		return nil
	}
	if meta == nil {
		meta = Meta{}
	}

	req := httpclient.Request{
		Method:  http.MethodPost,
		Path:    n.cfg.Path,
		Headers: map[string]string{n.cfg.CorrelationHeader: meta.CorrelationID()},
		Body:    Event{Step: step, Status: status, Meta: meta},
	}
	err := n.breaker.Execute(func() error {
		return resilience.Retry(ctx, n.retry, func(ctx context.Context) error {
			_, err := n.client.Do(ctx, req)
			return err
		})
	})
	if err != nil {
		return errors.NotifyFailed(step, string(status), err)
	}
	n.log.Debug("progress notification sent", logger.Fields(
		logger.FieldStep, step,
		logger.FieldStatus, string(status),
	))
	return nil
}
