// Package resilience guards calls to unreliable endpoints.
//
// Retry repeats a call with exponential backoff while its error is
// retryable. Breaker stops calling an endpoint after consecutive failures
// and lets a single probe through once a cooldown has passed.
//
//	br := resilience.NewBreaker(resilience.BreakerConfig{Threshold: 3, Cooldown: 30 * time.Second})
//	err := br.Execute(func() error {
//	    return resilience.Retry(ctx, policy, func(ctx context.Context) error {
//	        return send(ctx)
//	    })
//	})
package resilience
