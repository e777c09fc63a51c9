// Package progress reports pipeline lifecycle events to an external
// progress-tracking endpoint.
//
// Delivery is best-effort. Notify never returns an error: transport failures
// are logged at warn level and discarded. When no base URL is configured
// every call is a silent no-op. By default each event is attempted once;
// retries and a circuit breaker that skips a dead endpoint can be enabled
// through Config.
//
// Each event is POSTed to <base_url><path> as
//
//	{"step": "...", "status": "start|ok|error|loaded", "meta": {...}}
//
// with the correlation id taken from meta["correlationId"] in a request
// header.
package progress
