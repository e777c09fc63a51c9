// Package httpclient is the outbound HTTP transport used to deliver progress
// notifications.
//
// It resolves request paths against a base URL, JSON-encodes bodies,
// propagates the active trace context into request headers, and classifies
// non-2xx responses into typed *Error values.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:3000",
//	    Timeout: 10 * time.Second,
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/api/progress",
//	    Body:   payload,
//	})
package httpclient
