package progress_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/progress"
	"github.com/kbukum/pipekit/progress/progresstest"
)

func newNotifier(t *testing.T, cfg progress.Config, buf *bytes.Buffer) *progress.Notifier {
	t.Helper()
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "pipekit", buf)
	n, err := progress.New(cfg, progress.WithLogger(log))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return n
}

func TestNotify_PostsEvent(t *testing.T) {
	srv := progresstest.NewServer(progress.DefaultPath)
	defer srv.Close()

	var buf bytes.Buffer
	n := newNotifier(t, progress.Config{BaseURL: srv.URL}, &buf)
	n.Notify(context.Background(), "alpha", progress.StatusStart, progress.Meta{
		"correlationId": "run-42",
		"step":          map[string]any{"name": "alpha"},
	})

	events := srv.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Step != "alpha" || ev.Status != progress.StatusStart {
		t.Errorf("unexpected event %+v", ev.Event)
	}
	if ev.CorrelationID != "run-42" {
		t.Errorf("correlation header = %q, want run-42", ev.CorrelationID)
	}
	want := map[string]any{"name": "alpha"}
	if diff := cmp.Diff(want, ev.Meta["step"]); diff != "" {
		t.Errorf("meta mismatch (-want +got):\n%s", diff)
	}
}

func TestNotify_EmptyCorrelationID(t *testing.T) {
	srv := progresstest.NewServer(progress.DefaultPath)
	defer srv.Close()

	var buf bytes.Buffer
	n := newNotifier(t, progress.Config{BaseURL: srv.URL}, &buf)
	n.Notify(context.Background(), "manifest", progress.StatusLoaded, nil)
	n.Notify(context.Background(), "manifest", progress.StatusOK, progress.Meta{"correlationId": 7})

	for _, ev := range srv.Events() {
		if ev.CorrelationID != "" {
			t.Errorf("expected empty correlation id, got %q", ev.CorrelationID)
		}
		if ev.Meta == nil {
			t.Error("meta must always be an object")
		}
	}
}

func TestNotify_CustomPath(t *testing.T) {
	srv := progresstest.NewServer("/hooks/progress")
	defer srv.Close()

	var buf bytes.Buffer
	n := newNotifier(t, progress.Config{BaseURL: srv.URL, Path: "/hooks/progress"}, &buf)
	n.Notify(context.Background(), "alpha", progress.StatusOK, nil)

	if diff := cmp.Diff([]string{"alpha:ok"}, srv.Trail()); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}
}

func TestNotify_DisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	n := newNotifier(t, progress.Config{}, &buf)
	if n.Enabled() {
		t.Fatal("notifier without base URL must be disabled")
	}
	n.Notify(context.Background(), "alpha", progress.StatusStart, nil)
	if err := n.Deliver(context.Background(), "alpha", progress.StatusStart, nil); err != nil {
		t.Errorf("disabled Deliver should succeed, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("disabled notifier should not log, got %q", buf.String())
	}
}

func TestNotify_ServerErrorIsSwallowed(t *testing.T) {
	srv := progresstest.NewServer(progress.DefaultPath)
	defer srv.Close()
	srv.RespondWith(http.StatusInternalServerError)

	var buf bytes.Buffer
	n := newNotifier(t, progress.Config{BaseURL: srv.URL}, &buf)
	n.Notify(context.Background(), "alpha", progress.StatusOK, nil)

	if !strings.Contains(buf.String(), "progress notification failed") {
		t.Errorf("expected warning log, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("expected warn level, got %q", buf.String())
	}

	err := n.Deliver(context.Background(), "alpha", progress.StatusOK, nil)
	if !errors.IsCode(err, errors.ErrCodeNotifyFailed) {
		t.Errorf("expected NOTIFY_FAILED from Deliver, got %v", err)
	}
}

func TestNotify_ConnectionFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var buf bytes.Buffer
	n := newNotifier(t, progress.Config{BaseURL: url}, &buf)
	// Must return normally.
	n.Notify(context.Background(), "alpha", progress.StatusStart, nil)

	if !strings.Contains(buf.String(), "progress notification failed") {
		t.Errorf("expected warning log, got %q", buf.String())
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := progress.Config{}
	cfg.ApplyDefaults()
	if cfg.Path != progress.DefaultPath {
		t.Errorf("path = %q", cfg.Path)
	}
	if cfg.Timeout != progress.DefaultTimeout {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
	if cfg.CorrelationHeader != progress.DefaultCorrelationHeader {
		t.Errorf("header = %q", cfg.CorrelationHeader)
	}
	if cfg.Attempts != 1 || cfg.BreakerThreshold != 0 {
		t.Errorf("expected a single attempt without breaker, got %d/%d", cfg.Attempts, cfg.BreakerThreshold)
	}
	if cfg.Enabled() {
		t.Error("expected disabled without base URL")
	}
}

func TestMeta_CorrelationID(t *testing.T) {
	if got := (progress.Meta{"correlationId": "x"}).CorrelationID(); got != "x" {
		t.Errorf("got %q", got)
	}
	if got := (progress.Meta{}).CorrelationID(); got != "" {
		t.Errorf("got %q", got)
	}
	var nilMeta progress.Meta
	if got := nilMeta.CorrelationID(); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestDeliver_RetriesServerErrors(t *testing.T) {
	srv := progresstest.NewServer(progress.DefaultPath)
	defer srv.Close()
	srv.FailNext(2, http.StatusBadGateway)

	var buf bytes.Buffer
	n := newNotifier(t, progress.Config{BaseURL: srv.URL, Attempts: 3, RetryBackoff: time.Millisecond}, &buf)
	if err := n.Deliver(context.Background(), "alpha", progress.StatusOK, nil); err != nil {
		t.Fatalf("expected delivery after retries, got %v", err)
	}
	if got := len(srv.Events()); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestDeliver_DoesNotRetryClientErrors(t *testing.T) {
	srv := progresstest.NewServer(progress.DefaultPath)
	defer srv.Close()
	srv.RespondWith(http.StatusBadRequest)

	var buf bytes.Buffer
	n := newNotifier(t, progress.Config{BaseURL: srv.URL, Attempts: 3, RetryBackoff: time.Millisecond}, &buf)
	err := n.Deliver(context.Background(), "alpha", progress.StatusOK, nil)
	if !errors.IsCode(err, errors.ErrCodeNotifyFailed) {
		t.Fatalf("expected NOTIFY_FAILED, got %v", err)
	}
	if got := len(srv.Events()); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
}

func TestNotify_BreakerSkipsDeadEndpoint(t *testing.T) {
	srv := progresstest.NewServer(progress.DefaultPath)
	defer srv.Close()
	srv.RespondWith(http.StatusServiceUnavailable)

	var buf bytes.Buffer
	n := newNotifier(t, progress.Config{BaseURL: srv.URL, BreakerThreshold: 2, BreakerCooldown: time.Hour}, &buf)
	for i := 0; i < 5; i++ {
		n.Notify(context.Background(), "alpha", progress.StatusStart, nil)
	}

	if got := len(srv.Events()); got != 2 {
		t.Errorf("expected delivery to stop after 2 failures, got %d requests", got)
	}
	if !strings.Contains(buf.String(), "progress breaker open") {
		t.Errorf("expected breaker log, got %q", buf.String())
	}
}
