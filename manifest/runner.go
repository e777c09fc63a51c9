package manifest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/observability"
	"github.com/kbukum/pipekit/progress"
)

// ManifestStep is the step name used for run-level events.
const ManifestStep = "manifest"

// Notifier receives lifecycle events. Implementations must not fail the
// run; *progress.Notifier swallows delivery errors.
type Notifier interface {
	Notify(ctx context.Context, step string, status progress.Status, meta progress.Meta)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, step string, status progress.Status, meta progress.Meta)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, step string, status progress.Status, meta progress.Meta) {
	f(ctx, step, status, meta)
}

// StepFunc executes the body of one step.
type StepFunc func(ctx context.Context, step Step) error

// State is the runner lifecycle position.
type State int

const (
	// StateIdle is a runner that has not started.
	StateIdle State = iota
	// StateManifestLoaded means the manifest parsed and no step has started.
	StateManifestLoaded
	// StateStepRunning means a step body is executing.
	StateStepRunning
	// StateStepDone means the last started step succeeded.
	StateStepDone
	// StateComplete means every step succeeded.
	StateComplete
	// StateFailed means the run stopped on an error.
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:           "idle",
	StateManifestLoaded: "manifest_loaded",
	StateStepRunning:    "step_running",
	StateStepDone:       "step_done",
	StateComplete:       "complete",
	StateFailed:         "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Runner executes one manifest. A Runner is single use.
type Runner struct {
	notifier      Notifier
	exec          StepFunc
	log           *logger.Logger
	metrics       *observability.StepMetrics
	correlationID string

	mu       sync.Mutex
	state    State
	started  bool
	manifest *Manifest
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor sets the step body. The default does nothing and succeeds.
func WithExecutor(fn StepFunc) Option {
	return func(r *Runner) { r.exec = fn }
}

// WithCorrelationID adds id under "correlationId" to every event's
// metadata.
func WithCorrelationID(id string) Option {
	return func(r *Runner) { r.correlationID = id }
}

// WithLogger sets the logger for console output.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMetrics sets the step instruments. The default uses the global meter.
func WithMetrics(m *observability.StepMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a runner reporting to notifier. A nil notifier drops
// every event.
func NewRunner(notifier Notifier, opts ...Option) *Runner {
	r := &Runner{notifier: notifier}
	for _, opt := range opts {
		opt(r)
	}
	if r.notifier == nil {
		r.notifier = NotifierFunc(func(context.Context, string, progress.Status, progress.Meta) {})
	}
	if r.exec == nil {
		r.exec = func(context.Context, Step) error { return nil }
	}
	if r.log == nil {
		r.log = logger.WithComponent("runner")
	}
	if r.metrics == nil {
		m, err := observability.NewStepMetrics(observability.Meter())
		if err != nil {
			r.log.Warn("step metrics disabled", logger.Fields(logger.FieldError, err.Error()))
		}
		r.metrics = m
	}
	if r.correlationID != "" {
		r.log = r.log.WithFields(logger.Fields(logger.FieldCorrelationID, r.correlationID))
	}
	return r
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Manifest returns the loaded manifest, or nil before it is loaded.
func (r *Runner) Manifest() *Manifest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.manifest
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Run loads the manifest at path and executes its steps in order, stopping
// at the first failure. Any returned error has already been reported as a
// ("manifest", "error") event.
func (r *Runner) Run(ctx context.Context, path string) (err error) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return errors.New(errors.ErrCodeRunState, "runner has already run")
	}
	r.started = true
	r.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, observability.SpanRun,
		trace.WithAttributes(attribute.String(observability.AttrManifest, path)))
	defer func() { observability.EndSpan(span, err) }()

	projectID, err := r.run(ctx, path)
	if err != nil {
		r.setState(StateFailed)
		r.notify(ctx, ManifestStep, progress.StatusError, progress.Meta{"error": err.Error()})
		r.metrics.RecordRun(ctx, projectID, string(progress.StatusError))
		return err
	}
	r.metrics.RecordRun(ctx, projectID, string(progress.StatusOK))
	return nil
}

func (r *Runner) run(ctx context.Context, path string) (string, error) {
	m, err := Load(path)
	if err != nil {
		r.log.Error(err.Error(), logger.Fields(logger.FieldManifest, path))
		return DefaultProjectID, err
	}

	r.mu.Lock()
	r.manifest = m
	r.state = StateManifestLoaded
	r.mu.Unlock()

	observability.SetSpanAttribute(ctx, observability.AttrProjectID, m.ProjectID)
	observability.SetSpanAttribute(ctx, observability.AttrStepCount, len(m.Steps))
	r.log.Info("Loaded manifest for project "+m.ProjectID, logger.Fields(
		logger.FieldProjectID, m.ProjectID,
		logger.FieldManifest, path,
	))
	r.notify(ctx, ManifestStep, progress.StatusLoaded, progress.Meta{"projectId": m.ProjectID})

	for _, step := range m.Steps {
		if err := ctx.Err(); err != nil {
			return m.ProjectID, errors.New(errors.ErrCodeInternal, "run canceled").WithCause(err)
		}
		if err := r.runStep(ctx, step); err != nil {
			return m.ProjectID, err
		}
	}

	r.setState(StateComplete)
	r.log.Info(fmt.Sprintf("✔ Pipeline complete: %d steps", len(m.Steps)), logger.Fields(
		logger.FieldProjectID, m.ProjectID,
	))
	r.notify(ctx, ManifestStep, progress.StatusOK, progress.Meta{
		"projectId": m.ProjectID,
		"stepCount": len(m.Steps),
	})
	return m.ProjectID, nil
}

func (r *Runner) runStep(ctx context.Context, step Step) (err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanStep,
		trace.WithAttributes(observability.StepAttributes(step.Name, step.Index)...))
	defer func() { observability.EndSpan(span, err) }()

	r.setState(StateStepRunning)
	r.log.Info("→ Step: "+step.Name, logger.Fields(
		logger.FieldStep, step.Name,
		logger.FieldStepIndex, step.Index,
	))
	r.notify(ctx, step.Name, progress.StatusStart, progress.Meta{"step": step.Node})

	start := time.Now()
	execErr := r.execute(ctx, step)
	elapsed := time.Since(start)

	if execErr != nil {
		r.log.Error(fmt.Sprintf("✖ Step failed: %s %s", step.Name, execErr.Error()), logger.MergeWithDuration(
			logger.Fields(logger.FieldStep, step.Name, logger.FieldStepIndex, step.Index),
			elapsed,
		))
		r.notify(ctx, step.Name, progress.StatusError, progress.Meta{
			"step":  step.Node,
			"error": execErr.Error(),
		})
		r.metrics.RecordStep(ctx, step.Name, string(progress.StatusError), elapsed)
		return errors.StepFailed(step.Name, step.Index, execErr)
	}

	r.notify(ctx, step.Name, progress.StatusOK, progress.Meta{"step": step.Node})
	r.metrics.RecordStep(ctx, step.Name, string(progress.StatusOK), elapsed)
	r.setState(StateStepDone)
	return nil
}

// execute runs the step body, turning a panic into an error.
func (r *Runner) execute(ctx context.Context, step Step) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.exec(ctx, step)
}

// notify reports an event. Delivery ignores cancellation of the run so a
// canceled run still reports finished steps and its final error.
func (r *Runner) notify(ctx context.Context, step string, status progress.Status, meta progress.Meta) {
	if r.correlationID != "" {
		meta[progress.MetaCorrelationID] = r.correlationID
	}
	r.notifier.Notify(context.WithoutCancel(ctx), step, status, meta)
}
