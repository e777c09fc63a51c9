// Command pipekit runs a pipeline manifest and reports step progress.
//
// Usage:
//
//	pipekit [flags] [MANIFEST]
//
// The manifest path defaults to the configured manifest
// (pipeline/manifest.yml). Progress events are posted to
// PROGRESS_BASE_URL when it is set.
//
// Exit status is 0 on success, 1 when the run fails and 2 on usage errors.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/kbukum/pipekit/config"
	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/logger"
	"github.com/kbukum/pipekit/manifest"
	"github.com/kbukum/pipekit/observability"
	"github.com/kbukum/pipekit/progress"
	"github.com/kbukum/pipekit/version"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configFile    string
	envFile       string
	check         bool
	correlationID string
	logLevel      string
	showVersion   bool
	help          bool
	manifest      string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	var o options
	flagSet := pflag.NewFlagSet("pipekit", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&o.configFile, "config", "", "path to pipekit.yml (default: search ./ and ./config/)")
	flagSet.StringVar(&o.envFile, "env-file", "", "path to a .env file (default: search ./ and ./config/)")
	flagSet.BoolVar(&o.check, "check", false, "parse the manifest and list its steps without running them")
	flagSet.StringVar(&o.correlationID, "correlation-id", "", "correlation id sent with every progress event (default: random UUID)")
	flagSet.StringVar(&o.logLevel, "log-level", "", "override logging.level")
	flagSet.BoolVar(&o.showVersion, "version", false, "print version and exit")
	flagSet.BoolVarP(&o.help, "help", "h", false, "show help")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pipekit [flags] [MANIFEST]\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			o.help = true
			return &o, nil
		}
		return nil, errors.Usage(err.Error()).WithCause(err)
	}
	if o.help {
		flagSet.Usage()
		return &o, nil
	}

	switch rest := flagSet.Args(); len(rest) {
	case 0:
	case 1:
		o.manifest = rest[0]
	default:
		flagSet.Usage()
		return nil, errors.Usage(fmt.Sprintf("unexpected argument: %s", rest[1]))
	}
	return &o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return errors.ExitCode(err)
	}
	if opts.help {
		return 0
	}
	if opts.showVersion {
		fmt.Fprintln(stdout, version.Get())
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return errors.ExitCode(err)
	}

	out := stdout
	if cfg.Logging.Output == "stderr" {
		out = stderr
	}
	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, out)
	logger.SetGlobalLogger(log)

	path := cfg.Manifest
	if opts.manifest != "" {
		path = opts.manifest
	}

	if opts.check {
		return check(path, stdout, stderr)
	}

	return runTask(ctx, log, func(ctx context.Context) error {
		return execute(ctx, cfg, opts, path, log)
	})
}

func loadConfig(opts *options) (*config.Config, error) {
	var loaderOpts []config.LoaderOption
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(opts.envFile))
	}

	cfg := &config.Config{}
	if err := config.LoadInto(cfg, loaderOpts...); err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		if opts.logLevel != "" && cfg.Logging.Validate() != nil {
			return nil, errors.Usage("invalid --log-level " + opts.logLevel).WithCause(err)
		}
		return nil, err
	}
	return cfg, nil
}

func check(path string, stdout, stderr io.Writer) int {
	m, warnings, err := manifest.Check(path)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return errors.ExitCode(err)
	}
	fmt.Fprintf(stdout, "project %s: %d steps\n", m.ProjectID, len(m.Steps))
	for _, s := range m.Steps {
		fmt.Fprintf(stdout, "  %d. %s\n", s.Index+1, s.Name)
	}
	for _, w := range warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}
	return 0
}

func execute(ctx context.Context, cfg *config.Config, opts *options, path string, log *logger.Logger) error {
	shutdown, err := observability.Setup(ctx, cfg.Tracing, cfg.Name, version.Get().Short())
	if err != nil {
		log.Warn("telemetry disabled", logger.Fields(logger.FieldError, err.Error()))
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				log.Warn("telemetry shutdown failed", logger.Fields(logger.FieldError, err.Error()))
			}
		}()
	}

	notifier, err := progress.New(cfg.Progress)
	if err != nil {
		return err
	}

	correlationID := opts.correlationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	runner := manifest.NewRunner(notifier, manifest.WithCorrelationID(correlationID))
	return runner.Run(ctx, path)
}

// runTask runs task until it returns, canceling its context on SIGINT or
// SIGTERM, and maps the result to an exit status.
func runTask(ctx context.Context, log *logger.Logger, task func(ctx context.Context) error) int {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Warn("Received signal, canceling run", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	return errors.ExitCode(task(taskCtx))
}
