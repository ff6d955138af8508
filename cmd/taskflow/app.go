package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskflow/internal/api"
	"github.com/fyrsmithlabs/taskflow/internal/config"
	"github.com/fyrsmithlabs/taskflow/internal/logging"
	"github.com/fyrsmithlabs/taskflow/internal/optimistic"
	"github.com/fyrsmithlabs/taskflow/internal/session"
	"github.com/fyrsmithlabs/taskflow/internal/telemetry"
	"github.com/fyrsmithlabs/taskflow/internal/workspace"
)

// app holds the flags and the services built from them for one run.
type app struct {
	configPath string
	server     string
	jsonOut    bool
	logLevel   string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *logging.Logger
	tel    *telemetry.Telemetry
	gate   *session.Gate
	client *api.Client
	ws     *workspace.Workspace

	revoked   atomic.Bool
	reported  atomic.Bool
	stopWatch context.CancelFunc
	watchDone sync.WaitGroup
}

// setup loads configuration and wires the session, client and workspace.
func (a *app) setup(ctx context.Context) error {
	cfg, err := config.LoadWithFile(a.configPath)
	if err != nil {
		return err
	}
	if a.server != "" {
		cfg.API.BaseURL = a.server
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	a.tel, err = telemetry.New(ctx, telemetry.FromConfig(cfg.Telemetry, version))
	if err != nil {
		return err
	}

	logCfg, err := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	logCfg.Output.Writer = a.stderr
	logCfg.Output.OTEL = a.tel.LoggerProvider() != nil
	a.logger, err = logging.NewLogger(logCfg, a.tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	if h := a.tel.Health(); h.Degraded {
		a.logger.Warn(ctx, "telemetry degraded", zap.String("reason", h.Reason))
	}

	a.gate = session.NewGate(session.NewFileStore(cfg.Session.Path), session.WithLogger(a.logger))
	if err := a.gate.Hydrate(ctx); err != nil {
		return err
	}
	a.gate.OnRevoked(func(context.Context) { a.revoked.Store(true) })
	if cfg.Session.Watch {
		a.watch(ctx, cfg.Session.Path)
	}

	a.client, err = api.NewFromConfig(cfg.API, session.NewTransport(a.gate, nil),
		api.WithLogger(a.logger),
		api.WithTracerProvider(a.tel.TracerProvider()),
		api.WithMeterProvider(a.tel.MeterProvider()),
	)
	if err != nil {
		return err
	}

	a.ws = workspace.New(a.client,
		workspace.WithLogger(a.logger),
		workspace.WithReporter(optimistic.ReporterFunc(a.report)),
		workspace.WithParallelism(cfg.API.SummaryParallelism),
		workspace.WithPageSize(cfg.Query.PageSize),
	)
	return nil
}

// watch reloads the session when another process logs in or out.
func (a *app) watch(ctx context.Context, path string) {
	ctx, a.stopWatch = context.WithCancel(ctx)
	a.watchDone.Add(1)
	go func() {
		defer a.watchDone.Done()
		if err := session.Watch(ctx, a.gate, path); err != nil {
			a.logger.Warn(ctx, "session watch stopped", zap.Error(err))
		}
	}()
}

// report prints a rolled-back mutation. Revocations are reported once by run.
func (a *app) report(ctx context.Context, f optimistic.Failure) {
	a.reported.Store(true)
	if errors.Is(f.Err, api.ErrAuthRejected) {
		return
	}
	a.logger.Debug(ctx, "mutation rolled back", zap.String("op", f.Op), zap.String("key", f.Key))
	fmt.Fprintf(a.stderr, "error: %s\n", f.Message)
}

// reportedErr keeps err for exit handling after the reporter printed it.
func (a *app) reportedErr(err error) error {
	if err != nil && a.reported.Load() {
		return fmt.Errorf("%w: %w", errReported, err)
	}
	return err
}

// requireSession fails commands that need a signed-in user.
func (a *app) requireSession() error {
	if !a.gate.Authenticated() {
		return session.ErrNoCredential
	}
	return nil
}

func (a *app) close() {
	if a.stopWatch != nil {
		a.stopWatch()
		a.watchDone.Wait()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.tel != nil {
		_ = a.tel.Shutdown(context.Background())
	}
}
