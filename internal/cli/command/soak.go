package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stm-go/internal/cli/output"
	"github.com/yndnr/stm-go/internal/config"
	"github.com/yndnr/stm-go/internal/infra/confloader"
	"github.com/yndnr/stm-go/internal/infra/shutdown"
	"github.com/yndnr/stm-go/internal/server/httpserver"
	"github.com/yndnr/stm-go/internal/telemetry/logger"
	"github.com/yndnr/stm-go/internal/telemetry/metric"
	"github.com/yndnr/stm-go/internal/workload/bank"
	"github.com/yndnr/stm-go/pkg/stm"
)

// shutdownTimeout bounds every soak shutdown hook together.
const shutdownTimeout = 30 * time.Second

// SoakCommand returns the soak command.
func SoakCommand() *cli.Command {
	return &cli.Command{
		Name:  "soak",
		Usage: "Run random transfers until interrupted, serving metrics and state over HTTP",
		Flags: append(workloadFlags(),
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "Stop after this long (0 = until SIGINT or SIGTERM)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Admin HTTP listen address",
			},
			&cli.BoolFlag{
				Name:  "no-metrics",
				Usage: "Do not start the admin HTTP server",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Draw a progress line on stderr",
			},
		),
		Action: soakRun,
	}
}

func soakRun(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("metrics-addr") {
		cfg.Metrics.Addr = c.String("metrics-addr")
	}
	if c.Bool("no-metrics") {
		cfg.Metrics.Enabled = false
	}
	if err := applyWorkloadFlags(c, cfg); err != nil {
		return err
	}
	log := loggerFrom(c)

	reg := metric.NewRegistry()
	s := stm.New(cfg.EngineOptions(log.Slog(), reg)...)
	reg.MustRegister(metric.NewEngineCollector(s))

	runID := newRunID()
	log = log.With("run_id", runID)
	ctx, cancel := runContext(logger.WithRunID(c.Context, runID), cfg.Workload.Duration)
	defer cancel()

	// Hooks run in reverse order: workload, watcher, admin HTTP, engine.
	sh := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(log.Slog()))
	sh.OnShutdown("engine", s.Close)

	if cfg.Metrics.Enabled {
		addr, err := serveAdmin(sh, s, reg, cfg, log)
		if err != nil {
			sh.Shutdown()
			return err
		}
		log.Info("admin server listening", "addr", addr)
	}

	if path := c.String("config"); path != "" && !c.IsSet("log-level") {
		if err := watchLogLevel(sh, path, log); err != nil {
			log.Warn("config watcher disabled", "error", err)
		}
	}

	accounts := bank.OpenAccounts(s, cfg.Workload.Accounts, cfg.Workload.InitialBalance)
	run := cfg.BankRun()
	run.Transfers = 0

	results := make(chan soakResult, 1)
	finished := make(chan struct{})
	started := time.Now()
	go func() {
		defer close(finished)
		defer cancel()
		report, err := bank.RunOn(ctx, s, accounts, run)
		results <- soakResult{report: report, err: err}
	}()
	sh.OnShutdown("workload", func(hctx context.Context) error {
		cancel()
		select {
		case <-finished:
			return nil
		case <-hctx.Done():
			return hctx.Err()
		}
	})

	if c.Bool("progress") {
		go drawProgress(c, s, cfg.Workload.Duration, started, finished)
	}

	log.Info("soak started",
		"accounts", len(accounts),
		"concurrency", run.Concurrency,
		"duration", cfg.Workload.Duration)
	if err := sh.Wait(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	res, err := takeResult(results)
	if err != nil {
		return err
	}
	if res.err != nil {
		return fmt.Errorf("soak run: %w", res.err)
	}
	return printReport(c, res.report)
}

var errWorkloadRunning = errors.New("soak run: workload still running after shutdown")

type soakResult struct {
	report *bank.Report
	err    error
}

// takeResult returns the workload outcome without waiting for it.
func takeResult(results <-chan soakResult) (soakResult, error) {
	select {
	case res := <-results:
		return res, nil
	default:
		return soakResult{}, errWorkloadRunning
	}
}

func runContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(parent, d)
	}
	return context.WithCancel(parent)
}

// serveAdmin starts the admin HTTP server and registers its shutdown hook.
// It returns the bound address.
func serveAdmin(sh *shutdown.Handler, s *stm.STM, reg *metric.Registry, cfg *config.Config, log logger.Logger) (string, error) {
	router, h := httpserver.NewRouter(&httpserver.RouterConfig{
		Engine:  s,
		Metrics: reg.Handler(),
		Logger:  log.Slog(),
	})

	l, err := net.Listen("tcp", cfg.Metrics.Addr)
	if err != nil {
		return "", fmt.Errorf("admin listen: %w", err)
	}
	srv := httpserver.New(l.Addr().String(), router)
	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin server error", "error", err)
		}
	}()

	sh.OnShutdown("admin http", func(ctx context.Context) error {
		h.SetReady(false)
		return srv.Shutdown(ctx)
	})
	return l.Addr().String(), nil
}

// watchLogLevel re-reads path on every change and applies its log.level.
func watchLogLevel(sh *shutdown.Handler, path string, log logger.Logger) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return err
	}
	w.OnChange(func(changed string) {
		reloadLogLevel(changed, log)
	})
	w.StartAsync()

	sh.OnShutdown("config watcher", func(context.Context) error {
		return w.Stop()
	})
	return nil
}

func reloadLogLevel(path string, log logger.Logger) {
	cfg := config.Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		log.Warn("config reload failed", "path", path, "error", err)
		return
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		log.Warn("config reload failed", "path", path, "error", err)
		return
	}
	log.Info("log level reloaded", "level", logger.GetLevel())
}

func drawProgress(c *cli.Context, s *stm.STM, total time.Duration, started time.Time, finished <-chan struct{}) {
	bar := output.NewProgressBar(c.App.ErrWriter, "soak", total)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	note := func() string {
		st := s.Stats()
		return fmt.Sprintf("commits=%d retries=%d in_flight=%d", st.Commits, st.Retries, st.InFlight)
	}
	for {
		select {
		case <-finished:
			bar.Finish(note())
			return
		case <-ticker.C:
			bar.Update(time.Since(started), note())
		}
	}
}
