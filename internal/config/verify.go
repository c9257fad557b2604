package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/yndnr/stm-go/internal/telemetry/logger"
)

// Verify validates the configuration and returns every problem found.
func Verify(cfg *Config) error {
	return errors.Join(
		verifyEngine(&cfg.Engine),
		verifyRetry(&cfg.Retry),
		verifyLog(&cfg.Log),
		verifyMetrics(&cfg.Metrics),
		verifyWorkload(&cfg.Workload),
	)
}

func verifyEngine(e *EngineSection) error {
	var errs []error
	if e.Workers < 0 {
		errs = append(errs, fmt.Errorf("engine.workers must not be negative, got %d", e.Workers))
	}
	if e.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("engine.queue_size must not be negative, got %d", e.QueueSize))
	}
	if e.Shards < 1 || e.Shards&(e.Shards-1) != 0 {
		errs = append(errs, fmt.Errorf("engine.shards must be a power of two, got %d", e.Shards))
	}
	if e.SubmitRate < 0 {
		errs = append(errs, fmt.Errorf("engine.submit_rate must not be negative, got %g", e.SubmitRate))
	}
	if e.SubmitRate > 0 && e.SubmitBurst < 1 {
		errs = append(errs, errors.New("engine.submit_burst must be at least 1 when submit_rate is set"))
	}
	return errors.Join(errs...)
}

func verifyRetry(r *RetrySection) error {
	switch r.Policy {
	case RetryImmediate:
		return nil
	case RetryExponential:
	default:
		return fmt.Errorf("retry.policy must be %q or %q, got %q", RetryImmediate, RetryExponential, r.Policy)
	}

	var errs []error
	if r.Initial <= 0 {
		errs = append(errs, errors.New("retry.initial must be positive"))
	}
	if r.Max < r.Initial {
		errs = append(errs, errors.New("retry.max must not be below retry.initial"))
	}
	if r.Multiplier < 1 {
		errs = append(errs, fmt.Errorf("retry.multiplier must be at least 1, got %g", r.Multiplier))
	}
	return errors.Join(errs...)
}

func verifyLog(l *LogSection) error {
	if _, err := logger.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch l.Format {
	case "", "text", "console", "json":
		return nil
	default:
		return fmt.Errorf("log.format must be text or json, got %q", l.Format)
	}
}

func verifyMetrics(m *MetricsSection) error {
	if !m.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.Addr); err != nil {
		return fmt.Errorf("metrics.addr: %w", err)
	}
	return nil
}

func verifyWorkload(w *WorkloadSection) error {
	var errs []error
	if w.Accounts < 2 {
		errs = append(errs, fmt.Errorf("workload.accounts must be at least 2, got %d", w.Accounts))
	}
	if w.InitialBalance < 0 {
		errs = append(errs, errors.New("workload.initial_balance must not be negative"))
	}
	if w.MaxAmount < 1 {
		errs = append(errs, errors.New("workload.max_amount must be positive"))
	}
	if w.Concurrency < 1 {
		errs = append(errs, errors.New("workload.concurrency must be positive"))
	}
	if w.Duration < 0 {
		errs = append(errs, errors.New("workload.duration must not be negative"))
	}
	return errors.Join(errs...)
}
