package stm

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/yndnr/stm-go/pkg/cmap"
)

// Option configures an STM.
type Option func(*options)

type options struct {
	workers   int
	queueSize int
	shards    int
	logger    *slog.Logger
	observers []Observer

	submitLimit rate.Limit
	submitBurst int

	retry func() backoff.BackOff
}

func defaultOptions() options {
	workers := runtime.GOMAXPROCS(0)
	return options{
		workers:   workers,
		queueSize: workers * 2,
		shards:    cmap.DefaultShardCount,
		logger:    slog.New(slog.DiscardHandler),
		retry:     ImmediateRetry,
	}
}

// WithWorkers sets the number of worker goroutines. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithQueueSize sets the capacity of the submission queue. Zero makes
// Submit hand off directly to an idle worker.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.queueSize = n
		}
	}
}

// WithShardCount sets the shard count of the live-cell set. It must be a
// power of two; other values fall back to the default.
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

// WithLogger sets the logger used for engine events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers an observer. It may be given more than once.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithSubmitRate throttles Submit to limit transactions per second with the
// given burst. A limit of rate.Inf or zero disables the throttle.
func WithSubmitRate(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.submitLimit = limit
		o.submitBurst = burst
	}
}

// WithRetryBackoff sets the policy slept between a failed attempt and the
// next one. The factory is called once per submission.
func WithRetryBackoff(factory func() backoff.BackOff) Option {
	return func(o *options) {
		if factory != nil {
			o.retry = factory
		}
	}
}

// ImmediateRetry reruns a failed attempt without delay.
func ImmediateRetry() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

// ExponentialRetry returns a retry policy factory whose delay starts at
// initial and grows by multiplier up to max. It never gives up.
func ExponentialRetry(initial, max time.Duration, multiplier float64) func() backoff.BackOff {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = max
		if multiplier > 1 {
			b.Multiplier = multiplier
		}
		b.MaxElapsedTime = 0
		b.Reset()
		return b
	}
}

func (o *options) retryPolicy() backoff.BackOff {
	return o.retry()
}

func (o *options) observer() Observer {
	switch len(o.observers) {
	case 0:
		return NopObserver{}
	case 1:
		return o.observers[0]
	default:
		return multiObserver(o.observers)
	}
}
