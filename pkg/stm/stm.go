package stm

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/stm-go/pkg/cmap"
)

// STM is a registry of live memory cells plus the worker pool that runs
// transactions against them.
//
// An STM is constructed with New and released with Close. It holds no
// package-level state, so independent STMs never observe each other.
type STM struct {
	opts     options
	log      *slog.Logger
	observer Observer
	limiter  *rate.Limiter

	cells *cmap.Map[CellID, *memoryCell]

	// commitMu serialises validation+flush, deletion and ViewState.
	commitMu sync.Mutex

	jobs      chan *job
	closing   chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex // guards closed and sends on jobs
	closed    bool
	wg        sync.WaitGroup

	submitted atomic.Uint64
	inFlight  atomic.Int64
	commits   atomic.Uint64
	retries   atomic.Uint64
	aborts    atomic.Uint64
	cancels   atomic.Uint64
}

// New creates an STM and starts its workers.
func New(opts ...Option) *STM {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &STM{
		opts:     o,
		log:      o.logger,
		observer: o.observer(),
		cells:    cmap.NewWithShards[CellID, *memoryCell](o.shards),
		jobs:     make(chan *job, o.queueSize),
		closing:  make(chan struct{}),
	}
	if o.submitLimit > 0 && o.submitLimit != rate.Inf {
		burst := o.submitBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(o.submitLimit, burst)
	}

	s.wg.Add(o.workers)
	for i := 0; i < o.workers; i++ {
		go s.worker()
	}

	s.log.Debug("stm started", "workers", o.workers, "queue_size", o.queueSize, "shards", o.shards)
	return s
}

// NewVar registers a new cell holding a copy of v and returns its typed handle.
func NewVar[V Value](s *STM, v V) *TVar[V] {
	return &TVar[V]{c: s.register(v)}
}

// NewVariable registers a new cell holding a copy of v.
func (s *STM) NewVariable(v Value) Handle {
	return &TVar[Value]{c: s.register(v)}
}

func (s *STM) register(v Value) *memoryCell {
	c := newMemoryCell(copyValue(v))
	// ULIDs from ulid.Make are unique within the process.
	s.cells.SetIfAbsent(c.id, c)
	return c
}

// DeleteVariable removes the cell behind h from the live set and reports
// whether it was live. Transactions that read or write the cell abort at
// their next commit. Stale handles remain usable for reads.
func (s *STM) DeleteVariable(h Handle) bool {
	c := cellOf(h)
	if c == nil {
		return false
	}
	s.lockCommit()
	defer s.unlockCommit()
	if !s.isLive(c) {
		return false
	}
	s.cells.Pop(c.id)
	s.log.Debug("cell deleted", "cell", c.id.String())
	return true
}

// Exists reports whether h refers to a live cell of this STM.
func (s *STM) Exists(h Handle) bool {
	return s.isLive(cellOf(h))
}

// Lookup returns a handle for a live cell by its identifier.
func (s *STM) Lookup(id CellID) (Handle, bool) {
	c, ok := s.cells.Get(id)
	if !ok {
		return nil, false
	}
	return &TVar[Value]{c: c}, true
}

// LiveIDs returns the identifiers of all live cells in no particular order.
func (s *STM) LiveIDs() []CellID {
	return s.cells.Keys()
}

// ViewState returns a copy of the current value of h, read while holding
// the commit lock so that no commit is observed half-flushed. It reports
// false for a nil handle or a cell that is not live.
func (s *STM) ViewState(h Handle) (Value, bool) {
	c := cellOf(h)
	if c == nil {
		return nil, false
	}
	s.lockCommit()
	defer s.unlockCommit()
	if !s.isLive(c) {
		return nil, false
	}
	return c.read(), true
}

// View is the typed form of ViewState.
func View[V Value](s *STM, h *TVar[V]) (V, bool) {
	var zero V
	v, ok := s.ViewState(h)
	if !ok {
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Stats is a point-in-time summary of the engine.
type Stats struct {
	Cells     int    `json:"cells"`
	Workers   int    `json:"workers"`
	Queued    int    `json:"queued"`
	InFlight  int64  `json:"in_flight"`
	Submitted uint64 `json:"submitted"`
	Commits   uint64 `json:"commits"`
	Retries   uint64 `json:"retries"`
	Aborts    uint64 `json:"aborts"`
	Cancels   uint64 `json:"cancels"`
}

// Stats returns the current counters.
func (s *STM) Stats() Stats {
	return Stats{
		Cells:     s.cells.Count(),
		Workers:   s.opts.workers,
		Queued:    len(s.jobs),
		InFlight:  s.inFlight.Load(),
		Submitted: s.submitted.Load(),
		Commits:   s.commits.Load(),
		Retries:   s.retries.Load(),
		Aborts:    s.aborts.Load(),
		Cancels:   s.cancels.Load(),
	}
}

func (s *STM) lockCommit()   { s.commitMu.Lock() }
func (s *STM) unlockCommit() { s.commitMu.Unlock() }

// isLive reports whether c is the cell registered under its id.
func (s *STM) isLive(c *memoryCell) bool {
	if c == nil {
		return false
	}
	live, ok := s.cells.Get(c.id)
	return ok && live == c
}

func (s *STM) event(tx *Transaction, d time.Duration) Event {
	return Event{
		TxID:     tx.id,
		Label:    tx.label,
		Attempt:  tx.Attempts(),
		Duration: d,
	}
}

func (s *STM) noteCommit(tx *Transaction, writes int, d time.Duration) {
	s.commits.Add(1)
	e := s.event(tx, d)
	e.Writes = writes
	s.log.Debug("transaction committed",
		"tx", tx.id, "label", tx.label, "attempts", e.Attempt, "writes", writes, "duration", d)
	s.observer.OnCommit(e)
}

func (s *STM) noteRetry(tx *Transaction, attempt int, err error) {
	s.retries.Add(1)
	e := s.event(tx, 0)
	e.Attempt = attempt
	e.Reason = retryReason(err)
	e.Err = err
	if e.Reason == ReasonPanic {
		s.log.Warn("step panicked, retrying", "tx", tx.id, "label", tx.label, "attempt", attempt, "error", err)
	} else {
		s.log.Debug("attempt failed, retrying", "tx", tx.id, "label", tx.label, "attempt", attempt, "reason", e.Reason, "error", err)
	}
	s.observer.OnRetry(e)
}

func (s *STM) noteAbort(tx *Transaction, err error, d time.Duration) {
	s.aborts.Add(1)
	e := s.event(tx, d)
	e.Reason = ReasonDeleted
	e.Err = err
	s.log.Info("transaction aborted", "tx", tx.id, "label", tx.label, "attempts", e.Attempt, "error", err)
	s.observer.OnAbort(e)
}

func (s *STM) noteCancel(tx *Transaction, err error, d time.Duration) {
	s.cancels.Add(1)
	e := s.event(tx, d)
	e.Reason = ReasonCancelled
	e.Err = err
	s.log.Info("transaction cancelled", "tx", tx.id, "label", tx.label, "attempts", e.Attempt, "error", err)
	s.observer.OnCancel(e)
}
