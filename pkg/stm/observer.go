package stm

import "time"

// Reason classifies why an attempt did not commit.
type Reason string

const (
	ReasonConflict   Reason = "conflict"
	ReasonStepFailed Reason = "step_failed"
	ReasonPanic      Reason = "panic"
	ReasonDeleted    Reason = "cell_deleted"
	ReasonCancelled  Reason = "cancelled"
)

// Event describes one observable moment in a transaction's life.
type Event struct {
	TxID     string
	Label    string
	Attempt  int
	Reason   Reason
	Err      error
	Duration time.Duration
	Writes   int
}

// Observer receives engine events. Implementations are called from worker
// goroutines and must be safe for concurrent use. They must not call back
// into the STM from OnCommit or OnRetry.
type Observer interface {
	OnCommit(Event)
	OnRetry(Event)
	OnAbort(Event)
	OnCancel(Event)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) OnCommit(Event) {}
func (NopObserver) OnRetry(Event)  {}
func (NopObserver) OnAbort(Event)  {}
func (NopObserver) OnCancel(Event) {}

// multiObserver fans events out in registration order.
type multiObserver []Observer

func (m multiObserver) OnCommit(e Event) {
	for _, o := range m {
		o.OnCommit(e)
	}
}

func (m multiObserver) OnRetry(e Event) {
	for _, o := range m {
		o.OnRetry(e)
	}
}

func (m multiObserver) OnAbort(e Event) {
	for _, o := range m {
		o.OnAbort(e)
	}
}

func (m multiObserver) OnCancel(e Event) {
	for _, o := range m {
		o.OnCancel(e)
	}
}
