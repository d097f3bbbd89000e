package kernel

import (
	"errors"
	"fmt"
)

// ErrConfig marks failures resolving configuration documents at build
// time. Fatal before the simulation starts.
var ErrConfig = errors.New("config error")

// ErrStoreUnavailable marks an unreachable external store.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrCommitOverdraft marks a strict-mode ledger commit rejected for
// overdrafting a stock. Fatal: the step cannot be applied.
var ErrCommitOverdraft = errors.New("commit overdraft")

// ConfigErrorf wraps ErrConfig with a formatted message.
func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfig}, args...)...)
}

// CommitOverdraftError reports a stock-flow batch that would drive a
// sector stock negative at commit.
type CommitOverdraftError struct {
	Sector   string
	Resource string
	Level    float64
	Debit    float64
}

func (e *CommitOverdraftError) Error() string {
	return fmt.Sprintf("commit overdraft: %s/%s debit %.3f exceeds stock %.3f",
		e.Sector, e.Resource, e.Debit, e.Level)
}

func (e *CommitOverdraftError) Unwrap() error { return ErrCommitOverdraft }

// EventDeliveryError reports a subscriber fault during event delivery.
type EventDeliveryError struct {
	Topic Topic
	Cause error
}

func (e *EventDeliveryError) Error() string {
	return fmt.Sprintf("event delivery on %q failed: %v", e.Topic, e.Cause)
}

func (e *EventDeliveryError) Unwrap() error { return e.Cause }

// ErrorLog collects non-fatal faults raised during a step. The
// orchestrator drains it into the per-step snapshot's errors array.
type ErrorLog struct {
	errs []error
}

// NewErrorLog creates an empty error log.
func NewErrorLog() *ErrorLog { return &ErrorLog{} }

// Record appends a fault.
func (l *ErrorLog) Record(err error) {
	if err != nil {
		l.errs = append(l.errs, err)
	}
}

// Drain returns and clears the collected faults.
func (l *ErrorLog) Drain() []error {
	out := l.errs
	l.errs = nil
	return out
}
