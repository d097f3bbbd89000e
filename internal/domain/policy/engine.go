package policy

import (
	"fmt"

	"github.com/proximalabs/proxima-go/internal/domain/evaluation"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// PolicyError wraps a failure inside one policy's Apply. The engine
// records it and keeps going; one misbehaving policy does not stall
// the step.
type PolicyError struct {
	PolicyID string
	Cause    error
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy %s: %v", e.PolicyID, e.Cause)
}

func (e *PolicyError) Unwrap() error { return e.Cause }

// Engine holds the policy registry and applies it in insertion order.
type Engine struct {
	policies []Policy
	errs     *kernel.ErrorLog
}

// NewEngine creates an empty policy engine.
func NewEngine(errs *kernel.ErrorLog) *Engine {
	return &Engine{errs: errs}
}

// Register appends a policy. Registration order is application order.
func (e *Engine) Register(p Policy) { e.policies = append(e.policies, p) }

// Policies returns the registry in application order.
func (e *Engine) Policies() []Policy { return e.policies }

// Policy returns a registered policy by id, or nil.
func (e *Engine) Policy(id string) Policy {
	for _, p := range e.policies {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

// SetEnabled flips one policy. Reports whether the id was known.
func (e *Engine) SetEnabled(id string, enabled bool) bool {
	p := e.Policy(id)
	if p == nil {
		return false
	}
	p.SetEnabled(enabled)
	return true
}

// Observers returns the registered policies that watch bus events.
func (e *Engine) Observers() []Observer {
	var obs []Observer
	for _, p := range e.policies {
		if o, ok := p.(Observer); ok {
			obs = append(obs, o)
		}
	}
	return obs
}

// Apply runs every enabled policy against the evaluation result and
// aggregates their effects. Failures are recorded, not propagated.
func (e *Engine) Apply(w WorldMutator, res evaluation.Result) []Effect {
	var effects []Effect
	for _, p := range e.policies {
		if !p.Enabled() {
			continue
		}
		out, err := p.Apply(w, res)
		if err != nil {
			e.errs.Record(&PolicyError{PolicyID: p.ID(), Cause: err})
			continue
		}
		effects = append(effects, out...)
	}
	return effects
}
