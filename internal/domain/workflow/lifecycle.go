package workflow

import (
	"context"
	"sync"
)

// requestLifecycle is configured on first use; Build copies it for every machine.
var requestLifecycle = sync.OnceValue(newRequestLifecycle)

func newRequestLifecycle() StateMachineBuilder {
	builder := NewBuilder()

	// PAID and REJECTED have no outgoing transitions
	builder.Configure(StatePending).
		Permit(TriggerRoute, StatePending).
		Permit(TriggerSettle, StatePaid).
		Permit(TriggerReject, StateRejected)

	return builder
}

// NewRequestStateMachine returns a machine for the request lifecycle
// PENDING -> {PENDING, PAID, REJECTED}.
func NewRequestStateMachine(initial State) StateMachine {
	return requestLifecycle().Build(initial)
}

// Next returns the state a request in `from` reaches when `trigger` fires.
func Next(from State, trigger Trigger) (State, error) {
	if !from.IsValid() {
		return from, ErrInvalidTransition
	}
	machine := NewRequestStateMachine(from)
	if err := machine.Fire(context.Background(), trigger); err != nil {
		return from, err
	}
	return machine.State(), nil
}
