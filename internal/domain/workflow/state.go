package workflow

// State is the settlement status of a back-office request
type State string

const (
	StatePending  State = "PENDING"
	StatePaid     State = "PAID"
	StateRejected State = "REJECTED"
)

// IsTerminal reports whether the state is absorbing (PAID or REJECTED)
func (s State) IsTerminal() bool {
	switch s {
	case StatePaid, StateRejected:
		return true
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known request status
func (s State) IsValid() bool {
	switch s {
	case StatePending, StatePaid, StateRejected:
		return true
	}
	return false
}
