package workflow

// State represents a proposal state in the access workflow lifecycle
type State string

const (
	StatePending  State = "PENDING"
	StateAccepted State = "ACCEPTED"
	StateRejected State = "REJECTED"
	StateCanceled State = "CANCELED"
)

var validStates = map[State]bool{
	StatePending:  true,
	StateAccepted: true,
	StateRejected: true,
	StateCanceled: true,
}

var terminalStates = map[State]bool{
	StateAccepted: true,
	StateRejected: true,
	StateCanceled: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid proposal state
func (s State) IsValid() bool {
	return validStates[s]
}
