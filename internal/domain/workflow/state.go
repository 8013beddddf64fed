package workflow

// State represents a stage in the lifecycle of one invoicing run
type State string

const (
	StateStarted       State = "STARTED"
	StateSelected      State = "SELECTED"
	StateAggregated    State = "AGGREGATED"
	StateBatchBuilt    State = "BATCH_BUILT"
	StateLedgerUpdated State = "LEDGER_UPDATED"
	StateFailed        State = "FAILED"
)

var validStates = map[State]bool{
	StateStarted:       true,
	StateSelected:      true,
	StateAggregated:    true,
	StateBatchBuilt:    true,
	StateLedgerUpdated: true,
	StateFailed:        true,
}

var terminalStates = map[State]bool{
	StateLedgerUpdated: true,
	StateFailed:        true,
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known run state
func (s State) IsValid() bool {
	return validStates[s]
}
