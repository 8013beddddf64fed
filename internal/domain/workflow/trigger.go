package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerSelect       Trigger = "SELECT"
	TriggerAggregate    Trigger = "AGGREGATE"
	TriggerBuildBatch   Trigger = "BUILD_BATCH"
	TriggerUpdateLedger Trigger = "UPDATE_LEDGER"
	TriggerFail         Trigger = "FAIL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
