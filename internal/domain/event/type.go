package event

// Type identifies the type of domain event
type Type string

const (
	TypeRunPreviewed         Type = "run.previewed"
	TypeBatchIssued          Type = "batch.issued"
	TypeLedgerPartialFailure Type = "ledger.partial_failure"
	TypeRunFailed            Type = "run.failed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRunPreviewed,
		TypeBatchIssued,
		TypeLedgerPartialFailure,
		TypeRunFailed:
		return true
	default:
		return false
	}
}
