package workflow

// NewRunMachine wires the stage transitions of one invoicing run:
//
//	STARTED -> SELECTED -> AGGREGATED -> BATCH_BUILT -> LEDGER_UPDATED
//
// Preview runs stop at BATCH_BUILT. The move into LEDGER_UPDATED is guarded
// by batchEmitted: until the batch emission is confirmed, no ledger mutation
// stage may begin. Every non-terminal stage can fail into FAILED.
func NewRunMachine(batchEmitted GuardFunc) *Machine {
	m := NewMachine(StateStarted)

	m.Permit(StateStarted, TriggerSelect, StateSelected)
	m.Permit(StateSelected, TriggerAggregate, StateAggregated)
	m.Permit(StateAggregated, TriggerBuildBatch, StateBatchBuilt)
	m.PermitIf(StateBatchBuilt, TriggerUpdateLedger, StateLedgerUpdated, batchEmitted)

	for _, from := range []State{StateStarted, StateSelected, StateAggregated, StateBatchBuilt} {
		m.Permit(from, TriggerFail, StateFailed)
	}

	return m
}
