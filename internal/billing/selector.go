package billing

import (
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
)

// Selector filters a full ledger snapshot down to the work that still has to
// be billed.
type Selector struct {
	logger *zap.Logger
}

// NewSelector creates a new Selector.
func NewSelector(logger *zap.Logger) *Selector {
	return &Selector{logger: logger}
}

// Select returns the billable items in ledger order: status "Done" and a paid
// state that is neither "Paid" nor "Invoiced". The input is never mutated and
// blank fields are fine.
func (s *Selector) Select(items []entity.WorkItem) []entity.WorkItem {
	selected := make([]entity.WorkItem, 0)
	for _, item := range items {
		if item.Billable() {
			selected = append(selected, item)
		}
	}

	s.logger.Debug("Selected unpaid work",
		zap.Int("ledger_rows", len(items)),
		zap.Int("eligible", len(selected)))

	return selected
}
