package port

import (
	"context"
	"errors"

	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
)

// ErrItemNotFound reports a paid-state write against an unknown item id.
var ErrItemNotFound = errors.New("work item not found")

// WorkLedger is the system of record for work items: the source of rows to
// bill and the sink for paid-state write-backs. Implementations sit on top of
// the shared workbook, a SQL table, or memory (tests).
type WorkLedger interface {
	// ReadAll returns a full snapshot of the ledger in ledger order.
	ReadAll(ctx context.Context) ([]entity.WorkItem, error)

	// SetPaidState overwrites the paid state of one item unconditionally.
	// Administrative use (marking invoiced work as paid out); the invoicing
	// path goes through ClaimInvoiced instead.
	SetPaidState(ctx context.Context, id, value string) error

	// ClaimInvoiced transitions one item to "Invoiced" only while the item is
	// still billable (status "Done", paid state outside the two sentinels).
	// It returns false with no error when the item is not claimable anymore,
	// typically because a concurrent run got there first; callers skip such
	// items. Claiming is the per-item compare-and-set that makes re-running a
	// partially failed commit safe: an item already "Invoiced" can never be
	// claimed again.
	ClaimInvoiced(ctx context.Context, id string) (bool, error)
}
