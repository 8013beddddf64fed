package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
)

// MemoryLedger is an in-memory WorkLedger. It backs local development and
// tests; the claim semantics match the durable backends exactly.
type MemoryLedger struct {
	mu    sync.Mutex
	items []entity.WorkItem
}

// NewMemoryLedger seeds an in-memory ledger with the given rows.
func NewMemoryLedger(items ...entity.WorkItem) *MemoryLedger {
	rows := make([]entity.WorkItem, len(items))
	copy(rows, items)
	return &MemoryLedger{items: rows}
}

// ReadAll returns a copy of the rows to avoid mutation outside the lock.
func (l *MemoryLedger) ReadAll(ctx context.Context) ([]entity.WorkItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshot := make([]entity.WorkItem, len(l.items))
	copy(snapshot, l.items)
	return snapshot, nil
}

// SetPaidState overwrites one item's paid state.
func (l *MemoryLedger) SetPaidState(ctx context.Context, id, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].PaidState = value
			return nil
		}
	}
	return fmt.Errorf("work item %s: %w", id, port.ErrItemNotFound)
}

// ClaimInvoiced flips one billable item to "Invoiced" under the lock, so two
// overlapping runs can never both claim the same row.
func (l *MemoryLedger) ClaimInvoiced(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.items[i].ID != id {
			continue
		}
		if !l.items[i].Billable() {
			return false, nil
		}
		l.items[i].PaidState = entity.PaidStateInvoiced
		return true, nil
	}
	return false, nil
}
