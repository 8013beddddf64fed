package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
)

func memoryItems() []entity.WorkItem {
	return []entity.WorkItem{
		{ID: "W1", StaffKey: "S1", TaskType: "Play-by-play", Status: "Done"},
		{ID: "W2", StaffKey: "S2", TaskType: "Recap", Status: "Done", PaidState: "Paid"},
		{ID: "W3", StaffKey: "S1", TaskType: "Recap", Status: "In Progress"},
	}
}

func TestMemoryLedgerReadAll(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(memoryItems()...)

	items, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "W1", items[0].ID)

	// Mutating the snapshot must not touch the ledger.
	items[0].PaidState = "Paid"
	again, err := l.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", again[0].PaidState)
}

func TestMemoryLedgerClaimInvoiced(t *testing.T) {
	ctx := context.Background()

	t.Run("claims a billable item once", func(t *testing.T) {
		l := NewMemoryLedger(memoryItems()...)

		ok, err := l.ClaimInvoiced(ctx, "W1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = l.ClaimInvoiced(ctx, "W1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("settled and unfinished items are not claimable", func(t *testing.T) {
		l := NewMemoryLedger(memoryItems()...)

		for _, id := range []string{"W2", "W3", "W9"} {
			ok, err := l.ClaimInvoiced(ctx, id)
			require.NoError(t, err)
			assert.False(t, ok, "item %s should not be claimable", id)
		}
	})

	t.Run("exactly one of many concurrent claims wins", func(t *testing.T) {
		l := NewMemoryLedger(memoryItems()...)

		const claimers = 16
		wins := make(chan bool, claimers)
		var wg sync.WaitGroup
		for i := 0; i < claimers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := l.ClaimInvoiced(ctx, "W1")
				assert.NoError(t, err)
				wins <- ok
			}()
		}
		wg.Wait()
		close(wins)

		won := 0
		for ok := range wins {
			if ok {
				won++
			}
		}
		assert.Equal(t, 1, won)
	})
}

func TestMemoryLedgerSetPaidState(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(memoryItems()...)

	require.NoError(t, l.SetPaidState(ctx, "W1", entity.PaidStatePaid))
	items, err := l.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.PaidStatePaid, items[0].PaidState)

	err = l.SetPaidState(ctx, "W9", entity.PaidStatePaid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, port.ErrItemNotFound))
}
