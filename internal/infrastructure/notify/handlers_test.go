package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/dispatcher"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/event"
)

type recordingNotifier struct {
	issuedNumber string
	payees       int
	items        int
	grandTotal   float64

	failureNumber string
	retryIDs      []string
}

func (r *recordingNotifier) NotifyBatchIssued(ctx context.Context, invoiceNumber string, payees, items int, grandTotal float64) error {
	r.issuedNumber = invoiceNumber
	r.payees = payees
	r.items = items
	r.grandTotal = grandTotal
	return nil
}

func (r *recordingNotifier) NotifyPartialFailure(ctx context.Context, invoiceNumber string, retryIDs []string) error {
	r.failureNumber = invoiceNumber
	r.retryIDs = retryIDs
	return nil
}

func TestRegisterHandlers(t *testing.T) {
	ctx := context.Background()

	t.Run("batch issued reaches the notifier", func(t *testing.T) {
		d := dispatcher.NewDispatcher()
		notifier := &recordingNotifier{}
		RegisterHandlers(d, notifier)

		evt := event.NewEvent(event.TypeBatchIssued, "INV-20260314-AAAA1111", map[string]interface{}{
			"payees":      2,
			"items":       5,
			"grand_total": 430000.0,
		})
		require.NoError(t, d.Dispatch(ctx, evt))

		assert.Equal(t, "INV-20260314-AAAA1111", notifier.issuedNumber)
		assert.Equal(t, 2, notifier.payees)
		assert.Equal(t, 5, notifier.items)
		assert.Equal(t, 430000.0, notifier.grandTotal)
	})

	t.Run("partial failure carries the retry ids", func(t *testing.T) {
		d := dispatcher.NewDispatcher()
		notifier := &recordingNotifier{}
		RegisterHandlers(d, notifier)

		evt := event.NewEvent(event.TypeLedgerPartialFailure, "INV-20260314-AAAA1111", map[string]interface{}{
			"retry_ids": []string{"W2", "W7"},
			"count":     2,
		})
		require.NoError(t, d.Dispatch(ctx, evt))

		assert.Equal(t, "INV-20260314-AAAA1111", notifier.failureNumber)
		assert.Equal(t, []string{"W2", "W7"}, notifier.retryIDs)
	})
}
