package port

import "context"

// Notifier pushes run outcomes to the accounting crew's chat. Notification
// failures are logged and dropped; they never affect the run that raised
// them.
type Notifier interface {
	// NotifyBatchIssued announces a committed batch.
	NotifyBatchIssued(ctx context.Context, invoiceNumber string, payees int, items int, grandTotal float64) error

	// NotifyPartialFailure flags items whose ledger write failed and still
	// needs a targeted retry.
	NotifyPartialFailure(ctx context.Context, invoiceNumber string, retryIDs []string) error
}
