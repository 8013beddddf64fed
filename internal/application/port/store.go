package port

import (
	"context"
	"time"

	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
)

// Batch store statuses
const (
	BatchStatusDraft  = "DRAFT"
	BatchStatusIssued = "ISSUED"
)

// StoredBatch wraps a persisted invoice batch with its store status.
type StoredBatch struct {
	Batch     *entity.InvoiceBatch `json:"batch"`
	Status    string               `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// InvoiceStore persists emitted invoice batches. A commit run saves the batch
// as a draft before touching the ledger — that save is the emission
// confirmation the run needs before it may mark anything invoiced — and
// finalizes it afterwards with the lines the run actually claimed.
type InvoiceStore interface {
	// SaveDraft persists the batch with status DRAFT. Fails if the invoice
	// number already exists.
	SaveDraft(ctx context.Context, batch *entity.InvoiceBatch) error

	// Finalize replaces the draft's lines with the final ones and flips the
	// status to ISSUED.
	Finalize(ctx context.Context, batch *entity.InvoiceBatch) error

	// Delete removes a batch and its lines. Used when a run claimed nothing
	// and the drafted invoice number was never issued.
	Delete(ctx context.Context, invoiceNumber string) error

	// Get returns one stored batch by invoice number, or nil when absent.
	Get(ctx context.Context, invoiceNumber string) (*StoredBatch, error)

	// List returns stored batches newest-first.
	List(ctx context.Context, limit, offset int) ([]*StoredBatch, error)
}
