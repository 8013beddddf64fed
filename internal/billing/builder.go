package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
)

// BatchBuilder turns an aggregation into an invoice batch: one freshly drawn
// invoice number shared by the whole batch, one line per payee, work
// summarised per task type with grouped evidence links.
type BatchBuilder struct {
	logger *zap.Logger
}

// NewBatchBuilder creates a new BatchBuilder.
func NewBatchBuilder(logger *zap.Logger) *BatchBuilder {
	return &BatchBuilder{logger: logger}
}

// Build emits one invoice line per payment record, in first-seen ledger
// order. The invoice number combines the issue date with a random suffix so
// same-day batches stay distinguishable.
func (b *BatchBuilder) Build(aggregation *entity.Aggregation, now time.Time) *entity.InvoiceBatch {
	return b.Rebuild(aggregation, newInvoiceNumber(now), now)
}

// Rebuild assembles a batch under an already-issued invoice number. The
// commit path uses it to reshape lines after the ledger claim settles which
// items this run actually owns.
func (b *BatchBuilder) Rebuild(aggregation *entity.Aggregation, invoiceNumber string, issuedAt time.Time) *entity.InvoiceBatch {
	batch := &entity.InvoiceBatch{
		InvoiceNumber: invoiceNumber,
		IssuedAt:      issuedAt,
		Lines:         make([]entity.InvoiceLine, 0, len(aggregation.Order)),
	}
	for _, record := range aggregation.Records() {
		batch.Lines = append(batch.Lines, buildLine(invoiceNumber, issuedAt, record))
	}

	b.logger.Debug("Invoice batch built",
		zap.String("invoice_number", batch.InvoiceNumber),
		zap.Int("lines", len(batch.Lines)),
		zap.Float64("grand_total", batch.GrandTotal()))

	return batch
}

// newInvoiceNumber draws "INV-YYYYMMDD-XXXXXXXX": date stamp plus the first
// eight hex digits of a fresh UUID.
func newInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix[:8])
}

// taskGroup collects the evidence links of one task type, in ledger order.
type taskGroup struct {
	taskType string
	links    []string
}

func groupByTaskType(tasks []entity.ResolvedTask) []taskGroup {
	index := make(map[string]int)
	groups := make([]taskGroup, 0)
	for _, task := range tasks {
		i, ok := index[task.Item.TaskType]
		if !ok {
			i = len(groups)
			index[task.Item.TaskType] = i
			groups = append(groups, taskGroup{taskType: task.Item.TaskType})
		}
		groups[i].links = append(groups[i].links, task.Item.EvidenceLink)
	}
	return groups
}

func buildLine(invoiceNumber string, issuedAt time.Time, record *entity.PaymentRecord) entity.InvoiceLine {
	groups := groupByTaskType(record.Tasks)

	summary := make([]string, 0, len(groups))
	evidence := make([]string, 0, len(groups))
	for _, group := range groups {
		summary = append(summary, fmt.Sprintf("%d x %s", len(group.links), group.taskType))

		block := make([]string, 0, len(group.links)+1)
		block = append(block, fmt.Sprintf("%d x %s:", len(group.links), group.taskType))
		for i, link := range group.links {
			block = append(block, fmt.Sprintf("%d. %s", i+1, link))
		}
		evidence = append(evidence, strings.Join(block, "\n"))
	}

	return entity.InvoiceLine{
		InvoiceNumber: invoiceNumber,
		IssuedAt:      issuedAt,
		LegalName:     record.LegalName,
		WorkSummary:   strings.Join(summary, "\n"),
		EvidenceText:  strings.Join(evidence, "\n"),
		TaskCount:     len(record.Tasks),
		TotalAmount:   record.TotalAmount,
	}
}
