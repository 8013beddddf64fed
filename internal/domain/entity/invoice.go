package entity

import "time"

// InvoiceLine is one payee's row in an invoice batch: the payee identity, a
// per-task-type work summary, the grouped evidence links, and the amount due.
type InvoiceLine struct {
	InvoiceNumber string    `json:"invoice_number"`
	IssuedAt      time.Time `json:"issued_at"`
	LegalName     string    `json:"legal_name"`
	WorkSummary   string    `json:"work_summary"`
	EvidenceText  string    `json:"evidence_text"`
	TaskCount     int       `json:"task_count"`
	TotalAmount   float64   `json:"total_amount"`
}

// InvoiceBatch is the output of one invoicing run. Every line shares the
// batch's invoice number, and a work item appears in at most one batch ever.
type InvoiceBatch struct {
	InvoiceNumber string        `json:"invoice_number"`
	IssuedAt      time.Time     `json:"issued_at"`
	Lines         []InvoiceLine `json:"lines"`
}

// GrandTotal sums the line totals of the batch.
func (b *InvoiceBatch) GrandTotal() float64 {
	var sum float64
	for _, line := range b.Lines {
		sum += line.TotalAmount
	}
	return sum
}

// TaskCount counts the work items billed across all lines.
func (b *InvoiceBatch) TaskCount() int {
	count := 0
	for _, line := range b.Lines {
		count += line.TaskCount
	}
	return count
}
