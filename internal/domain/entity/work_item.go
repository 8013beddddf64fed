package entity

import "strings"

// Sentinel values recognised in WorkItem.Status and WorkItem.PaidState.
// Everything else in those fields is free text owned by the work-tracking
// process.
const (
	StatusDone = "Done"

	PaidStatePaid     = "Paid"
	PaidStateInvoiced = "Invoiced"
)

// WorkItem is one row of the shared work ledger: a single deliverable a staff
// member produced for one playback (commentary, stats logging, highlights, ...).
// Blank fields are tolerated everywhere; CompletionDate is display text and is
// never parsed.
type WorkItem struct {
	ID             string `json:"id"`
	StaffKey       string `json:"staff_key"`
	TaskType       string `json:"task_type"`
	League         string `json:"league"`
	Round          string `json:"round"`
	Team1          string `json:"team1"`
	Team2          string `json:"team2"`
	EvidenceLink   string `json:"evidence_link"`
	CompletionDate string `json:"completion_date"`
	Status         string `json:"status"`
	PaidState      string `json:"paid_state"`
}

// Billable reports whether the item is completed and not yet billed.
// PaidState is uninterpreted beyond the two sentinels: any other value,
// including blank, means the work still has to be paid for.
func (w WorkItem) Billable() bool {
	if strings.TrimSpace(w.Status) != StatusDone {
		return false
	}
	switch strings.TrimSpace(w.PaidState) {
	case PaidStatePaid, PaidStateInvoiced:
		return false
	}
	return true
}
