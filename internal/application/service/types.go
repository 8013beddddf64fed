package service

import (
	"time"

	"github.com/daveytran/playback-stats-staff-payer/internal/billing"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Summary is the operator-facing digest every run returns: how much eligible
// work was found, for how many payees, worth how much, and every resolution
// gap hit on the way. The sets are flattened to sorted slices so the summary
// serializes cleanly.
type Summary struct {
	EligibleTasks      int                  `json:"eligible_tasks"`
	DistinctPayees     int                  `json:"distinct_payees"`
	GrandTotal         float64              `json:"grand_total"`
	UnmatchedTaskTypes []string             `json:"unmatched_task_types"`
	UnmatchedStaffKeys []string             `json:"unmatched_staff_keys"`
	TasksWithNoRate    []billing.NoRateTask `json:"tasks_with_no_rate"`
}

// Proposal is the caller-held handle a preview returns: the eligible items it
// saw, the payments it aggregated, and the exact batch a commit of this
// proposal would issue. No pending state stays behind in the service — the
// proposal is the whole of it, so commit can happen from another request,
// another process restart, or not at all.
//
// A proposal bills at its own resolved values. Ledger rows that changed after
// the preview are protected only by the per-item claim: items no longer
// billable are skipped at commit time.
type Proposal struct {
	Items       []entity.WorkItem         `json:"items"`
	Aggregation *entity.Aggregation       `json:"aggregation"`
	Errors      *billing.ResolutionErrors `json:"-"`
	Batch       *entity.InvoiceBatch      `json:"batch"`
	Summary     Summary                   `json:"summary"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// NothingToDo reports whether the preview found no billable work. Such a
// proposal carries no batch and no invoice number.
func (p *Proposal) NothingToDo() bool {
	return len(p.Items) == 0
}

// CommitResult is the outcome of one commit run. Batch holds the lines the
// run actually issued: every claimed item plus the write-failed ones, which
// are billed under this batch and only await their ledger flip. Items lost to
// a concurrent run are excluded. The three ID slices partition the proposal's
// items.
type CommitResult struct {
	Batch       *entity.InvoiceBatch `json:"batch,omitempty"`
	Aggregation *entity.Aggregation  `json:"aggregation,omitempty"`
	Summary     Summary              `json:"summary"`
	InvoicedIDs []string             `json:"invoiced_ids"`
	SkippedIDs  []string             `json:"skipped_ids"`
	RetryIDs    []string             `json:"retry_ids"`
	NothingToDo bool                 `json:"nothing_to_do"`
}

// RetryResult is the outcome of retrying ledger writes for items a previous
// commit reported in RetryIDs.
type RetryResult struct {
	MarkedIDs  []string `json:"marked_ids"`
	SkippedIDs []string `json:"skipped_ids"`
	RetryIDs   []string `json:"retry_ids"`
}
