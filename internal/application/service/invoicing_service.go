package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/dispatcher"
	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/billing"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/event"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/workflow"
	"github.com/daveytran/playback-stats-staff-payer/internal/obs"
)

// Configuration errors abort a run before any ledger read.
var (
	ErrLedgerNotConfigured = errors.New("work ledger not configured")
	ErrRatesNotConfigured  = errors.New("rate table not configured")
	ErrStaffNotConfigured  = errors.New("staff directory not configured")
	ErrNilProposal         = errors.New("nil or incomplete proposal")
)

// InvoicingService runs the selection -> aggregation -> batch build -> ledger
// write-back pipeline over the work ledger.
type InvoicingService interface {
	// Preview runs everything short of the ledger write and returns the
	// proposal a commit would execute. Safe to call repeatedly.
	Preview(ctx context.Context) (*Proposal, error)

	// Commit previews and immediately commits the result.
	Commit(ctx context.Context) (*CommitResult, error)

	// CommitProposal issues the proposal's batch and marks its items
	// invoiced. The batch emission is confirmed before any ledger write;
	// items another run claimed in the meantime are skipped, and items whose
	// write failed are reported for targeted retry.
	CommitProposal(ctx context.Context, proposal *Proposal) (*CommitResult, error)

	// RetryMarking retries the ledger flip for item ids a previous commit
	// reported in RetryIDs. It never issues a new invoice.
	RetryMarking(ctx context.Context, ids []string) (*RetryResult, error)

	// MarkPaid records that an invoiced item has been paid out.
	MarkPaid(ctx context.Context, id string) error
}

type invoicingServiceImpl struct {
	ledger     port.WorkLedger
	rates      billing.RateTable
	staff      billing.StaffDirectory
	store      port.InvoiceStore // optional
	lock       port.RunLock      // optional
	dispatcher dispatcher.Dispatcher

	selector   *billing.Selector
	aggregator *billing.Aggregator
	builder    *billing.BatchBuilder

	logger Logger
}

// NewInvoicingService creates a new InvoicingService. Store and lock may be
// nil: without a store, batch emission is confirmed in memory only; without a
// lock, concurrent commits lean entirely on the per-item claim.
func NewInvoicingService(
	ledger port.WorkLedger,
	rates billing.RateTable,
	staff billing.StaffDirectory,
	store port.InvoiceStore,
	lock port.RunLock,
	disp dispatcher.Dispatcher,
	selector *billing.Selector,
	aggregator *billing.Aggregator,
	builder *billing.BatchBuilder,
	logger Logger,
) InvoicingService {
	return &invoicingServiceImpl{
		ledger:     ledger,
		rates:      rates,
		staff:      staff,
		store:      store,
		lock:       lock,
		dispatcher: disp,
		selector:   selector,
		aggregator: aggregator,
		builder:    builder,
		logger:     logger,
	}
}

// Preview runs the read-only pipeline and publishes a run.previewed event.
func (s *invoicingServiceImpl) Preview(ctx context.Context) (*Proposal, error) {
	start := time.Now()
	proposal, err := s.propose(ctx)
	if err != nil {
		obs.RecordRun("preview", start, err, false)
		return nil, err
	}

	invoiceNumber := ""
	if proposal.Batch != nil {
		invoiceNumber = proposal.Batch.InvoiceNumber
	}
	s.publish(ctx, event.NewEvent(event.TypeRunPreviewed, invoiceNumber, map[string]interface{}{
		"eligible":    proposal.Summary.EligibleTasks,
		"payees":      proposal.Summary.DistinctPayees,
		"grand_total": proposal.Summary.GrandTotal,
	}))

	s.logger.Info("Preview complete",
		"eligible", proposal.Summary.EligibleTasks,
		"payees", proposal.Summary.DistinctPayees,
		"grand_total", proposal.Summary.GrandTotal)

	obs.RecordRun("preview", start, nil, proposal.NothingToDo())
	return proposal, nil
}

// Commit previews and immediately commits the result.
func (s *invoicingServiceImpl) Commit(ctx context.Context) (*CommitResult, error) {
	start := time.Now()
	proposal, err := s.propose(ctx)
	if err != nil {
		obs.RecordRun("commit", start, err, false)
		return nil, err
	}

	result, err := s.CommitProposal(ctx, proposal)
	obs.RecordRun("commit", start, err, err == nil && result.NothingToDo)
	if err != nil {
		return nil, err
	}
	obs.RecordCommitOutcome(len(result.InvoicedIDs), len(result.SkippedIDs), len(result.RetryIDs))
	return result, nil
}

// propose walks SELECTED -> AGGREGATED -> BATCH_BUILT without side effects.
func (s *invoicingServiceImpl) propose(ctx context.Context) (*Proposal, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}

	machine := workflow.NewRunMachine(nil)

	items, err := s.ledger.ReadAll(ctx)
	if err != nil {
		s.failRun(ctx, machine, "select", err)
		return nil, fmt.Errorf("read work ledger: %w", err)
	}

	eligible := s.selector.Select(items)
	if err := machine.Fire(ctx, workflow.TriggerSelect); err != nil {
		return nil, fmt.Errorf("run stage: %w", err)
	}

	aggregation, resolution := s.aggregator.Aggregate(eligible, s.rates, s.staff)
	if err := machine.Fire(ctx, workflow.TriggerAggregate); err != nil {
		return nil, fmt.Errorf("run stage: %w", err)
	}

	proposal := &Proposal{
		Items:       eligible,
		Aggregation: aggregation,
		Errors:      resolution,
		Summary:     buildSummary(eligible, aggregation, resolution),
		CreatedAt:   time.Now(),
	}

	// No billable work: a defined result, not an error. No invoice number is
	// drawn for it.
	if len(eligible) == 0 {
		return proposal, nil
	}

	proposal.Batch = s.builder.Build(aggregation, time.Now())
	if err := machine.Fire(ctx, workflow.TriggerBuildBatch); err != nil {
		return nil, fmt.Errorf("run stage: %w", err)
	}

	return proposal, nil
}

// CommitProposal issues the proposal's batch and flips its items to
// "Invoiced". The ledger mutation is strictly last: nothing is written unless
// the batch emission is confirmed first.
func (s *invoicingServiceImpl) CommitProposal(ctx context.Context, proposal *Proposal) (*CommitResult, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}
	if proposal == nil || proposal.Aggregation == nil {
		return nil, ErrNilProposal
	}

	if proposal.NothingToDo() {
		s.logger.Info("Commit found nothing to do")
		return &CommitResult{
			Summary:     proposal.Summary,
			InvoicedIDs: []string{},
			SkippedIDs:  []string{},
			RetryIDs:    []string{},
			NothingToDo: true,
		}, nil
	}
	if proposal.Batch == nil {
		return nil, ErrNilProposal
	}

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		defer func() {
			if err := release(ctx); err != nil {
				s.logger.Error("Failed to release run lock", "error", err)
			}
		}()
	}

	emitted := false
	machine := workflow.NewRunMachine(func(ctx context.Context) bool { return emitted })
	for _, trigger := range []workflow.Trigger{workflow.TriggerSelect, workflow.TriggerAggregate, workflow.TriggerBuildBatch} {
		if err := machine.Fire(ctx, trigger); err != nil {
			return nil, fmt.Errorf("run stage: %w", err)
		}
	}

	batch := proposal.Batch

	// Emission confirmation. If the batch cannot be persisted the run aborts
	// here, with the ledger untouched.
	if s.store != nil {
		if err := s.store.SaveDraft(ctx, batch); err != nil {
			s.failRun(ctx, machine, "emit", err)
			return nil, fmt.Errorf("emit invoice batch %s: %w", batch.InvoiceNumber, err)
		}
	}
	emitted = true

	invoiced := make([]string, 0, len(proposal.Items))
	skipped := make([]string, 0)
	retry := make([]string, 0)
	kept := make(map[string]bool, len(proposal.Items))

	for _, item := range proposal.Items {
		ok, err := s.ledger.ClaimInvoiced(ctx, item.ID)
		switch {
		case err != nil:
			// The item is billed under this batch; only its ledger flip is
			// outstanding. Reported for targeted retry, never re-invoiced.
			s.logger.Error("Ledger write failed", "item_id", item.ID, "error", err)
			retry = append(retry, item.ID)
			kept[item.ID] = true
		case !ok:
			s.logger.Info("Item claimed by another run, skipping", "item_id", item.ID)
			skipped = append(skipped, item.ID)
		default:
			invoiced = append(invoiced, item.ID)
			kept[item.ID] = true
		}
	}

	finalAggregation := filterAggregation(proposal.Aggregation, kept)
	finalBatch := s.builder.Rebuild(finalAggregation, batch.InvoiceNumber, batch.IssuedAt)

	if s.store != nil {
		if len(finalBatch.Lines) == 0 {
			// Every item went to a concurrent run; the drafted number was
			// never issued.
			if err := s.store.Delete(ctx, batch.InvoiceNumber); err != nil {
				s.logger.Error("Failed to delete unissued draft", "invoice_number", batch.InvoiceNumber, "error", err)
			}
		} else if err := s.store.Finalize(ctx, finalBatch); err != nil {
			// The ledger is already written; losing the run result over store
			// bookkeeping would be worse than logging it.
			s.logger.Error("Failed to finalize stored batch", "invoice_number", batch.InvoiceNumber, "error", err)
		}
	}

	if err := machine.Fire(ctx, workflow.TriggerUpdateLedger); err != nil {
		s.logger.Error("Run stage violation after ledger write", "error", err)
	}

	if len(finalBatch.Lines) > 0 {
		s.publish(ctx, event.NewEvent(event.TypeBatchIssued, finalBatch.InvoiceNumber, map[string]interface{}{
			"payees":      len(finalBatch.Lines),
			"items":       finalBatch.TaskCount(),
			"grand_total": finalBatch.GrandTotal(),
		}))
	}
	if len(retry) > 0 {
		s.publish(ctx, event.NewEvent(event.TypeLedgerPartialFailure, finalBatch.InvoiceNumber, map[string]interface{}{
			"retry_ids": retry,
			"count":     len(retry),
		}))
	}

	s.logger.Info("Commit complete",
		"invoice_number", finalBatch.InvoiceNumber,
		"invoiced", len(invoiced),
		"skipped", len(skipped),
		"retry", len(retry),
		"grand_total", finalBatch.GrandTotal())

	return &CommitResult{
		Batch:       finalBatch,
		Aggregation: finalAggregation,
		Summary:     proposal.Summary,
		InvoicedIDs: invoiced,
		SkippedIDs:  skipped,
		RetryIDs:    retry,
	}, nil
}

// RetryMarking re-attempts the ledger flip for previously reported ids.
func (s *invoicingServiceImpl) RetryMarking(ctx context.Context, ids []string) (*RetryResult, error) {
	if s.ledger == nil {
		return nil, ErrLedgerNotConfigured
	}

	result := &RetryResult{
		MarkedIDs:  []string{},
		SkippedIDs: []string{},
		RetryIDs:   []string{},
	}

	for _, id := range ids {
		ok, err := s.ledger.ClaimInvoiced(ctx, id)
		switch {
		case err != nil:
			s.logger.Error("Retry write failed", "item_id", id, "error", err)
			result.RetryIDs = append(result.RetryIDs, id)
		case !ok:
			// Already flipped (possibly by the failed write itself landing)
			// or no longer billable; either way there is nothing to retry.
			result.SkippedIDs = append(result.SkippedIDs, id)
		default:
			result.MarkedIDs = append(result.MarkedIDs, id)
		}
	}

	s.logger.Info("Retry marking complete",
		"marked", len(result.MarkedIDs),
		"skipped", len(result.SkippedIDs),
		"still_failing", len(result.RetryIDs))

	obs.RecordCommitOutcome(len(result.MarkedIDs), len(result.SkippedIDs), len(result.RetryIDs))
	return result, nil
}

// MarkPaid records a payout against an invoiced item.
func (s *invoicingServiceImpl) MarkPaid(ctx context.Context, id string) error {
	if s.ledger == nil {
		return ErrLedgerNotConfigured
	}
	if err := s.ledger.SetPaidState(ctx, id, entity.PaidStatePaid); err != nil {
		return fmt.Errorf("mark item %s paid: %w", id, err)
	}
	s.logger.Info("Item marked paid", "item_id", id)
	return nil
}

func (s *invoicingServiceImpl) checkConfigured() error {
	if s.ledger == nil {
		return ErrLedgerNotConfigured
	}
	if s.rates == nil {
		return ErrRatesNotConfigured
	}
	if s.staff == nil {
		return ErrStaffNotConfigured
	}
	return nil
}

func (s *invoicingServiceImpl) failRun(ctx context.Context, machine *workflow.Machine, stage string, cause error) {
	if err := machine.Fire(ctx, workflow.TriggerFail); err != nil {
		s.logger.Error("Failed to fail run", "error", err)
	}
	s.publish(ctx, event.NewEvent(event.TypeRunFailed, "", map[string]interface{}{
		"stage": stage,
		"error": cause.Error(),
	}))
}

func (s *invoicingServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.DispatchAsync(ctx, evt)
}

func buildSummary(eligible []entity.WorkItem, aggregation *entity.Aggregation, resolution *billing.ResolutionErrors) Summary {
	return Summary{
		EligibleTasks:      len(eligible),
		DistinctPayees:     len(aggregation.Order),
		GrandTotal:         aggregation.GrandTotal(),
		UnmatchedTaskTypes: resolution.UnmatchedTaskTypes(),
		UnmatchedStaffKeys: resolution.UnmatchedStaffKeys(),
		TasksWithNoRate:    resolution.TasksWithNoRate(),
	}
}

// filterAggregation keeps only the tasks whose item ids are in keep,
// recomputing totals and dropping payees left with no tasks.
func filterAggregation(aggregation *entity.Aggregation, keep map[string]bool) *entity.Aggregation {
	filtered := &entity.Aggregation{Payments: make(map[string]*entity.PaymentRecord)}
	for _, name := range aggregation.Order {
		record := aggregation.Payments[name]
		next := &entity.PaymentRecord{
			LegalName:  record.LegalName,
			HasMapping: record.HasMapping,
		}
		for _, task := range record.Tasks {
			if keep[task.Item.ID] {
				if len(next.Tasks) == 0 {
					// StaffKey tracks the payee's first surviving task, so a
					// record whose opening item went to a concurrent run does
					// not keep that item's key.
					next.StaffKey = task.Item.StaffKey
				}
				next.Tasks = append(next.Tasks, task)
				next.TotalAmount += task.Rate
			}
		}
		if len(next.Tasks) > 0 {
			filtered.Payments[name] = next
			filtered.Order = append(filtered.Order, name)
		}
	}
	return filtered
}
