package billing

import (
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
)

// RateTable resolves pay rates for (task type, staff key) pairs. A custom
// per-staff rate, when present, wins over the task type's default rate.
type RateTable interface {
	HasType(taskType string) bool
	DefaultRate(taskType string) float64
	CustomRate(taskType, staffKey string) (float64, bool)
}

// StaffDirectory maps internal staff keys to canonical legal names.
type StaffDirectory interface {
	Lookup(staffKey string) (string, bool)
}

// Aggregator groups selected work into per-payee payment records, resolving a
// rate and a legal name for every item. Resolution gaps accumulate in
// ResolutionErrors and never abort the run; items without a usable rate stay
// in the output at rate zero so someone can fix the rate table and re-run.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates a new Aggregator.
func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate walks items in ledger order and upserts one PaymentRecord per
// resolved legal name. A directory miss falls back to the raw staff key as
// the display name; two staff keys resolving to the same legal name merge
// into a single record (one legal payee, one invoice line).
func (a *Aggregator) Aggregate(items []entity.WorkItem, rates RateTable, staff StaffDirectory) (*entity.Aggregation, *ResolutionErrors) {
	aggregation := &entity.Aggregation{
		Payments: make(map[string]*entity.PaymentRecord),
	}
	resolution := NewResolutionErrors()

	for _, item := range items {
		legalName, matched := staff.Lookup(item.StaffKey)
		if !matched {
			legalName = item.StaffKey
			resolution.AddUnmatchedStaffKey(item.StaffKey)
		}

		rate, source := a.resolveRate(item, rates, resolution)

		record, ok := aggregation.Payments[legalName]
		if !ok {
			record = &entity.PaymentRecord{
				StaffKey:   item.StaffKey,
				LegalName:  legalName,
				HasMapping: matched,
			}
			aggregation.Payments[legalName] = record
			aggregation.Order = append(aggregation.Order, legalName)
		}

		record.Tasks = append(record.Tasks, entity.ResolvedTask{
			Item:         item,
			Rate:         rate,
			RateSource:   source,
			HasValidRate: rate > 0,
		})
		record.TotalAmount += rate
	}

	a.logger.Debug("Payment aggregation complete",
		zap.Int("items", len(items)),
		zap.Int("payees", len(aggregation.Order)),
		zap.Float64("grand_total", aggregation.GrandTotal()),
		zap.Int("unmatched_task_types", len(resolution.UnmatchedTaskTypes())),
		zap.Int("unmatched_staff_keys", len(resolution.UnmatchedStaffKeys())))

	return aggregation, resolution
}

func (a *Aggregator) resolveRate(item entity.WorkItem, rates RateTable, resolution *ResolutionErrors) (float64, string) {
	if !rates.HasType(item.TaskType) {
		resolution.AddUnmatchedTaskType(item.TaskType)
		resolution.AddTaskWithNoRate(NoRateTask{
			ItemID:   item.ID,
			TaskType: item.TaskType,
			StaffKey: item.StaffKey,
		})
		return 0, entity.RateSourceNone
	}

	if custom, ok := rates.CustomRate(item.TaskType, item.StaffKey); ok {
		return custom, entity.RateSourceCustom
	}
	return rates.DefaultRate(item.TaskType), entity.RateSourceDefault
}
