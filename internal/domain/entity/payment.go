package entity

// Provenance of a resolved rate.
const (
	RateSourceCustom  = "custom"
	RateSourceDefault = "default"
	RateSourceNone    = "none"
)

// ResolvedTask pairs a work item with the rate a run resolved for it.
// Unresolvable task types keep the item visible with a zero rate so operators
// can review them; they are never dropped.
type ResolvedTask struct {
	Item         WorkItem `json:"item"`
	Rate         float64  `json:"rate"`
	RateSource   string   `json:"rate_source"`
	HasValidRate bool     `json:"has_valid_rate"`
}

// PaymentRecord accumulates one payee's resolved tasks. Records are keyed by
// resolved legal name, not staff key: two staff keys mapping to the same
// legal name merge into one record. StaffKey keeps the key of the first task
// seen for the payee.
type PaymentRecord struct {
	StaffKey    string         `json:"staff_key"`
	LegalName   string         `json:"legal_name"`
	HasMapping  bool           `json:"has_mapping"`
	Tasks       []ResolvedTask `json:"tasks"`
	TotalAmount float64        `json:"total_amount"`
}

// Aggregation holds the per-payee payment records of one run. Order lists
// legal names by first appearance in the ledger so that previews and commits
// walk payees identically.
type Aggregation struct {
	Payments map[string]*PaymentRecord `json:"payments"`
	Order    []string                  `json:"order"`
}

// Records returns the payment records in first-seen ledger order.
func (a *Aggregation) Records() []*PaymentRecord {
	records := make([]*PaymentRecord, 0, len(a.Order))
	for _, name := range a.Order {
		records = append(records, a.Payments[name])
	}
	return records
}

// TaskCount counts the resolved tasks across all payees.
func (a *Aggregation) TaskCount() int {
	count := 0
	for _, record := range a.Payments {
		count += len(record.Tasks)
	}
	return count
}

// GrandTotal sums the total amount across all payees.
func (a *Aggregation) GrandTotal() float64 {
	var sum float64
	for _, record := range a.Payments {
		sum += record.TotalAmount
	}
	return sum
}
