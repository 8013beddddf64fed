package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/dispatcher"
	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/billing"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/event"
)

// MockLedger is an in-memory WorkLedger with injectable claim failures.
type MockLedger struct {
	mu            sync.Mutex
	items         []entity.WorkItem
	readErr       error
	claimErrs     map[string]error
	claimAttempts int
	claimsByID    map[string]int
}

func NewMockLedger(items ...entity.WorkItem) *MockLedger {
	return &MockLedger{
		items:      items,
		claimErrs:  make(map[string]error),
		claimsByID: make(map[string]int),
	}
}

func (m *MockLedger) ReadAll(ctx context.Context) ([]entity.WorkItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	snapshot := make([]entity.WorkItem, len(m.items))
	copy(snapshot, m.items)
	return snapshot, nil
}

func (m *MockLedger) SetPaidState(ctx context.Context, id, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].PaidState = value
			return nil
		}
	}
	return fmt.Errorf("item %s not found", id)
}

func (m *MockLedger) ClaimInvoiced(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimAttempts++
	if err := m.claimErrs[id]; err != nil {
		return false, err
	}
	for i := range m.items {
		if m.items[i].ID != id {
			continue
		}
		if !m.items[i].Billable() {
			return false, nil
		}
		m.items[i].PaidState = entity.PaidStateInvoiced
		m.claimsByID[id]++
		return true, nil
	}
	return false, nil
}

func (m *MockLedger) paidState(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			return item.PaidState
		}
	}
	return ""
}

func (m *MockLedger) attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claimAttempts
}

// MockStore records batch persistence calls.
type MockStore struct {
	mu       sync.Mutex
	draftErr error
	finalErr error
	drafts   []string
	finals   []*entity.InvoiceBatch
	deleted  []string
	byNumber map[string]*port.StoredBatch
}

func NewMockStore() *MockStore {
	return &MockStore{byNumber: make(map[string]*port.StoredBatch)}
}

func (m *MockStore) SaveDraft(ctx context.Context, batch *entity.InvoiceBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draftErr != nil {
		return m.draftErr
	}
	if _, exists := m.byNumber[batch.InvoiceNumber]; exists {
		return fmt.Errorf("invoice %s already exists", batch.InvoiceNumber)
	}
	m.drafts = append(m.drafts, batch.InvoiceNumber)
	m.byNumber[batch.InvoiceNumber] = &port.StoredBatch{Batch: batch, Status: port.BatchStatusDraft}
	return nil
}

func (m *MockStore) Finalize(ctx context.Context, batch *entity.InvoiceBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalErr != nil {
		return m.finalErr
	}
	m.finals = append(m.finals, batch)
	m.byNumber[batch.InvoiceNumber] = &port.StoredBatch{Batch: batch, Status: port.BatchStatusIssued}
	return nil
}

func (m *MockStore) Delete(ctx context.Context, invoiceNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, invoiceNumber)
	delete(m.byNumber, invoiceNumber)
	return nil
}

func (m *MockStore) Get(ctx context.Context, invoiceNumber string) (*port.StoredBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byNumber[invoiceNumber], nil
}

func (m *MockStore) List(ctx context.Context, limit, offset int) ([]*port.StoredBatch, error) {
	return nil, nil
}

func (m *MockStore) draftCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drafts)
}

// MockLock counts acquisitions and releases.
type MockLock struct {
	mu       sync.Mutex
	err      error
	acquired int
	released int
}

func (m *MockLock) Acquire(ctx context.Context) (port.Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.acquired++
	return func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.released++
		return nil
	}, nil
}

// MockDispatcher records dispatched events synchronously.
type MockDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *MockDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler) {}

func (m *MockDispatcher) SubscribeNamed(eventType event.Type, name string, handler dispatcher.Handler) {
}

func (m *MockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.record(evt)
	return nil
}

func (m *MockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.record(evt)
}

func (m *MockDispatcher) Close() error { return nil }

func (m *MockDispatcher) record(evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *MockDispatcher) byType(eventType event.Type) []*event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*event.Event
	for _, evt := range m.events {
		if evt.Type == eventType {
			matched = append(matched, evt)
		}
	}
	return matched
}

// MockLogger discards everything.
type MockLogger struct{}

func (MockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (MockLogger) Error(msg string, keysAndValues ...interface{}) {}

// MockRates resolves from fixed default and per-staff custom tables.
type MockRates struct {
	defaults map[string]float64
	customs  map[string]map[string]float64
}

func (m *MockRates) HasType(taskType string) bool {
	_, ok := m.defaults[taskType]
	return ok
}

func (m *MockRates) DefaultRate(taskType string) float64 {
	return m.defaults[taskType]
}

func (m *MockRates) CustomRate(taskType, staffKey string) (float64, bool) {
	rate, ok := m.customs[taskType][staffKey]
	return rate, ok
}

// MockStaff resolves from a fixed key -> legal name map.
type MockStaff struct {
	names map[string]string
}

func (m *MockStaff) Lookup(staffKey string) (string, bool) {
	name, ok := m.names[staffKey]
	return name, ok
}

func testRates() *MockRates {
	return &MockRates{
		defaults: map[string]float64{
			"Play-by-play": 100000,
			"Recap":        80000,
		},
		customs: map[string]map[string]float64{
			"Play-by-play": {"S2": 150000},
		},
	}
}

func testStaff() *MockStaff {
	return &MockStaff{names: map[string]string{
		"S1": "Alice Nguyen",
		"S2": "Bob Tran",
		"S3": "Alice Nguyen",
	}}
}

func doneItem(id, staffKey, taskType string) entity.WorkItem {
	return entity.WorkItem{
		ID:           id,
		StaffKey:     staffKey,
		TaskType:     taskType,
		League:       "VSL",
		Round:        "R3",
		EvidenceLink: "http://evidence/" + id,
		Status:       entity.StatusDone,
	}
}

type fixture struct {
	ledger *MockLedger
	store  *MockStore
	lock   *MockLock
	events *MockDispatcher
	svc    InvoicingService
}

func newFixture(items ...entity.WorkItem) *fixture {
	f := &fixture{
		ledger: NewMockLedger(items...),
		store:  NewMockStore(),
		lock:   &MockLock{},
		events: &MockDispatcher{},
	}
	f.svc = newService(f.ledger, f.store, f.lock, f.events)
	return f
}

func newService(ledger port.WorkLedger, store port.InvoiceStore, lock port.RunLock, disp dispatcher.Dispatcher) InvoicingService {
	zlog := zap.NewNop()
	return NewInvoicingService(
		ledger,
		testRates(),
		testStaff(),
		store,
		lock,
		disp,
		billing.NewSelector(zlog),
		billing.NewAggregator(zlog),
		billing.NewBatchBuilder(zlog),
		MockLogger{},
	)
}

func standardItems() []entity.WorkItem {
	inProgress := doneItem("A4", "S1", "Recap")
	inProgress.Status = "In Progress"
	paid := doneItem("A5", "S2", "Recap")
	paid.PaidState = entity.PaidStatePaid

	return []entity.WorkItem{
		doneItem("A1", "S1", "Play-by-play"),
		doneItem("A2", "S2", "Play-by-play"),
		doneItem("A3", "S1", "Recap"),
		inProgress,
		paid,
	}
}

func TestCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("invoices all eligible items", func(t *testing.T) {
		f := newFixture(standardItems()...)

		result, err := f.svc.Commit(ctx)
		require.NoError(t, err)

		assert.False(t, result.NothingToDo)
		assert.Equal(t, []string{"A1", "A2", "A3"}, result.InvoicedIDs)
		assert.Empty(t, result.SkippedIDs)
		assert.Empty(t, result.RetryIDs)

		require.NotNil(t, result.Batch)
		assert.True(t, strings.HasPrefix(result.Batch.InvoiceNumber, "INV-"))
		assert.Len(t, result.Batch.Lines, 2)
		assert.Equal(t, 330000.0, result.Batch.GrandTotal())
		assert.Equal(t, 3, result.Batch.TaskCount())

		assert.Equal(t, 3, result.Summary.EligibleTasks)
		assert.Equal(t, 2, result.Summary.DistinctPayees)
		assert.Equal(t, 330000.0, result.Summary.GrandTotal)

		for _, id := range []string{"A1", "A2", "A3"} {
			assert.Equal(t, entity.PaidStateInvoiced, f.ledger.paidState(id))
		}
		assert.Equal(t, "", f.ledger.paidState("A4"))
		assert.Equal(t, entity.PaidStatePaid, f.ledger.paidState("A5"))

		assert.Equal(t, 1, f.store.draftCount())
		stored, err := f.store.Get(ctx, result.Batch.InvoiceNumber)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, port.BatchStatusIssued, stored.Status)

		assert.Equal(t, 1, f.lock.acquired)
		assert.Equal(t, 1, f.lock.released)

		issued := f.events.byType(event.TypeBatchIssued)
		require.Len(t, issued, 1)
		assert.Equal(t, result.Batch.InvoiceNumber, issued[0].InvoiceNumber)
		assert.Equal(t, int64(2), issued[0].GetPayloadInt("payees"))
		assert.Equal(t, int64(3), issued[0].GetPayloadInt("items"))
	})

	t.Run("second run finds nothing to do", func(t *testing.T) {
		f := newFixture(standardItems()...)

		first, err := f.svc.Commit(ctx)
		require.NoError(t, err)
		assert.Len(t, first.InvoicedIDs, 3)

		second, err := f.svc.Commit(ctx)
		require.NoError(t, err)
		assert.True(t, second.NothingToDo)
		assert.Empty(t, second.InvoicedIDs)
		assert.Nil(t, second.Batch)

		assert.Equal(t, 1, f.store.draftCount())
		assert.Len(t, f.events.byType(event.TypeBatchIssued), 1)
	})

	t.Run("empty ledger is nothing to do", func(t *testing.T) {
		f := newFixture()

		result, err := f.svc.Commit(ctx)
		require.NoError(t, err)
		assert.True(t, result.NothingToDo)
		assert.Equal(t, 0, f.store.draftCount())
		assert.Equal(t, 0, f.ledger.attempts())
		assert.Empty(t, f.events.byType(event.TypeBatchIssued))
	})

	t.Run("emission failure leaves ledger untouched", func(t *testing.T) {
		f := newFixture(standardItems()...)
		f.store.draftErr = errors.New("disk full")

		_, err := f.svc.Commit(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "emit invoice batch")

		assert.Equal(t, 0, f.ledger.attempts())
		assert.Equal(t, "", f.ledger.paidState("A1"))

		failed := f.events.byType(event.TypeRunFailed)
		require.Len(t, failed, 1)
		assert.Equal(t, "emit", failed[0].GetPayloadString("stage"))

		assert.Equal(t, 1, f.lock.released)
	})

	t.Run("write failure keeps item billed and reports retry", func(t *testing.T) {
		f := newFixture(standardItems()...)
		f.ledger.claimErrs["A2"] = errors.New("write timeout")

		result, err := f.svc.Commit(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{"A1", "A3"}, result.InvoicedIDs)
		assert.Equal(t, []string{"A2"}, result.RetryIDs)
		assert.Empty(t, result.SkippedIDs)

		// A2 stays in the issued batch; only its ledger flip is outstanding.
		require.Len(t, result.Batch.Lines, 2)
		assert.Equal(t, 330000.0, result.Batch.GrandTotal())
		assert.Equal(t, "", f.ledger.paidState("A2"))

		partial := f.events.byType(event.TypeLedgerPartialFailure)
		require.Len(t, partial, 1)
		assert.Equal(t, int64(1), partial[0].GetPayloadInt("count"))
	})

	t.Run("busy lock aborts before any work", func(t *testing.T) {
		f := newFixture(standardItems()...)
		f.lock.err = port.ErrLockHeld

		_, err := f.svc.Commit(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, port.ErrLockHeld))
		assert.Equal(t, 0, f.ledger.attempts())
		assert.Equal(t, 0, f.store.draftCount())
	})

	t.Run("read failure publishes run failed", func(t *testing.T) {
		f := newFixture(standardItems()...)
		f.ledger.readErr = errors.New("sheet unavailable")

		_, err := f.svc.Commit(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read work ledger")

		failed := f.events.byType(event.TypeRunFailed)
		require.Len(t, failed, 1)
		assert.Equal(t, "select", failed[0].GetPayloadString("stage"))
	})
}

func TestCommitConcurrentRuns(t *testing.T) {
	ctx := context.Background()

	// No lock and no store: the per-item claim alone must keep two overlapping
	// runs from double-billing anything.
	ledger := NewMockLedger(standardItems()...)
	svc := newService(ledger, nil, nil, nil)

	results := make([]*CommitResult, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Commit(ctx)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	var invoiced []string
	for _, result := range results {
		invoiced = append(invoiced, result.InvoicedIDs...)
	}
	sort.Strings(invoiced)
	assert.Equal(t, []string{"A1", "A2", "A3"}, invoiced)

	for _, id := range []string{"A1", "A2", "A3"} {
		assert.Equal(t, 1, ledger.claimsByID[id], "item %s claimed more than once", id)
		assert.Equal(t, entity.PaidStateInvoiced, ledger.paidState(id))
	}
}

func TestPreview(t *testing.T) {
	ctx := context.Background()

	t.Run("reads without writing", func(t *testing.T) {
		f := newFixture(standardItems()...)

		proposal, err := f.svc.Preview(ctx)
		require.NoError(t, err)

		assert.False(t, proposal.NothingToDo())
		assert.Equal(t, 3, proposal.Summary.EligibleTasks)
		assert.Equal(t, 2, proposal.Summary.DistinctPayees)
		assert.Equal(t, 330000.0, proposal.Summary.GrandTotal)
		require.NotNil(t, proposal.Batch)

		assert.Equal(t, 0, f.ledger.attempts())
		assert.Equal(t, "", f.ledger.paidState("A1"))
		assert.Equal(t, 0, f.store.draftCount())

		previewed := f.events.byType(event.TypeRunPreviewed)
		require.Len(t, previewed, 1)
	})

	t.Run("empty preview draws no invoice number", func(t *testing.T) {
		f := newFixture()

		proposal, err := f.svc.Preview(ctx)
		require.NoError(t, err)
		assert.True(t, proposal.NothingToDo())
		assert.Nil(t, proposal.Batch)
	})

	t.Run("resolution gaps surface in the summary", func(t *testing.T) {
		f := newFixture(
			doneItem("B1", "S1", "Hype reel"),
			doneItem("B2", "ghost", "Recap"),
		)

		proposal, err := f.svc.Preview(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{"Hype reel"}, proposal.Summary.UnmatchedTaskTypes)
		assert.Equal(t, []string{"ghost"}, proposal.Summary.UnmatchedStaffKeys)
		require.Len(t, proposal.Summary.TasksWithNoRate, 1)
		assert.Equal(t, "B1", proposal.Summary.TasksWithNoRate[0].ItemID)

		// Gap items still bill: B1 at zero, B2 under its key as payee name.
		assert.Equal(t, 2, proposal.Summary.EligibleTasks)
		assert.Equal(t, 2, proposal.Summary.DistinctPayees)
		assert.Equal(t, 80000.0, proposal.Summary.GrandTotal)

		require.NotNil(t, proposal.Batch)
		payees := make([]string, 0, len(proposal.Batch.Lines))
		for _, line := range proposal.Batch.Lines {
			payees = append(payees, line.LegalName)
		}
		assert.ElementsMatch(t, []string{"Alice Nguyen", "ghost"}, payees)
	})

	t.Run("commit of a previewed proposal bills the previewed values", func(t *testing.T) {
		f := newFixture(standardItems()...)

		proposal, err := f.svc.Preview(ctx)
		require.NoError(t, err)

		result, err := f.svc.CommitProposal(ctx, proposal)
		require.NoError(t, err)

		assert.Equal(t, proposal.Batch.InvoiceNumber, result.Batch.InvoiceNumber)
		assert.Equal(t, proposal.Batch.IssuedAt, result.Batch.IssuedAt)
		assert.Equal(t, proposal.Batch.Lines, result.Batch.Lines)
		assert.Equal(t, proposal.Summary, result.Summary)
	})
}

func TestCommitProposalRaces(t *testing.T) {
	ctx := context.Background()

	t.Run("items claimed elsewhere drop out of the batch", func(t *testing.T) {
		f := newFixture(standardItems()...)

		proposal, err := f.svc.Preview(ctx)
		require.NoError(t, err)

		// Another run flips Alice's items between preview and commit.
		for _, id := range []string{"A1", "A3"} {
			ok, err := f.ledger.ClaimInvoiced(ctx, id)
			require.NoError(t, err)
			require.True(t, ok)
		}

		result, err := f.svc.CommitProposal(ctx, proposal)
		require.NoError(t, err)

		assert.Equal(t, []string{"A2"}, result.InvoicedIDs)
		assert.Equal(t, []string{"A1", "A3"}, result.SkippedIDs)
		assert.Empty(t, result.RetryIDs)

		require.Len(t, result.Batch.Lines, 1)
		assert.Equal(t, "Bob Tran", result.Batch.Lines[0].LegalName)
		assert.Equal(t, 150000.0, result.Batch.GrandTotal())

		stored, err := f.store.Get(ctx, result.Batch.InvoiceNumber)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, port.BatchStatusIssued, stored.Status)
		assert.Len(t, stored.Batch.Lines, 1)
	})

	t.Run("payee record keeps the key of its first surviving task", func(t *testing.T) {
		// S1 and S3 both resolve to Alice Nguyen, so her record opens with S1.
		f := newFixture(
			doneItem("B1", "S1", "Play-by-play"),
			doneItem("B2", "S3", "Recap"),
		)

		proposal, err := f.svc.Preview(ctx)
		require.NoError(t, err)
		assert.Equal(t, "S1", proposal.Aggregation.Payments["Alice Nguyen"].StaffKey)

		// Another run takes the S1 item before commit.
		ok, err := f.ledger.ClaimInvoiced(ctx, "B1")
		require.NoError(t, err)
		require.True(t, ok)

		result, err := f.svc.CommitProposal(ctx, proposal)
		require.NoError(t, err)

		assert.Equal(t, []string{"B2"}, result.InvoicedIDs)
		assert.Equal(t, []string{"B1"}, result.SkippedIDs)

		record := result.Aggregation.Payments["Alice Nguyen"]
		require.NotNil(t, record)
		require.Len(t, record.Tasks, 1)
		assert.Equal(t, "S3", record.StaffKey)
	})

	t.Run("fully raced proposal issues nothing", func(t *testing.T) {
		f := newFixture(standardItems()...)

		proposal, err := f.svc.Preview(ctx)
		require.NoError(t, err)

		for _, id := range []string{"A1", "A2", "A3"} {
			_, err := f.ledger.ClaimInvoiced(ctx, id)
			require.NoError(t, err)
		}

		result, err := f.svc.CommitProposal(ctx, proposal)
		require.NoError(t, err)

		assert.Empty(t, result.InvoicedIDs)
		assert.Equal(t, []string{"A1", "A2", "A3"}, result.SkippedIDs)
		assert.Empty(t, result.Batch.Lines)

		assert.Equal(t, []string{proposal.Batch.InvoiceNumber}, f.store.deleted)
		assert.Empty(t, f.events.byType(event.TypeBatchIssued))
	})

	t.Run("nil proposal is rejected", func(t *testing.T) {
		f := newFixture(standardItems()...)

		_, err := f.svc.CommitProposal(ctx, nil)
		assert.True(t, errors.Is(err, ErrNilProposal))
	})
}

func TestRetryMarking(t *testing.T) {
	ctx := context.Background()

	f := newFixture(standardItems()...)
	f.ledger.claimErrs["A3"] = errors.New("still down")

	// A2 was already flipped by the original run.
	ok, err := f.ledger.ClaimInvoiced(ctx, "A2")
	require.NoError(t, err)
	require.True(t, ok)

	result, err := f.svc.RetryMarking(ctx, []string{"A1", "A2", "A3", "A9"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A1"}, result.MarkedIDs)
	assert.Equal(t, []string{"A2", "A9"}, result.SkippedIDs)
	assert.Equal(t, []string{"A3"}, result.RetryIDs)
	assert.Equal(t, entity.PaidStateInvoiced, f.ledger.paidState("A1"))
}

func TestMarkPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("records the payout", func(t *testing.T) {
		f := newFixture(standardItems()...)

		ok, err := f.ledger.ClaimInvoiced(ctx, "A1")
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, f.svc.MarkPaid(ctx, "A1"))
		assert.Equal(t, entity.PaidStatePaid, f.ledger.paidState("A1"))
	})

	t.Run("unknown item fails", func(t *testing.T) {
		f := newFixture(standardItems()...)

		err := f.svc.MarkPaid(ctx, "A9")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "A9")
	})
}

func TestServiceConfiguration(t *testing.T) {
	ctx := context.Background()
	zlog := zap.NewNop()

	newWith := func(ledger port.WorkLedger, rates billing.RateTable, staff billing.StaffDirectory) InvoicingService {
		return NewInvoicingService(ledger, rates, staff, nil, nil, nil,
			billing.NewSelector(zlog), billing.NewAggregator(zlog), billing.NewBatchBuilder(zlog), MockLogger{})
	}

	t.Run("missing ledger", func(t *testing.T) {
		svc := newWith(nil, testRates(), testStaff())
		_, err := svc.Preview(ctx)
		assert.True(t, errors.Is(err, ErrLedgerNotConfigured))
		_, err = svc.Commit(ctx)
		assert.True(t, errors.Is(err, ErrLedgerNotConfigured))
	})

	t.Run("missing rate table", func(t *testing.T) {
		svc := newWith(NewMockLedger(), nil, testStaff())
		_, err := svc.Preview(ctx)
		assert.True(t, errors.Is(err, ErrRatesNotConfigured))
	})

	t.Run("missing staff directory", func(t *testing.T) {
		svc := newWith(NewMockLedger(), testRates(), nil)
		_, err := svc.Preview(ctx)
		assert.True(t, errors.Is(err, ErrStaffNotConfigured))
	})

	t.Run("store and lock are optional", func(t *testing.T) {
		ledger := NewMockLedger(standardItems()...)
		svc := newService(ledger, nil, nil, nil)

		result, err := svc.Commit(ctx)
		require.NoError(t, err)
		assert.Len(t, result.InvoicedIDs, 3)
	})
}
