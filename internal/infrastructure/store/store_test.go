package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
	"github.com/daveytran/playback-stats-staff-payer/pkg/database"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "store.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).RunMigrations("../../../migrations"))
	return NewSQLiteStore(db, zap.NewNop())
}

func sampleBatch(number string, issued time.Time) *entity.InvoiceBatch {
	return &entity.InvoiceBatch{
		InvoiceNumber: number,
		IssuedAt:      issued,
		Lines: []entity.InvoiceLine{
			{
				InvoiceNumber: number,
				IssuedAt:      issued,
				LegalName:     "Alice Nguyen",
				WorkSummary:   "Play-by-play x2",
				EvidenceText:  "https://example.com/w1\nhttps://example.com/w2",
				TaskCount:     2,
				TotalAmount:   200000,
			},
			{
				InvoiceNumber: number,
				IssuedAt:      issued,
				LegalName:     "Bob Tran",
				WorkSummary:   "Recap x1",
				EvidenceText:  "https://example.com/w3",
				TaskCount:     1,
				TotalAmount:   80000,
			},
		},
	}
}

func TestStoreSaveDraftAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveDraft(ctx, sampleBatch("INV-20260314-ABCD1234", issued)))

	stored, err := s.Get(ctx, "INV-20260314-ABCD1234")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, port.BatchStatusDraft, stored.Status)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.WithinDuration(t, issued, stored.Batch.IssuedAt, time.Second)

	require.Len(t, stored.Batch.Lines, 2)
	first := stored.Batch.Lines[0]
	assert.Equal(t, "Alice Nguyen", first.LegalName)
	assert.Equal(t, "Play-by-play x2", first.WorkSummary)
	assert.Equal(t, "https://example.com/w1\nhttps://example.com/w2", first.EvidenceText)
	assert.Equal(t, 2, first.TaskCount)
	assert.Equal(t, 200000.0, first.TotalAmount)
	assert.Equal(t, "Bob Tran", stored.Batch.Lines[1].LegalName)

	missing, err := s.Get(ctx, "INV-20260314-00000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreSaveDraftRejectsDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveDraft(ctx, sampleBatch("INV-20260314-ABCD1234", issued)))
	err := s.SaveDraft(ctx, sampleBatch("INV-20260314-ABCD1234", issued))
	require.Error(t, err)
}

func TestStoreFinalize(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	batch := sampleBatch("INV-20260314-ABCD1234", issued)
	require.NoError(t, s.SaveDraft(ctx, batch))

	// The run claimed only Alice's items, so the final batch drops Bob's line.
	batch.Lines = batch.Lines[:1]
	require.NoError(t, s.Finalize(ctx, batch))

	stored, err := s.Get(ctx, "INV-20260314-ABCD1234")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, port.BatchStatusIssued, stored.Status)
	require.Len(t, stored.Batch.Lines, 1)
	assert.Equal(t, "Alice Nguyen", stored.Batch.Lines[0].LegalName)
}

func TestStoreFinalizeUnknownBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Finalize(ctx, sampleBatch("INV-20260314-ABCD1234", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveDraft(ctx, sampleBatch("INV-20260314-ABCD1234", issued)))
	require.NoError(t, s.Delete(ctx, "INV-20260314-ABCD1234"))

	stored, err := s.Get(ctx, "INV-20260314-ABCD1234")
	require.NoError(t, err)
	assert.Nil(t, stored)

	// Deleting a batch that never existed is not an error.
	require.NoError(t, s.Delete(ctx, "INV-20260314-00000000"))
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	older := sampleBatch("INV-20260101-AAAAAAAA", time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	newer := sampleBatch("INV-20260102-BBBBBBBB", time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveDraft(ctx, older))
	require.NoError(t, s.SaveDraft(ctx, newer))

	batches, err := s.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "INV-20260102-BBBBBBBB", batches[0].Batch.InvoiceNumber)
	assert.Equal(t, "INV-20260101-AAAAAAAA", batches[1].Batch.InvoiceNumber)
	assert.Len(t, batches[0].Batch.Lines, 2)

	page, err := s.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "INV-20260101-AAAAAAAA", page[0].Batch.InvoiceNumber)

	everything, err := s.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, everything, 2)
}
