// Package store persists emitted invoice batches in sqlite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
	"github.com/daveytran/playback-stats-staff-payer/pkg/database"
)

// SQLiteStore implements port.InvoiceStore over invoice_batches and
// invoice_lines.
type SQLiteStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new invoice store.
func NewSQLiteStore(db *database.DB, logger *zap.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

// SaveDraft persists the batch with status DRAFT. The invoice number is the
// primary key, so drafting the same number twice fails.
func (s *SQLiteStore) SaveDraft(ctx context.Context, batch *entity.InvoiceBatch) error {
	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			"INSERT INTO invoice_batches (invoice_number, issued_at, status) VALUES (?, ?, ?)",
			batch.InvoiceNumber, batch.IssuedAt, port.BatchStatusDraft,
		)
		if err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		return insertLines(tx, batch)
	})
	if err != nil {
		s.logger.Error("Failed to save draft batch",
			zap.String("invoice_number", batch.InvoiceNumber), zap.Error(err))
		return err
	}

	s.logger.Info("Draft batch saved",
		zap.String("invoice_number", batch.InvoiceNumber),
		zap.Int("lines", len(batch.Lines)))
	return nil
}

// Finalize replaces the draft's lines with the final ones and flips the
// status to ISSUED.
func (s *SQLiteStore) Finalize(ctx context.Context, batch *entity.InvoiceBatch) error {
	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		result, err := tx.Exec(
			"UPDATE invoice_batches SET status = ?, updated_at = ? WHERE invoice_number = ?",
			port.BatchStatusIssued, time.Now(), batch.InvoiceNumber,
		)
		if err != nil {
			return fmt.Errorf("failed to update batch: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("batch %s not found", batch.InvoiceNumber)
		}

		if _, err := tx.Exec("DELETE FROM invoice_lines WHERE invoice_number = ?", batch.InvoiceNumber); err != nil {
			return fmt.Errorf("failed to clear draft lines: %w", err)
		}
		return insertLines(tx, batch)
	})
	if err != nil {
		s.logger.Error("Failed to finalize batch",
			zap.String("invoice_number", batch.InvoiceNumber), zap.Error(err))
		return err
	}

	s.logger.Info("Batch finalized",
		zap.String("invoice_number", batch.InvoiceNumber),
		zap.Int("lines", len(batch.Lines)))
	return nil
}

// Delete removes a batch and its lines.
func (s *SQLiteStore) Delete(ctx context.Context, invoiceNumber string) error {
	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM invoice_lines WHERE invoice_number = ?", invoiceNumber); err != nil {
			return fmt.Errorf("failed to delete lines: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM invoice_batches WHERE invoice_number = ?", invoiceNumber); err != nil {
			return fmt.Errorf("failed to delete batch: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to delete batch",
			zap.String("invoice_number", invoiceNumber), zap.Error(err))
		return err
	}

	s.logger.Info("Batch deleted", zap.String("invoice_number", invoiceNumber))
	return nil
}

// Get returns one stored batch by invoice number, or nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, invoiceNumber string) (*port.StoredBatch, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT invoice_number, issued_at, status, created_at, updated_at FROM invoice_batches WHERE invoice_number = ?",
		invoiceNumber,
	)

	stored, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to get batch",
			zap.String("invoice_number", invoiceNumber), zap.Error(err))
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	if err := s.loadLines(ctx, stored.Batch); err != nil {
		return nil, err
	}
	return stored, nil
}

// List returns stored batches newest-first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*port.StoredBatch, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT invoice_number, issued_at, status, created_at, updated_at FROM invoice_batches ORDER BY created_at DESC, invoice_number DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		s.logger.Error("Failed to list batches", zap.Error(err))
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	batches := make([]*port.StoredBatch, 0)
	for rows.Next() {
		stored, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, stored := range batches {
		if err := s.loadLines(ctx, stored.Batch); err != nil {
			return nil, err
		}
	}
	return batches, nil
}

func (s *SQLiteStore) loadLines(ctx context.Context, batch *entity.InvoiceBatch) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT legal_name, work_summary, evidence_text, task_count, total_amount FROM invoice_lines WHERE invoice_number = ? ORDER BY id",
		batch.InvoiceNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to load lines: %w", err)
	}
	defer rows.Close()

	lines := make([]entity.InvoiceLine, 0)
	for rows.Next() {
		line := entity.InvoiceLine{
			InvoiceNumber: batch.InvoiceNumber,
			IssuedAt:      batch.IssuedAt,
		}
		if err := rows.Scan(
			&line.LegalName,
			&line.WorkSummary,
			&line.EvidenceText,
			&line.TaskCount,
			&line.TotalAmount,
		); err != nil {
			return fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, line)
	}
	batch.Lines = lines
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBatch(row rowScanner) (*port.StoredBatch, error) {
	batch := &entity.InvoiceBatch{}
	stored := &port.StoredBatch{Batch: batch}
	if err := row.Scan(
		&batch.InvoiceNumber,
		&batch.IssuedAt,
		&stored.Status,
		&stored.CreatedAt,
		&stored.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return stored, nil
}

func insertLines(tx *sql.Tx, batch *entity.InvoiceBatch) error {
	for _, line := range batch.Lines {
		_, err := tx.Exec(
			"INSERT INTO invoice_lines (invoice_number, legal_name, work_summary, evidence_text, task_count, total_amount) VALUES (?, ?, ?, ?, ?, ?)",
			batch.InvoiceNumber, line.LegalName, line.WorkSummary, line.EvidenceText, line.TaskCount, line.TotalAmount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert line for %s: %w", line.LegalName, err)
		}
	}
	return nil
}
