package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
	"github.com/daveytran/playback-stats-staff-payer/pkg/database"
)

// SQLiteLedger is a WorkLedger over the work_items table. The claim is a
// single conditional UPDATE, so it stays correct across processes sharing the
// database file.
type SQLiteLedger struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteLedger creates a ledger over the given database.
func NewSQLiteLedger(db *database.DB, logger *zap.Logger) *SQLiteLedger {
	return &SQLiteLedger{db: db, logger: logger}
}

// ReadAll returns every work item in insertion order.
func (l *SQLiteLedger) ReadAll(ctx context.Context) ([]entity.WorkItem, error) {
	query := `
		SELECT id, staff_key, task_type, league, round, team1, team2,
			evidence_link, completion_date, status, paid_state
		FROM work_items
		ORDER BY rowid
	`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		l.logger.Error("Failed to read work items", zap.Error(err))
		return nil, fmt.Errorf("failed to read work items: %w", err)
	}
	defer rows.Close()

	items := make([]entity.WorkItem, 0)
	for rows.Next() {
		var item entity.WorkItem
		if err := rows.Scan(
			&item.ID,
			&item.StaffKey,
			&item.TaskType,
			&item.League,
			&item.Round,
			&item.Team1,
			&item.Team2,
			&item.EvidenceLink,
			&item.CompletionDate,
			&item.Status,
			&item.PaidState,
		); err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// SetPaidState overwrites one item's paid state.
func (l *SQLiteLedger) SetPaidState(ctx context.Context, id, value string) error {
	result, err := l.db.ExecContext(ctx,
		"UPDATE work_items SET paid_state = ? WHERE id = ?", value, id)
	if err != nil {
		l.logger.Error("Failed to set paid state", zap.String("item_id", id), zap.Error(err))
		return fmt.Errorf("failed to set paid state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("work item %s: %w", id, port.ErrItemNotFound)
	}
	return nil
}

// ClaimInvoiced flips one row to "Invoiced" only while it is still billable.
// The WHERE clause carries the whole eligibility predicate, making the claim
// one atomic compare-and-set inside sqlite.
func (l *SQLiteLedger) ClaimInvoiced(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE work_items
		SET paid_state = ?
		WHERE id = ?
			AND TRIM(status) = ?
			AND TRIM(paid_state) NOT IN (?, ?)
	`

	result, err := l.db.ExecContext(ctx, query,
		entity.PaidStateInvoiced,
		id,
		entity.StatusDone,
		entity.PaidStatePaid,
		entity.PaidStateInvoiced,
	)
	if err != nil {
		l.logger.Error("Failed to claim work item", zap.String("item_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to claim work item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// InsertItems adds work items to the ledger.
func (l *SQLiteLedger) InsertItems(ctx context.Context, items ...entity.WorkItem) error {
	query := `
		INSERT INTO work_items (
			id, staff_key, task_type, league, round, team1, team2,
			evidence_link, completion_date, status, paid_state
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, item := range items {
		if _, err := l.db.ExecContext(ctx, query,
			item.ID,
			item.StaffKey,
			item.TaskType,
			item.League,
			item.Round,
			item.Team1,
			item.Team2,
			item.EvidenceLink,
			item.CompletionDate,
			item.Status,
			item.PaidState,
		); err != nil {
			l.logger.Error("Failed to insert work item", zap.String("item_id", item.ID), zap.Error(err))
			return fmt.Errorf("failed to insert work item %s: %w", item.ID, err)
		}
	}
	return nil
}
