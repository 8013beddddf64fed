package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
	"github.com/daveytran/playback-stats-staff-payer/internal/rates"
	"github.com/daveytran/playback-stats-staff-payer/internal/staff"
)

// Workbook sheet names
const (
	WorkLogSheet = "Work Log"
	RatesSheet   = "Rates"
	StaffSheet   = "Staff"
)

// Work Log column indexes (zero-based)
const (
	colID = iota
	colStaffKey
	colTaskType
	colLeague
	colRound
	colTeam1
	colTeam2
	colEvidenceLink
	colCompletionDate
	colStatus
	colPaidState
)

var workLogHeader = []string{
	"ID", "Staff Key", "Task Type", "League", "Round", "Team 1", "Team 2",
	"Evidence Link", "Completion Date", "Status", "Paid State",
}

// WorkbookLedger is a WorkLedger over the shared company spreadsheet. Every
// operation reopens the file so edits made by other tools between calls are
// seen. Claims re-read the row under the writer mutex before flipping it,
// which serializes runs within one process; cross-process runs should add the
// run lock.
type WorkbookLedger struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewWorkbookLedger creates a ledger over the workbook at path.
func NewWorkbookLedger(path string, logger *zap.Logger) *WorkbookLedger {
	return &WorkbookLedger{path: path, logger: logger}
}

// CreateWorkbook writes a new workbook with the three expected sheets and
// their header rows. Fails if nothing can be written at path.
func CreateWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), WorkLogSheet); err != nil {
		return fmt.Errorf("failed to name work log sheet: %w", err)
	}
	for i, title := range workLogHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(WorkLogSheet, cell, title); err != nil {
			return fmt.Errorf("failed to write work log header: %w", err)
		}
	}

	if _, err := f.NewSheet(RatesSheet); err != nil {
		return fmt.Errorf("failed to create rates sheet: %w", err)
	}
	for i, title := range []string{"Task Type", "Staff Key", "Rate"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(RatesSheet, cell, title); err != nil {
			return fmt.Errorf("failed to write rates header: %w", err)
		}
	}

	if _, err := f.NewSheet(StaffSheet); err != nil {
		return fmt.Errorf("failed to create staff sheet: %w", err)
	}
	for i, title := range []string{"Staff Key", "Legal Name"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(StaffSheet, cell, title); err != nil {
			return fmt.Errorf("failed to write staff header: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// ReadAll returns every Work Log row with a non-empty ID, in sheet order.
func (l *WorkbookLedger) ReadAll(ctx context.Context) ([]entity.WorkItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(WorkLogSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read work log sheet: %w", err)
	}

	items := make([]entity.WorkItem, 0)
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		item := itemFromRow(row)
		if item.ID == "" {
			continue
		}
		items = append(items, item)
	}

	l.logger.Debug("Read work log sheet",
		zap.String("path", l.path),
		zap.Int("rows", len(items)))

	return items, nil
}

// SetPaidState overwrites the paid-state cell of the row with the given ID.
func (l *WorkbookLedger) SetPaidState(ctx context.Context, id, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rowNum, _, err := l.findRow(f, id)
	if err != nil {
		return err
	}

	if err := l.setPaidCell(f, rowNum, value); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// ClaimInvoiced re-reads the row under the writer mutex and flips it to
// "Invoiced" only if it is still billable.
func (l *WorkbookLedger) ClaimInvoiced(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return false, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rowNum, item, err := l.findRow(f, id)
	if errors.Is(err, port.ErrItemNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !item.Billable() {
		return false, nil
	}

	if err := l.setPaidCell(f, rowNum, entity.PaidStateInvoiced); err != nil {
		return false, err
	}
	if err := f.Save(); err != nil {
		return false, fmt.Errorf("failed to save workbook: %w", err)
	}
	return true, nil
}

// AppendItems adds rows to the Work Log sheet.
func (l *WorkbookLedger) AppendItems(ctx context.Context, items ...entity.WorkItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(WorkLogSheet)
	if err != nil {
		return fmt.Errorf("failed to read work log sheet: %w", err)
	}

	next := len(rows) + 1
	for _, item := range items {
		values := []string{
			item.ID, item.StaffKey, item.TaskType, item.League, item.Round,
			item.Team1, item.Team2, item.EvidenceLink, item.CompletionDate,
			item.Status, item.PaidState,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, next)
			if err := f.SetCellValue(WorkLogSheet, cell, value); err != nil {
				return fmt.Errorf("failed to write work log row %d: %w", next, err)
			}
		}
		next++
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// LoadRates builds a rate table from the Rates sheet. Rows with an empty
// staff key set the task type's default rate; rows with a staff key set a
// per-staff override. Overrides for a task type with no default row are
// rejected.
func (l *WorkbookLedger) LoadRates() (*rates.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(RatesSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates sheet: %w", err)
	}

	defaults := make(map[string]float64)
	customs := make(map[string]map[string]float64)
	type customRow struct {
		taskType, staffKey string
		rate               float64
	}
	var overrides []customRow

	for i, row := range rows {
		if i == 0 {
			continue
		}
		taskType := cellAt(row, 0)
		staffKey := cellAt(row, 1)
		rawRate := cellAt(row, 2)
		if taskType == "" && staffKey == "" && rawRate == "" {
			continue
		}
		if taskType == "" {
			return nil, fmt.Errorf("rates sheet row %d: empty task type", i+1)
		}
		rate, err := strconv.ParseFloat(strings.ReplaceAll(rawRate, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("rates sheet row %d: bad rate %q", i+1, rawRate)
		}
		if rate < 0 {
			return nil, fmt.Errorf("rates sheet row %d: negative rate", i+1)
		}
		if staffKey == "" {
			defaults[taskType] = rate
		} else {
			overrides = append(overrides, customRow{taskType, staffKey, rate})
		}
	}

	for _, o := range overrides {
		if _, ok := defaults[o.taskType]; !ok {
			return nil, fmt.Errorf("rates sheet: custom rate for unknown task type %q", o.taskType)
		}
		if customs[o.taskType] == nil {
			customs[o.taskType] = make(map[string]float64)
		}
		customs[o.taskType][o.staffKey] = o.rate
	}

	l.logger.Info("Loaded rates from workbook",
		zap.Int("task_types", len(defaults)),
		zap.Int("custom_rates", len(overrides)))

	return rates.NewTable(defaults, customs), nil
}

// LoadStaff builds a staff directory from the Staff sheet.
func (l *WorkbookLedger) LoadStaff() (*staff.Directory, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(StaffSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read staff sheet: %w", err)
	}

	names := make(map[string]string)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		staffKey := cellAt(row, 0)
		legalName := cellAt(row, 1)
		if staffKey == "" && legalName == "" {
			continue
		}
		if staffKey == "" || legalName == "" {
			return nil, fmt.Errorf("staff sheet row %d: staff key and legal name are both required", i+1)
		}
		names[staffKey] = legalName
	}

	l.logger.Info("Loaded staff from workbook", zap.Int("staff", len(names)))

	return staff.NewDirectory(names), nil
}

// findRow locates a Work Log row by ID and returns its 1-based sheet row
// number along with the parsed item.
func (l *WorkbookLedger) findRow(f *excelize.File, id string) (int, entity.WorkItem, error) {
	rows, err := f.GetRows(WorkLogSheet)
	if err != nil {
		return 0, entity.WorkItem{}, fmt.Errorf("failed to read work log sheet: %w", err)
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if cellAt(row, colID) == id {
			return i + 1, itemFromRow(row), nil
		}
	}
	return 0, entity.WorkItem{}, fmt.Errorf("work item %s: %w", id, port.ErrItemNotFound)
}

func (l *WorkbookLedger) setPaidCell(f *excelize.File, rowNum int, value string) error {
	cell, _ := excelize.CoordinatesToCellName(colPaidState+1, rowNum)
	if err := f.SetCellValue(WorkLogSheet, cell, value); err != nil {
		return fmt.Errorf("failed to set paid state cell: %w", err)
	}
	return nil
}

// itemFromRow maps one sheet row to a WorkItem. Cells are trimmed here so
// stray spreadsheet whitespace never reaches matching logic.
func itemFromRow(row []string) entity.WorkItem {
	return entity.WorkItem{
		ID:             cellAt(row, colID),
		StaffKey:       cellAt(row, colStaffKey),
		TaskType:       cellAt(row, colTaskType),
		League:         cellAt(row, colLeague),
		Round:          cellAt(row, colRound),
		Team1:          cellAt(row, colTeam1),
		Team2:          cellAt(row, colTeam2),
		EvidenceLink:   cellAt(row, colEvidenceLink),
		CompletionDate: cellAt(row, colCompletionDate),
		Status:         cellAt(row, colStatus),
		PaidState:      cellAt(row, colPaidState),
	}
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
