// Package ledger provides the WorkLedger backends: the shared company
// workbook, a sqlite table, and an in-memory implementation for tests.
package ledger
