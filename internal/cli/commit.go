package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Issue an invoice batch and mark its items invoiced",
	Long: `Bill every completed unpaid work item: issue one invoice batch and flip
each billed item to Invoiced in the ledger. Items whose ledger write fails
stay billed and are listed for a targeted retry.`,
	RunE: runCommit,
}

func init() {
	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.container.Invoicing().Commit(cmd.Context())
	if err != nil {
		if errors.Is(err, port.ErrLockHeld) {
			return fmt.Errorf("another invoicing run is in progress")
		}
		return fmt.Errorf("commit failed: %w", err)
	}

	if result.NothingToDo {
		fmt.Println("Nothing to invoice: no eligible work items")
		return nil
	}

	if len(result.Batch.Lines) == 0 {
		fmt.Println("No lines issued: every eligible item was claimed by another run")
		return nil
	}

	fmt.Printf("Issued invoice batch %s\n\n", result.Batch.InvoiceNumber)
	printBatchLines(result.Batch.Lines)
	fmt.Println()
	printSummary(result.Summary)

	fmt.Printf("\nMarked invoiced: %d\n", len(result.InvoicedIDs))
	if len(result.SkippedIDs) > 0 {
		fmt.Printf("Skipped (claimed by another run): %s\n", strings.Join(result.SkippedIDs, ", "))
	}
	if len(result.RetryIDs) > 0 {
		fmt.Printf("Ledger writes failed: %s\n", strings.Join(result.RetryIDs, ", "))
		fmt.Printf("These items are billed under %s; re-run the flip with:\n", result.Batch.InvoiceNumber)
		fmt.Printf("  staffpayer retry %s\n", strings.Join(result.RetryIDs, " "))
	}

	return nil
}
