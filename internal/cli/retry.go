package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry <item-id> [item-id...]",
	Short: "Retry the ledger flip for items a commit failed to mark",
	Long: `Retry marking items as Invoiced after a partially failed commit. No new
invoice is issued; the items are already billed under their original batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetry,
}

func init() {
	rootCmd.AddCommand(retryCmd)
}

func runRetry(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.container.Invoicing().RetryMarking(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}

	if len(result.MarkedIDs) > 0 {
		fmt.Printf("Marked invoiced: %s\n", strings.Join(result.MarkedIDs, ", "))
	}
	if len(result.SkippedIDs) > 0 {
		fmt.Printf("Skipped (already settled or unknown): %s\n", strings.Join(result.SkippedIDs, ", "))
	}
	if len(result.RetryIDs) > 0 {
		fmt.Printf("Still failing: %s\n", strings.Join(result.RetryIDs, ", "))
		return fmt.Errorf("%d ledger writes still failing", len(result.RetryIDs))
	}

	return nil
}
