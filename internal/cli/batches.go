package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daveytran/playback-stats-staff-payer/pkg/utils"
)

var (
	batchesLimit  int
	batchesOffset int
)

var batchesCmd = &cobra.Command{
	Use:   "batches [invoice-number]",
	Short: "List issued invoice batches, or show one in full",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBatches,
}

func init() {
	batchesCmd.Flags().IntVar(&batchesLimit, "limit", 20, "maximum batches to list")
	batchesCmd.Flags().IntVar(&batchesOffset, "offset", 0, "batches to skip")
	rootCmd.AddCommand(batchesCmd)
}

func runBatches(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	store := rt.container.Store()
	if store == nil {
		return fmt.Errorf("the invoice store is disabled in this configuration")
	}

	if len(args) == 1 {
		number := args[0]
		if err := utils.ValidateInvoiceNumber(number); err != nil {
			return err
		}
		stored, err := store.Get(cmd.Context(), number)
		if err != nil {
			return fmt.Errorf("failed to load batch: %w", err)
		}
		if stored == nil {
			return fmt.Errorf("batch %s not found", number)
		}

		batch := stored.Batch
		fmt.Printf("%s  %s  issued %s\n\n", batch.InvoiceNumber, stored.Status,
			batch.IssuedAt.Format(time.RFC3339))
		printBatchLines(batch.Lines)
		fmt.Printf("\nGrand total: %.2f\n", batch.GrandTotal())
		return nil
	}

	batches, err := store.List(cmd.Context(), batchesLimit, batchesOffset)
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}
	if len(batches) == 0 {
		fmt.Println("No invoice batches stored")
		return nil
	}

	for _, stored := range batches {
		batch := stored.Batch
		fmt.Printf("%s  %-6s  %s  %2d payees  %3d tasks  %12.2f\n",
			batch.InvoiceNumber,
			stored.Status,
			batch.IssuedAt.Format("2006-01-02"),
			len(batch.Lines),
			batch.TaskCount(),
			batch.GrandTotal(),
		)
	}

	return nil
}
