package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show what a commit run would invoice",
	Long:  `Run selection and aggregation over the ledger without writing anything back.`,
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	proposal, err := rt.container.Invoicing().Preview(cmd.Context())
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	if proposal.NothingToDo() {
		fmt.Println("Nothing to invoice: no eligible work items")
		return nil
	}

	fmt.Printf("Invoice preview %s\n\n", proposal.Batch.InvoiceNumber)
	printBatchLines(proposal.Batch.Lines)
	fmt.Println()
	printSummary(proposal.Summary)

	return nil
}
