package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daveytran/playback-stats-staff-payer/internal/infrastructure/ledger"
)

var initWorkbookCmd = &cobra.Command{
	Use:   "init-workbook <path>",
	Short: "Create an empty work ledger workbook",
	Long: `Create a new xlsx workbook with the Work Log, Rates and Staff sheets the
workbook ledger backend expects. Refuses to overwrite an existing file.`,
	Args: cobra.ExactArgs(1),
	RunE: runInitWorkbook,
}

func init() {
	rootCmd.AddCommand(initWorkbookCmd)
}

func runInitWorkbook(cmd *cobra.Command, args []string) error {
	path := args[0]

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if err := ledger.CreateWorkbook(path); err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}

	fmt.Printf("Created %s with sheets %s, %s and %s\n",
		path, ledger.WorkLogSheet, ledger.RatesSheet, ledger.StaffSheet)
	return nil
}
