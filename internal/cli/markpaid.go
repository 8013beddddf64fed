package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
)

var markPaidCmd = &cobra.Command{
	Use:   "mark-paid <item-id>",
	Short: "Record that an invoiced work item has been paid out",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkPaid,
}

func init() {
	rootCmd.AddCommand(markPaidCmd)
}

func runMarkPaid(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	id := args[0]
	if err := rt.container.Invoicing().MarkPaid(cmd.Context(), id); err != nil {
		if errors.Is(err, port.ErrItemNotFound) {
			return fmt.Errorf("work item %s not found in the ledger", id)
		}
		return err
	}

	fmt.Printf("Marked %s as Paid\n", id)
	return nil
}
