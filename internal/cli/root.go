// Package cli implements the staffpayer command line interface for one-shot
// invoicing runs against the configured ledger.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/service"
	"github.com/daveytran/playback-stats-staff-payer/internal/config"
	"github.com/daveytran/playback-stats-staff-payer/internal/container"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
	"github.com/daveytran/playback-stats-staff-payer/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "staffpayer",
	Short: "Contractor payment runs over the shared work ledger",
	Long: `Staffpayer reads the work ledger, bills every completed unpaid item,
and issues one invoice batch per run. Preview first, commit when the
numbers look right.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	// Load .env for local development; a missing file is fine
	_ = gotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "configs/config.yaml", "config file")
}

// runtime is the started container a one-shot command runs against.
type runtime struct {
	container *container.Container
	logger    *zap.Logger
}

// newRuntime loads configuration and starts a container with background
// workers and telemetry off. One-shot commands must not run anything on the
// side.
func newRuntime(cmd *cobra.Command) (*runtime, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Scheduler.Enabled = false
	cfg.Telemetry.OTLPEndpoint = ""

	// Keep stdout for command output
	logCfg := utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     cfg.Logger.Format,
	}
	logger, err := utils.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := c.Start(cmd.Context()); err != nil {
		return nil, err
	}

	return &runtime{container: c, logger: logger}, nil
}

func (r *runtime) Close() {
	if err := r.container.Close(); err != nil {
		r.logger.Error("Failed to close container", zap.Error(err))
	}
	_ = r.logger.Sync()
}

// printBatchLines prints one row per payee line.
func printBatchLines(lines []entity.InvoiceLine) {
	for _, line := range lines {
		fmt.Printf("  %-28s %3d tasks  %12.2f\n", line.LegalName, line.TaskCount, line.TotalAmount)
	}
}

// printSummary prints the run digest shared by preview and commit.
func printSummary(summary service.Summary) {
	fmt.Printf("Eligible tasks:  %d\n", summary.EligibleTasks)
	fmt.Printf("Distinct payees: %d\n", summary.DistinctPayees)
	fmt.Printf("Grand total:     %.2f\n", summary.GrandTotal)

	if len(summary.UnmatchedTaskTypes) > 0 {
		fmt.Printf("\nTask types with no rate entry: %s\n", strings.Join(summary.UnmatchedTaskTypes, ", "))
	}
	if len(summary.UnmatchedStaffKeys) > 0 {
		fmt.Printf("Staff keys with no directory entry: %s\n", strings.Join(summary.UnmatchedStaffKeys, ", "))
	}
	if len(summary.TasksWithNoRate) > 0 {
		fmt.Println("Tasks billed at rate zero:")
		for _, task := range summary.TasksWithNoRate {
			fmt.Printf("  %s (%s, %s)\n", task.ItemID, task.TaskType, task.StaffKey)
		}
	}
}
