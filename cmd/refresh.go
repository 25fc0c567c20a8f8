package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/recollect/recollect/internal/logging"
	"github.com/recollect/recollect/internal/refresher"
)

var (
	dryRun  bool
	verbose bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Randomize and re-apply the saved collections",
	Long: `refresh reads the persisted collection snapshots, randomizes their
order, and fully replaces each library collection's membership with the
shuffled list. Meant to run off-peak, independently of reconciliation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRefresh(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"report what would change without updating the library",
	)
	refreshCmd.Flags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"enable debug-level logging",
	)
}

func runRefresh(ctx context.Context) error {
	d, err := buildDeps(verbose)
	if err != nil {
		return err
	}

	if dryRun {
		logging.Warn().Msg("dry run mode, no changes will be made")
	}

	// Per-collection failures are logged inside RefreshAll; the exit code
	// reflects overall success, not per-item outcomes.
	refresher.New(d.library, d.store).RefreshAll(ctx, dryRun)

	return ctx.Err()
}
