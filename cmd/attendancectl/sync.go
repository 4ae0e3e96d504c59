package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/app"
	"github.com/spf13/cobra"
)

var (
	syncTimeout time.Duration
	syncJSON    bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild attendance records from every stored scan",
	Long: `Reconcile every employee-day that has scans, link dangling scans whose employee code now
resolves, and remove records of employees that no longer exist.

Each employee-day commits on its own, so an interrupted run can simply be started again.`,
	Example: `
  # Run a full sync with the configured worker count
  attendancectl sync

  # Machine-readable report
  attendancectl sync --json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if syncTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, syncTimeout)
			defer cancel()
		}

		return withApp(ctx, func(a *app.App) error {
			report, err := a.Attendance.SyncAll(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if syncJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(out,
				"Sync completed in %s. Created: %d, Updated: %d, Unchanged: %d, Overridden: %d, Deleted: %d, Skipped: %d, Dangling: %d, Linked scans: %d, Failures: %d\n",
				report.Duration, report.Created, report.Updated, report.Unchanged, report.Overridden,
				report.Deleted, report.Skipped, report.Dangling, report.Linked, len(report.Failures),
			)
			for _, f := range report.Failures {
				fmt.Fprintf(out, "  %s %s: %s\n", f.EmployeeCode, f.Date, f.Error)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 0, "Abort the sync after this long (0 = no limit)")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Print the report as JSON")
}
