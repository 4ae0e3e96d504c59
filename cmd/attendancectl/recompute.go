package main

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/app"
	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Re-derive every attendance summary from the current settings",
	Long: `Recalculate status, remarks and total hours of every attendance record that is not
absent, on leave or a holiday, using the attendance settings currently in effect.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			n, err := a.Attendance.RecomputeAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recompute completed. Records updated: %d\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
}
