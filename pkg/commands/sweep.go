package commands

import (
	"fmt"

	"github.com/matt-steen/trellis/pkg/db"
	"github.com/spf13/cobra"
)

func addSweep(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Mark tasks scheduled before today as OVERDUE.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				swept, err := database.SweepOverdue(cmd.Context())
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d overdue\n", swept)

				return err
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addActivity(topLevel *cobra.Command, a *app) {
	limit := 20

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent changes, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				entries, err := database.Activity(cmd.Context(), limit)
				if err != nil {
					return err
				}

				a.printer(cmd).Activity(entries)

				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", limit, "Number of entries; 0 shows everything.")

	topLevel.AddCommand(cmd)
}
