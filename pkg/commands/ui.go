package commands

import (
	"github.com/matt-steen/trellis/pkg/controller"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func addUI(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the terminal user interface.",
		Example: `
trellis ui
trellis ui --db ./scratch.db
`,
		Annotations: map[string]string{"tui": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), func(database *db.Database) error {
				log.Info().Str("db", a.cfg.DBPath).Msg("starting application...")

				c, err := controller.NewController(cmd.Context(), database)
				if err != nil {
					return err
				}

				return c.Go()
			})
		},
	}

	topLevel.AddCommand(cmd)
}
