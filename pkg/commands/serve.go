package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/matt-steen/trellis/pkg/api"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/spf13/cobra"
)

func addServe(topLevel *cobra.Command, a *app) {
	addr := ""

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API over HTTP.",
		Example: `
trellis serve
trellis serve --addr 127.0.0.1:9000
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			gin.SetMode(a.cfg.Server.Mode)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.withDatabase(ctx, func(database *db.Database) error {
				return api.NewServer(database).Run(ctx, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overriding server.addr.")

	topLevel.AddCommand(cmd)
}
