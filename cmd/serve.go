package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ciclofficina/tracker/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		addr := e.cfg.ListenAddr
		if v, _ := cmd.Flags().GetString("listen"); v != "" {
			addr = v
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := e.services(ctx)
		if err != nil {
			return err
		}
		app := api.New(svc, e.log)
		e.log.Info("serving API", "addr", addr, "suggestions", svc.Advisor != nil)
		return api.Serve(ctx, app, addr)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (overrides TRACKER_LISTEN, default :8080)")
}
