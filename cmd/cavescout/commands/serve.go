package commands

import (
	"net/http"

	"cavescout/lib/serviceutil"
	"cavescout/lib/telemetry"
	"cavescout/services/cellar/server"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the JSON HTTP API.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		telemetry.InstrumentPerfStats(cmd.Context())

		mux := http.NewServeMux()
		server.Init(mux, newService(cfg))
		go serviceutil.StartHttpServer(cfg.Port, mux)

		<-cmd.Context().Done()
	},
}
