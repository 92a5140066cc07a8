package commands

import (
	"log/slog"
	"os"

	"cavescout/lib/serviceutil"
	"cavescout/services/cellar"

	"github.com/spf13/cobra"
)

var exportOut *string

func init() {
	exportOut = exportCmd.Flags().String("out", "wines.csv", "Path to write the csv to.")
	exportCmd.Flags().AddFlagSet(listCmd.Flags())
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--type <category>] [--out wines.csv]",
	Short: "Writes the filtered wine set from the last scrape to a csv file.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		service := newService(cfg)

		query, err := queryFromFlags()
		if err != nil {
			serviceutil.Fatal("invalid flags", err)
		}

		result, err := service.Wines(cmd.Context(), *listFlags.wineType, query)
		if err != nil {
			serviceutil.Fatal("failed to query wines", err)
		}

		file, err := os.Create(*exportOut)
		if err != nil {
			serviceutil.Fatal("failed to create output file", err)
		}
		defer file.Close()

		err = cellar.WriteCSV(file, result.Wines)
		if err != nil {
			serviceutil.Fatal("failed to write csv", err)
		}
		slog.Info("exported wines", "path", *exportOut, "count", len(result.Wines))
	},
}
