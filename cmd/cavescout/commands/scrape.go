package commands

import (
	"log/slog"
	"time"

	"cavescout/lib/serviceutil"

	"github.com/spf13/cobra"
)

var scrapeType *string

func init() {
	scrapeType = scrapeCmd.Flags().String(
		"type", "vins-rouges",
		"Wine category slug to scrape (vins-rouges, vins-blancs, vins-roses, vins-mousseux-et-petillants).",
	)
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--type <category>]",
	Short: "Scrapes a wine category, enriches it with ratings and stores the snapshot.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		service := newService(cfg)

		t1 := time.Now()
		enriched, err := service.Refresh(cmd.Context(), *scrapeType)
		if err != nil {
			serviceutil.Fatal("refresh failed", err)
		}
		t2 := time.Now()

		matched := 0
		for _, listing := range enriched {
			if listing.Rating != nil {
				matched++
			}
		}
		slog.Info("scrape finished",
			"wine_type", *scrapeType,
			"listings", len(enriched),
			"matched", matched,
			"seconds", t2.Sub(t1).Seconds(),
		)
	},
}
