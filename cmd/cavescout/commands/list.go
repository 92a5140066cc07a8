package commands

import (
	"fmt"
	"os"

	"cavescout/lib/serviceutil"
	"cavescout/services/cellar"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listFlags struct {
	wineType         *string
	sort             *string
	priceMax         *float64
	ratingMin        *float64
	search           *string
	vintageConfirmed *bool
}

func init() {
	listFlags.wineType = listCmd.Flags().String("type", "vins-rouges", "Wine category slug.")
	listFlags.sort = listCmd.Flags().String("sort", "ratio", "Sort order: ratio, rating, price_asc, price_desc.")
	listFlags.priceMax = listCmd.Flags().Float64("price-max", 0, "Keep only wines at or under this price.")
	listFlags.ratingMin = listCmd.Flags().Float64("rating-min", 0, "Keep only wines rated at or above this.")
	listFlags.search = listCmd.Flags().String("search", "", "Keep only wines whose name contains this text.")
	listFlags.vintageConfirmed = listCmd.Flags().Bool("vintage-confirmed", false, "Keep only wines whose matched vintage agrees with the catalog.")
	rootCmd.AddCommand(listCmd)
}

func queryFromFlags() (cellar.Query, error) {
	sort, err := cellar.ParseSort(*listFlags.sort)
	if err != nil {
		return cellar.Query{}, err
	}
	return cellar.Query{
		PriceMax:         *listFlags.priceMax,
		RatingMin:        *listFlags.ratingMin,
		Search:           *listFlags.search,
		VintageConfirmed: *listFlags.vintageConfirmed,
		Sort:             sort,
	}, nil
}

var listCmd = &cobra.Command{
	Use:   "list [--type <category>] [--sort ratio]",
	Short: "Prints the ranked wine set from the last scrape.",
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
		if len(result.Wines) == 0 {
			fmt.Println("no wines found, run `cavescout scrape` first")
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"name", "price", "rating", "reviews", "ratio", "vintage"})
		for _, wine := range result.Wines {
			rating := ""
			if wine.Rating != nil {
				rating = fmt.Sprintf("%.2f", *wine.Rating)
			}
			t.AppendRow(table.Row{
				wine.Name,
				fmt.Sprintf("%.2f€", wine.Price),
				rating,
				wine.ReviewCount,
				wine.Ratio,
				wine.VintageMatch.String(),
			})
		}
		t.AppendFooter(table.Row{
			fmt.Sprintf("%d wines", result.Stats.Count),
			fmt.Sprintf("avg %.2f€", result.Stats.AvgPrice),
			fmt.Sprintf("avg %.2f", result.Stats.AvgRating),
			"", "", "",
		})
		t.Render()
	},
}
