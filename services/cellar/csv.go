package cellar

import (
	"encoding/csv"
	"io"
	"strconv"

	"cavescout/services/enrich"
)

var csvHeader = []string{
	"name", "price", "url", "ean", "vintage",
	"rating", "ratings_count", "matched_name", "matched_vintage",
	"vintage_match", "confidence", "source_url", "ratio",
}

// WriteCSV writes the listings as semicolon-separated values, one row
// per listing in the given order.
func WriteCSV(w io.Writer, listings []enrich.EnrichedListing) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	err := writer.Write(csvHeader)
	if err != nil {
		return err
	}

	for _, listing := range listings {
		err = writer.Write([]string{
			listing.Name,
			formatFloat(listing.Price),
			listing.Url,
			listing.EAN,
			formatIntPtr(listing.DeclaredVintage),
			formatFloatPtr(listing.Rating),
			strconv.Itoa(listing.ReviewCount),
			listing.MatchedName,
			formatIntPtr(listing.MatchedVintage),
			listing.VintageMatch.String(),
			formatFloat(listing.Confidence),
			listing.SourceUrl,
			formatFloat(listing.Ratio),
		})
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatFloatPtr(value *float64) string {
	if value == nil {
		return ""
	}
	return formatFloat(*value)
}

func formatIntPtr(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}
