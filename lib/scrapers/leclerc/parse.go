package leclerc

import (
	"regexp"
	"strconv"
	"strings"

	"cavescout/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Product is one card on the catalog listing page. Price 0 means the
// price could not be read, not that the bottle is free.
type Product struct {
	Name  string
	Price float64
	Url   string
	EAN   string
	Image string
}

var (
	priceRegex    = regexp.MustCompile(`(\d+)€,(\d{2})`)
	offerEanRegex = regexp.MustCompile(`offer_m-(\d{13})-\d+`)
	urlEanRegex   = regexp.MustCompile(`-(\d{13})$`)
	pageHrefRegex = regexp.MustCompile(`[?&]page=(\d+)`)
)

// ParseCatalogPage extracts product cards from one rendered catalog
// page. Cards without a readable name are skipped.
func ParseCatalogPage(html string) ([]Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var products []Product
	doc.Find("app-product-card").Each(func(_ int, card *goquery.Selection) {
		name := htmlutil.CleanText(card.Find(".product-label").First().Text())
		if name == "" {
			return
		}

		product := Product{
			Name:  name,
			Price: parsePrice(card),
			Url:   parseUrl(card),
			Image: parseImage(card),
		}
		product.EAN = parseEan(card, product.Url)

		products = append(products, product)
	})

	return products, nil
}

func parsePrice(card *goquery.Selection) float64 {
	// the combined price block survives both server and client rendering
	block := card.Find(`[class*="block-price-and-availability"]`).First()
	if block.Length() > 0 {
		groups := priceRegex.FindStringSubmatch(htmlutil.CleanText(block.Text()))
		if len(groups) == 3 {
			price, err := strconv.ParseFloat(groups[1]+"."+groups[2], 64)
			if err == nil {
				return price
			}
		}
	}

	// fallback: split unit/cents spans
	unit := htmlutil.CleanText(card.Find(`[class*="price-unit"]`).First().Text())
	cents := htmlutil.CleanText(card.Find(`[class*="price-cents"]`).First().Text())
	if unit == "" || cents == "" {
		return 0
	}
	cents = strings.TrimSpace(strings.TrimLeft(cents, ","))
	price, err := strconv.ParseFloat(unit+"."+cents, 64)
	if err != nil {
		return 0
	}
	return price
}

func parseUrl(card *goquery.Selection) string {
	href := card.Find("a[href]").First().AttrOr("href", "")
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return baseUrl + href
}

func parseEan(card *goquery.Selection, productUrl string) string {
	rendered, err := goquery.OuterHtml(card)
	if err == nil {
		groups := offerEanRegex.FindStringSubmatch(rendered)
		if len(groups) == 2 {
			return groups[1]
		}
	}
	groups := urlEanRegex.FindStringSubmatch(productUrl)
	if len(groups) == 2 {
		return groups[1]
	}
	return ""
}

func parseImage(card *goquery.Selection) string {
	img := card.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	if src := img.AttrOr("src", ""); src != "" {
		return src
	}
	if src := img.AttrOr("data-src", ""); src != "" {
		return src
	}
	srcset := img.AttrOr("data-srcset", "")
	if srcset != "" {
		return strings.Fields(srcset)[0]
	}
	return ""
}

// PageCount reads the highest page number linked from the pagination
// controls, 1 when there are none.
func PageCount(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 1
	}

	max := 1
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		groups := pageHrefRegex.FindStringSubmatch(a.AttrOr("href", ""))
		if len(groups) != 2 {
			return
		}
		n, err := strconv.Atoi(groups[1])
		if err == nil && n > max {
			max = n
		}
	})
	return max
}
