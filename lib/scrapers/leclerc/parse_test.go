package leclerc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const catalogFixture = `
<html><body>
<div class="product-grid">
  <app-product-card>
    <a href="/fp/gerard-bertrand-heresie-3514123456789">
      <img src="https://media.e.leclerc/heresie.jpg" />
      <span class="product-label">Gérard Bertrand Heresie, 2022 - Corbières AOP - Rouge - 75 cl</span>
    </a>
    <div class="block-price-and-availability">8€,95 En stock</div>
  </app-product-card>
  <app-product-card>
    <a href="/fp/chateau-citran-offer_m-3514987654321-12">
      <span class="product-label">Château Citran, 2019 - Haut-Médoc AOC - Rouge - 75 cl</span>
    </a>
    <div class="price">
      <span class="price-unit">14</span><span class="price-cents">,50</span>
    </div>
  </app-product-card>
  <app-product-card>
    <span class="product-label"></span>
    <div class="block-price-and-availability">3€,20</div>
  </app-product-card>
</div>
<nav>
  <a href="/cat/vins-rouges?page=2">2</a>
  <a href="/cat/vins-rouges?page=3">3</a>
</nav>
</body></html>`

func TestParseCatalogPage(t *testing.T) {
	products, err := ParseCatalogPage(catalogFixture)
	require.NoError(t, err)
	require.Len(t, products, 2)

	heresie := products[0]
	require.Equal(t, "Gérard Bertrand Heresie, 2022 - Corbières AOP - Rouge - 75 cl", heresie.Name)
	require.Equal(t, 8.95, heresie.Price)
	require.Equal(t, "https://www.e.leclerc/fp/gerard-bertrand-heresie-3514123456789", heresie.Url)
	require.Equal(t, "3514123456789", heresie.EAN)
	require.Equal(t, "https://media.e.leclerc/heresie.jpg", heresie.Image)

	citran := products[1]
	require.Equal(t, 14.50, citran.Price)
	require.Equal(t, "3514987654321", citran.EAN)
}

func TestPageCount(t *testing.T) {
	require.Equal(t, 3, PageCount(catalogFixture))
	require.Equal(t, 1, PageCount("<html><body>no pagination</body></html>"))
}
