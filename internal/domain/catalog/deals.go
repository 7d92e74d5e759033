package catalog

import "github.com/shopspring/decimal"

// dealWindow is how many leading catalog products are promoted into deals.
const dealWindow = 5

// dealRate is the promotional multiplier applied to the original price.
var dealRate = decimal.NewFromFloat(0.8)

// Deals derives the promotional subset of the catalog: the first dealWindow
// products re-priced at 80% (rounded to whole currency units) with the
// original price preserved as OldPrice. Order is preserved. Pure function;
// the input slice is not modified.
func Deals(products []Product) []Product {
	n := min(len(products), dealWindow)

	deals := make([]Product, n)
	for i, p := range products[:n] {
		p.OldPrice = p.Price
		p.Price = p.Price.Mul(dealRate).Round(0)
		deals[i] = p
	}
	return deals
}
