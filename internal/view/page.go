// Package view renders storefront state into markup. Everything here is a
// pure function from domain state to a view description; no view code
// mutates stores.
package view

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vitronics/storefront/internal/domain/cart"
	"github.com/vitronics/storefront/internal/domain/catalog"
	"github.com/vitronics/storefront/internal/domain/checkout"
	"github.com/vitronics/storefront/internal/notify"
)

var printer = message.NewPrinter(language.English)

// Ksh formats a whole-unit amount with thousands separators for display.
func Ksh(v decimal.Decimal) string {
	return printer.Sprintf("%d", v.Round(0).IntPart())
}

// Page is the full view model of the storefront page.
type Page struct {
	StoreName     string
	CatalogFailed bool
	Products      []ProductCard
	Deals         []ProductCard
	Cart          CartPanel
	Checkout      CheckoutPanel
	Toasts        []notify.Toast
}

// ProductCard is one catalog or deal tile.
type ProductCard struct {
	ID       int64
	Name     string
	Category string
	Image    string
	Price    string
	OldPrice string
	HotDeal  bool
}

// CartPanel is the cart section: rows plus recomputed totals.
type CartPanel struct {
	Items []CartRow
	Count int
	Total string
	Empty bool
}

// CartRow is one cart line.
type CartRow struct {
	ID       int64
	Name     string
	Image    string
	Price    string
	Quantity int
}

// CheckoutPanel describes the active checkout stage. Exactly one of the
// stage flags is set outside Idle.
type CheckoutPanel struct {
	CollectingDetails bool
	OrderReady        bool
	ValidationError   string
	Order             OrderView
}

// OrderView is the OrderReady modal content.
type OrderView struct {
	ID       string
	Message  string
	DeepLink string
}

// NewProductCard maps a catalog product onto a tile.
func NewProductCard(p catalog.Product, hotDeal bool) ProductCard {
	card := ProductCard{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Image:    p.Image(),
		Price:    Ksh(p.Price),
		HotDeal:  hotDeal,
	}
	if p.HasOldPrice() {
		card.OldPrice = Ksh(p.OldPrice)
	}
	return card
}

// NewCartPanel maps cart lines and totals onto the cart section.
func NewCartPanel(items []cart.Item, totals cart.Totals) CartPanel {
	rows := make([]CartRow, len(items))
	for i, it := range items {
		rows[i] = CartRow{
			ID:       it.ID,
			Name:     it.Name,
			Image:    it.Image,
			Price:    Ksh(it.Price),
			Quantity: it.Quantity,
		}
	}
	return CartPanel{
		Items: rows,
		Count: totals.ItemCount,
		Total: Ksh(totals.GrandTotal),
		Empty: len(items) == 0,
	}
}

// NewCheckoutPanel maps a checkout stage onto its modal description.
// validationError is shown inside the details form.
func NewCheckoutPanel(state checkout.State, order *checkout.Order, msg, link, validationError string) CheckoutPanel {
	p := CheckoutPanel{ValidationError: validationError}
	switch state {
	case checkout.StateDetailsCollection:
		p.CollectingDetails = true
	case checkout.StateOrderReady:
		p.OrderReady = true
		if order != nil {
			p.Order = OrderView{ID: order.ID, Message: msg, DeepLink: link}
		}
	}
	return p
}

// BuildPage assembles the whole page view model.
func BuildPage(
	storeName string,
	catalogLoaded bool,
	products, deals []catalog.Product,
	items []cart.Item,
	totals cart.Totals,
	checkoutPanel CheckoutPanel,
	toasts []notify.Toast,
) Page {
	p := Page{
		StoreName:     storeName,
		CatalogFailed: !catalogLoaded,
		Products:      make([]ProductCard, 0, len(products)),
		Deals:         make([]ProductCard, 0, len(deals)),
		Cart:          NewCartPanel(items, totals),
		Checkout:      checkoutPanel,
		Toasts:        toasts,
	}
	for _, prod := range products {
		p.Products = append(p.Products, NewProductCard(prod, false))
	}
	for _, d := range deals {
		p.Deals = append(p.Deals, NewProductCard(d, true))
	}
	return p
}
