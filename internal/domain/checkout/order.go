// Package checkout implements the multi-stage checkout flow: customer detail
// collection, order construction, and hand-off to the messaging channel.
package checkout

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitronics/storefront/internal/domain/cart"
)

// PaymentMethod is the fixed payment label: orders are settled over the
// messaging channel, not a payment backend.
const PaymentMethod = "WhatsApp Order"

// orderDateLayout matches the en-US locale rendering the storefront has
// always put on order messages.
const orderDateLayout = "1/2/2006, 3:04:05 PM"

// Customer holds the validated delivery details collected during checkout.
type Customer struct {
	FullName string
	Phone    string
	Address  string
}

// Order is a completed checkout: an immutable snapshot of the cart plus
// pricing and customer details. It lives only until the order message is
// sent or the flow is cancelled.
type Order struct {
	ID            string
	Date          string
	CreatedAt     time.Time
	PaymentMethod string
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Total         decimal.Decimal
	Items         []cart.Item
	Customer      Customer
}

// buildOrder assembles an Order from the cart snapshot. The items slice is
// copied so later cart mutations cannot reach into the order.
func buildOrder(now time.Time, items []cart.Item, fee decimal.Decimal, c Customer) *Order {
	snapshot := make([]cart.Item, len(items))
	copy(snapshot, items)

	subtotal := decimal.Zero
	for _, it := range snapshot {
		subtotal = subtotal.Add(it.LineTotal())
	}

	return &Order{
		ID:            orderID(now),
		Date:          now.Format(orderDateLayout),
		CreatedAt:     now,
		PaymentMethod: PaymentMethod,
		Subtotal:      subtotal,
		DeliveryFee:   fee,
		Total:         subtotal.Add(fee),
		Items:         snapshot,
		Customer:      c,
	}
}

// orderID derives the order id from the current timestamp: "ORD" plus the
// last six digits of the unix-millisecond clock.
func orderID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "ORD" + ms
}
