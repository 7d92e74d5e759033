package checkout

import (
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitronics/storefront/internal/domain/cart"
)

func sampleOrder() *Order {
	return buildOrder(testClock, []cart.Item{
		{ID: 1, Name: "Blender", Price: decimal.NewFromInt(4500), Quantity: 2},
		{ID: 2, Name: "Kettle", Price: decimal.NewFromInt(1200), Quantity: 1},
	}, decimal.NewFromInt(100), Customer{
		FullName: "Jane Wanjiku",
		Phone:    "254712345678",
		Address:  "42 Moi Avenue",
	})
}

func TestFormatMessage_Sections(t *testing.T) {
	msg := FormatMessage(sampleOrder(), "Vitronics Hub", "Call/WhatsApp for assistance: +254 703 182530")

	for _, section := range []string{
		"*NEW ORDER ALERT- VITRONICS HUB*",
		"*ORDER SUMMARY*",
		"*ITEMS ORDERED*",
		"*PAYMENT SUMMARY*",
		"*CUSTOMER DETAILS*",
	} {
		assert.Contains(t, msg, section)
	}
	assert.True(t, strings.HasSuffix(msg, "Call/WhatsApp for assistance: +254 703 182530"))
}

func TestFormatMessage_AmountsAndPadding(t *testing.T) {
	msg := FormatMessage(sampleOrder(), "Vitronics Hub", "contact")

	// Line totals with thousands grouping, right-padded into 8 columns.
	assert.Contains(t, msg, "Blender\nQuantity: 2\nPrice: Ksh    9,000")
	assert.Contains(t, msg, "Kettle\nQuantity: 1\nPrice: Ksh    1,200")

	// Payment summary: subtotal 10,200 + delivery 100 = 10,300.
	assert.Contains(t, msg, "Subtotal: Ksh       10,200 ")
	assert.Contains(t, msg, "Delivery: Ksh          100 ")
	assert.Contains(t, msg, "TOTAL: Ksh          10,300")

	// Customer fields padded to fixed widths.
	assert.Contains(t, msg, "Name: Jane Wanjiku           \n")
	assert.Contains(t, msg, "Phone: 254712345678          \n")
	assert.Contains(t, msg, "Address: 42 Moi Avenue       \n")

	// Order header fields.
	assert.Contains(t, msg, "Order #: "+sampleOrder().ID)
	assert.Contains(t, msg, "Date: 3/7/2025, 2:30:05 PM")
}

func TestDeepLink(t *testing.T) {
	link := DeepLink("254703182530", "ORDER #1\nTotal: Ksh 1,200 & more")

	require.True(t, strings.HasPrefix(link, "https://wa.me/254703182530?text="))
	payload := strings.TrimPrefix(link, "https://wa.me/254703182530?text=")
	assert.NotContains(t, payload, "+", "spaces must be percent-encoded, not +")
	assert.Contains(t, payload, "ORDER%20%231%0ATotal%3A%20Ksh%201%2C200%20%26%20more")
}

func TestOrderID_Format(t *testing.T) {
	id := orderID(testClock)
	require.Len(t, id, 9)

	// ORD plus the trailing six digits of the millisecond clock.
	ms := strconv.FormatInt(testClock.UnixMilli(), 10)
	assert.Equal(t, "ORD"+ms[len(ms)-6:], id)
}
