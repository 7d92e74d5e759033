package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer renders amounts with en locale thousands grouping ("12,500").
var printer = message.NewPrinter(language.English)

// ksh formats a whole-unit Ksh amount with thousands separators.
func ksh(v decimal.Decimal) string {
	return printer.Sprintf("%d", v.Round(0).IntPart())
}

// FormatMessage renders the order into the fixed-layout text block sent over
// the messaging channel. The section names, indentation, and field padding
// widths are part of the wire format: the receiving side reads these messages
// in a monospace chat window.
func FormatMessage(o *Order, storeName, contactLine string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*NEW ORDER ALERT- %s*   \n\n", strings.ToUpper(storeName))
	b.WriteString("        *ORDER SUMMARY*\n")
	fmt.Fprintf(&b, "        Order #: %-16s \n", o.ID)
	fmt.Fprintf(&b, "        Date: %-19s\n\n\n", o.Date)

	b.WriteString("        *ITEMS ORDERED*\n")
	for i, it := range o.Items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s\nQuantity: %d\nPrice: Ksh %8s", it.Name, it.Quantity, ksh(it.LineTotal()))
	}
	b.WriteString("\n\n")

	b.WriteString("*PAYMENT SUMMARY*\n")
	fmt.Fprintf(&b, "Subtotal: Ksh %12s \n", ksh(o.Subtotal))
	fmt.Fprintf(&b, "Delivery: Ksh %12s \n", ksh(o.DeliveryFee))
	fmt.Fprintf(&b, "TOTAL: Ksh %15s\n\n", ksh(o.Total))

	b.WriteString("*CUSTOMER DETAILS*\n")
	fmt.Fprintf(&b, "Name: %-22s \n", o.Customer.FullName)
	fmt.Fprintf(&b, "Phone: %-21s \n", o.Customer.Phone)
	fmt.Fprintf(&b, "Address: %-19s \n\n", o.Customer.Address)

	b.WriteString(contactLine)
	return b.String()
}

// DeepLink builds the wa.me URL that opens the messaging app with the order
// message pre-filled. The payload is percent-encoded; spaces use %20 rather
// than + because messaging apps don't apply form decoding.
func DeepLink(number, msg string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
	return "https://wa.me/" + number + "?text=" + encoded
}
