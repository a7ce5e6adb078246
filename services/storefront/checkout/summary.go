package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ghuser/storefront/services/storefront/cart"
)

// Summary renders the order as the message text sent to the shop.
func Summary(o Order) string {
	var b strings.Builder
	b.WriteString("🛒 NEW ORDER\n\n")
	fmt.Fprintf(&b, "👤 Name: %s\n", o.Customer.Name)
	fmt.Fprintf(&b, "📞 Phone: %s\n", o.Customer.Phone)
	fmt.Fprintf(&b, "📍 Location: %s\n", o.Customer.Location)
	if o.Customer.Hostel != "" {
		fmt.Fprintf(&b, "🏠 Hostel: %s\n", o.Customer.Hostel)
	}
	b.WriteString("\n------------------\n")
	for _, l := range o.Lines {
		b.WriteString(summaryLine(l))
		b.WriteByte('\n')
	}
	b.WriteString("------------------\n\n")
	fmt.Fprintf(&b, "💰 TOTAL: Ksh %s", o.Total)
	return b.String()
}

func summaryLine(l cart.Line) string {
	s := fmt.Sprintf("• %s (%s) - Ksh %s", l.Name, l.Size, l.Price)
	if l.Quantity > 1 {
		s += fmt.Sprintf(" x%d = Ksh %s", l.Quantity, l.Subtotal().String())
	}
	return s
}

// DeepLink builds a wa.me link that opens a chat with recipient prefilled
// with text. Non-digits are stripped from recipient.
func DeepLink(recipient, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, recipient)
	// wa.me expects %20 for spaces, not '+'.
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
