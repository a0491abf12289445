package sheet

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Simplici0/quotecalc/internal/model"
	"github.com/Simplici0/quotecalc/internal/pricing"
)

// Text is the copyable summary of one view: a line per part, then discount
// and total.
func Text(q model.Quote, t pricing.QuoteTotal, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", q.Name)
	if v := q.View(t.ViewID); v != nil && len(q.Views) > 1 {
		fmt.Fprintf(&b, "[%s]\n", v.Name)
	}
	for _, p := range t.PartSummary {
		fmt.Fprintf(&b, "- %s: %s\n", p.Name, money(p.Price, currency))
	}
	if t.DiscountAmount > 0 {
		fmt.Fprintf(&b, "Subtotal: %s\n", money(t.Subtotal, currency))
		fmt.Fprintf(&b, "Discount (%d%%): -%s\n", t.DiscountRate, money(t.DiscountAmount, currency))
	}
	fmt.Fprintf(&b, "Total: %s", money(t.Total, currency))
	return b.String()
}

func money(v int64, currency string) string {
	return humanize.Comma(v) + " " + currency
}
