package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Simplici0/quotecalc/internal/model"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// PartBreakdown is the priced result for one part, in whole currency units.
type PartBreakdown struct {
	Printing       int64 `json:"printing"`
	PostProcessing int64 `json:"postProcessing"`
	Mechanism      int64 `json:"mechanism"`
	Subtotal       int64 `json:"subtotal"`
}

// PartLine is one row of a view's part summary.
type PartLine struct {
	PartID string `json:"partId"`
	Name   string `json:"name"`
	Price  int64  `json:"price"`
}

// ViewTotal sums the parts of a single view.
type ViewTotal struct {
	PartSummary []PartLine `json:"partSummary"`
	Subtotal    int64      `json:"subtotal"`
}

// QuoteTotal is a view total with the quote's client discount applied.
type QuoteTotal struct {
	ViewID         string     `json:"viewId"`
	PartSummary    []PartLine `json:"partSummary"`
	Subtotal       int64      `json:"subtotal"`
	DiscountRate   int        `json:"discountRate"`
	DiscountAmount int64      `json:"discountAmount"`
	Total          int64      `json:"total"`
}

// PartPrice prices a part against its resolved material. A nil material
// means the part prints for free; there is no fallback unit price.
//
// Percent options are taken off the printing cost only, so their order does
// not matter. Every component is rounded half-up on its own and the subtotal
// is the sum of the rounded components.
func PartPrice(part model.Part, material *model.Material) PartBreakdown {
	printing := decimal.Zero
	if material != nil && part.Volume > 0 {
		printing = decimal.NewFromFloat(material.PricePerUnit).Mul(decimal.NewFromFloat(part.Volume))
	}

	var postProcessing, mechanism int64
	for _, opt := range part.Options {
		contribution := optionContribution(opt, printing)
		if opt.Type == model.OptionPostProcessing {
			postProcessing += contribution
		} else {
			mechanism += contribution
		}
	}

	b := PartBreakdown{
		Printing:       roundHalfUp(printing),
		PostProcessing: postProcessing,
		Mechanism:      mechanism,
	}
	b.Subtotal = b.Printing + b.PostProcessing + b.Mechanism
	return b
}

func optionContribution(opt model.Option, printing decimal.Decimal) int64 {
	price := decimal.NewFromFloat(opt.Price)
	if opt.PriceType == model.PricePercent {
		return roundHalfUp(printing.Mul(price).Div(hundred))
	}
	return roundHalfUp(price)
}

// roundHalfUp rounds ties toward positive infinity, so -0.5 becomes 0.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(half).Floor().IntPart()
}

// CalculateViewTotal sums part subtotals in part order.
func CalculateViewTotal(view model.View, lookup Lookup) ViewTotal {
	total := ViewTotal{PartSummary: make([]PartLine, 0, len(view.Parts))}
	for _, part := range view.Parts {
		price := PartPrice(part, lookup.Material(part.MaterialID))
		total.Subtotal += price.Subtotal
		total.PartSummary = append(total.PartSummary, PartLine{
			PartID: part.ID,
			Name:   part.Name,
			Price:  price.Subtotal,
		})
	}
	return total
}

// CalculateQuoteTotal totals the view with the given id, or the first view
// when viewID is empty or unknown, and applies the quote's discount.
func CalculateQuoteTotal(quote model.Quote, viewID string, lookup Lookup) QuoteTotal {
	out := QuoteTotal{PartSummary: []PartLine{}}

	view := quote.View(viewID)
	if view == nil && len(quote.Views) > 0 {
		view = &quote.Views[0]
	}
	if view == nil {
		return out
	}

	vt := CalculateViewTotal(*view, lookup)
	out.ViewID = view.ID
	out.PartSummary = vt.PartSummary
	out.Subtotal = vt.Subtotal
	out.DiscountRate = DiscountRate(quote, lookup)
	out.DiscountAmount = DiscountAmount(out.Subtotal, out.DiscountRate)
	out.Total = out.Subtotal - out.DiscountAmount
	return out
}

// DiscountRate resolves the quote's discount: catalog client first, then the
// custom client, else zero. A dangling client id yields zero.
func DiscountRate(quote model.Quote, lookup Lookup) int {
	rate := 0
	switch {
	case quote.ClientID != nil:
		if c := lookup.Client(quote.ClientID); c != nil {
			rate = c.DiscountRate
		}
	case quote.CustomClient != nil:
		rate = quote.CustomClient.DiscountRate
	}
	return clampRate(rate)
}

// DiscountAmount floors subtotal*rate/100 so the discount never exceeds the
// stated percentage.
func DiscountAmount(subtotal int64, rate int) int64 {
	return decimal.NewFromInt(subtotal).Mul(decimal.NewFromInt(int64(rate))).Div(hundred).Floor().IntPart()
}

func clampRate(rate int) int {
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}
