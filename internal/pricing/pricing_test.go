package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/quotecalc/internal/model"
)

func equalInt(t *testing.T, name string, got, want int64) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = %d, want %d", name, got, want)
	}
}

func ptr(s string) *string { return &s }

func scenarioPart() model.Part {
	return model.Part{
		ID:         "pt_1",
		Name:       "Housing",
		MaterialID: ptr("mat_1"),
		Volume:     10,
		Options: []model.Option{
			{Type: model.OptionPostProcessing, PriceType: model.PriceFixed, Price: 2000},
			{Type: model.OptionMechanism, PriceType: model.PricePercent, Price: 10},
		},
	}
}

func TestPartPrice_ConcreteScenario(t *testing.T) {
	material := &model.Material{ID: "mat_1", PricePerUnit: 500}

	result := PartPrice(scenarioPart(), material)

	equalInt(t, "printing", result.Printing, 5000)
	equalInt(t, "postProcessing", result.PostProcessing, 2000)
	equalInt(t, "mechanism", result.Mechanism, 500)
	equalInt(t, "subtotal", result.Subtotal, 7500)
}

func TestPartPrice_IsPure(t *testing.T) {
	material := &model.Material{ID: "mat_1", PricePerUnit: 123.45}
	part := scenarioPart()
	part.Volume = 3.3

	first := PartPrice(part, material)
	second := PartPrice(part, material)
	if first != second {
		t.Fatalf("PartPrice not deterministic: %+v vs %+v", first, second)
	}
}

func TestPartPrice_MissingMaterialPrintsForFree(t *testing.T) {
	part := scenarioPart()

	result := PartPrice(part, nil)

	equalInt(t, "printing", result.Printing, 0)
	equalInt(t, "postProcessing", result.PostProcessing, 2000)
	equalInt(t, "mechanism", result.Mechanism, 0)
	equalInt(t, "subtotal", result.Subtotal, 2000)
}

func TestPartPrice_PercentOptionsIndependentOfOrder(t *testing.T) {
	material := &model.Material{PricePerUnit: 333}
	a := model.Option{Type: model.OptionPostProcessing, PriceType: model.PricePercent, Price: 15}
	b := model.Option{Type: model.OptionPostProcessing, PriceType: model.PricePercent, Price: 7}
	fixed := model.Option{Type: model.OptionPostProcessing, PriceType: model.PriceFixed, Price: 100}

	forward := PartPrice(model.Part{Volume: 7, Options: []model.Option{a, fixed, b}}, material)
	backward := PartPrice(model.Part{Volume: 7, Options: []model.Option{b, fixed, a}}, material)

	// printing = 2331; round(349.65) + round(163.17) + 100
	equalInt(t, "forward postProcessing", forward.PostProcessing, 350+163+100)
	equalInt(t, "backward postProcessing", backward.PostProcessing, forward.PostProcessing)
	equalInt(t, "subtotal", forward.Subtotal, 2331+613)
}

func TestPartPrice_RoundsHalfUpPerComponent(t *testing.T) {
	material := &model.Material{PricePerUnit: 0.5}
	part := model.Part{
		Volume:  5,
		Options: []model.Option{{Type: model.OptionMechanism, PriceType: model.PriceFixed, Price: 0.5}},
	}

	result := PartPrice(part, material)

	equalInt(t, "printing", result.Printing, 3)
	equalInt(t, "mechanism", result.Mechanism, 1)
	equalInt(t, "subtotal", result.Subtotal, 4)
}

func TestCalculateViewTotal_PreservesPartOrder(t *testing.T) {
	lookup := NewLookup([]model.Material{{ID: "mat_1", PricePerUnit: 100}}, nil)
	view := model.View{Parts: []model.Part{
		{ID: "pt_b", Name: "B", MaterialID: ptr("mat_1"), Volume: 2},
		{ID: "pt_a", Name: "A", MaterialID: ptr("mat_gone"), Volume: 9},
		{ID: "pt_c", Name: "C", MaterialID: ptr("mat_1"), Volume: 1},
	}}

	total := CalculateViewTotal(view, lookup)

	if len(total.PartSummary) != 3 {
		t.Fatalf("expected 3 summary lines, got %d", len(total.PartSummary))
	}
	for i, want := range []string{"B", "A", "C"} {
		if total.PartSummary[i].Name != want {
			t.Fatalf("line %d = %q, want %q", i, total.PartSummary[i].Name, want)
		}
	}
	equalInt(t, "dangling material line", total.PartSummary[1].Price, 0)
	equalInt(t, "subtotal", total.Subtotal, 300)
}

func TestCalculateQuoteTotal_ClientDiscount(t *testing.T) {
	lookup := NewLookup(
		[]model.Material{{ID: "mat_1", PricePerUnit: 500}},
		[]model.Client{{ID: "cli_1", Name: "Acme", DiscountRate: 20}},
	)
	quote := model.Quote{
		ClientID: ptr("cli_1"),
		Views:    []model.View{{ID: "vw_1", Parts: []model.Part{scenarioPart()}}},
	}

	total := CalculateQuoteTotal(quote, "", lookup)

	equalInt(t, "subtotal", total.Subtotal, 7500)
	equalInt(t, "discountAmount", total.DiscountAmount, 1500)
	equalInt(t, "total", total.Total, 6000)
	if total.DiscountRate != 20 || total.ViewID != "vw_1" {
		t.Fatalf("unexpected quote total: %+v", total)
	}
}

func TestCalculateQuoteTotal_SelectsViewOrFallsBackToFirst(t *testing.T) {
	lookup := NewLookup([]model.Material{{ID: "mat_1", PricePerUnit: 10}}, nil)
	quote := model.Quote{Views: []model.View{
		{ID: "vw_1", Parts: []model.Part{{MaterialID: ptr("mat_1"), Volume: 1}}},
		{ID: "vw_2", Parts: []model.Part{{MaterialID: ptr("mat_1"), Volume: 5}}},
	}}

	equalInt(t, "vw_2", CalculateQuoteTotal(quote, "vw_2", lookup).Subtotal, 50)
	equalInt(t, "unknown view", CalculateQuoteTotal(quote, "vw_missing", lookup).Subtotal, 10)
	equalInt(t, "no view id", CalculateQuoteTotal(quote, "", lookup).Subtotal, 10)
}

func TestDiscountRate_Resolution(t *testing.T) {
	lookup := NewLookup(nil, []model.Client{{ID: "cli_1", DiscountRate: 15}})

	cases := []struct {
		name  string
		quote model.Quote
		want  int
	}{
		{"none", model.Quote{}, 0},
		{"client", model.Quote{ClientID: ptr("cli_1")}, 15},
		{"dangling client", model.Quote{ClientID: ptr("cli_deleted")}, 0},
		{"custom client", model.Quote{CustomClient: &model.CustomClient{DiscountRate: 30}}, 30},
		{"custom client clamped", model.Quote{CustomClient: &model.CustomClient{DiscountRate: 250}}, 100},
		{"client wins over custom", model.Quote{ClientID: ptr("cli_1"), CustomClient: &model.CustomClient{DiscountRate: 50}}, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DiscountRate(tc.quote, lookup); got != tc.want {
				t.Fatalf("DiscountRate = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestDiscountAmount_NeverExceedsSubtotal(t *testing.T) {
	for _, subtotal := range []int64{0, 1, 7, 99, 7500, 123457} {
		for rate := 0; rate <= 100; rate++ {
			amount := DiscountAmount(subtotal, rate)
			if amount < 0 || amount > subtotal {
				t.Fatalf("DiscountAmount(%d, %d) = %d out of range", subtotal, rate, amount)
			}
			if subtotal-amount < 0 {
				t.Fatalf("negative total for subtotal=%d rate=%d", subtotal, rate)
			}
		}
	}
	equalInt(t, "floor", DiscountAmount(99, 15), 14)
}

func TestRoundHalfUp_TiesGoUp(t *testing.T) {
	cases := map[string]int64{
		"2.5":    3,
		"2.4999": 2,
		"-0.5":   0,
		"-1.5":   -1,
		"-1.51":  -2,
	}
	for in, want := range cases {
		equalInt(t, in, roundHalfUp(decimal.RequireFromString(in)), want)
	}
}

func TestPartPrice_NegativeFixedOptionRoundsHalfUp(t *testing.T) {
	part := model.Part{
		Options: []model.Option{{Type: model.OptionMechanism, PriceType: model.PriceFixed, Price: -0.5}},
	}

	result := PartPrice(part, nil)

	equalInt(t, "mechanism", result.Mechanism, 0)
	equalInt(t, "subtotal", result.Subtotal, 0)
}
