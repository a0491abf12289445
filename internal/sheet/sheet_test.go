package sheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/quotecalc/internal/model"
	"github.com/Simplici0/quotecalc/internal/pricing"
)

func fixture() (model.Quote, pricing.Lookup) {
	mat := model.Material{ID: "mat_1", Name: "PA12", Color: "White", PricePerUnit: 500}
	client := model.Client{ID: "cli_1", Name: "Acme", DiscountRate: 20}
	part := model.Part{
		ID:         "pt_1",
		Name:       "Housing",
		MaterialID: model.StringPtr("mat_1"),
		Volume:     10,
		Options: []model.Option{
			{Type: model.OptionPostProcessing, Name: "Dyeing", PriceType: model.PriceFixed, Price: 2000},
			{Type: model.OptionMechanism, Name: "Insert", PriceType: model.PricePercent, Price: 10},
		},
	}
	q := model.Quote{
		ID:       "qt_1",
		Name:     "Drone",
		ClientID: model.StringPtr("cli_1"),
		Views: []model.View{
			{ID: "vw_1", Name: "Prototype", Parts: []model.Part{part}},
			{ID: "vw_2", Name: "Batch: 10/20", Parts: []model.Part{}},
		},
	}
	return q, pricing.NewLookup([]model.Material{mat}, []model.Client{client})
}

func TestRender(t *testing.T) {
	q, lookup := fixture()

	data, err := Render(q, lookup)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"1 Prototype", "2 Batch_ 10_20"}, f.GetSheetList())

	rows, err := f.GetRows("1 Prototype")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 6)
	assert.Equal(t, "part", rows[0][0])
	assert.Equal(t, []string{"Housing", "PA12", "White", "10", "5000", "2000", "500", "7500"}, rows[1])

	last := rows[len(rows)-1]
	assert.Equal(t, []string{"total", "6000"}, last)
	assert.Equal(t, []string{"discount (20%)", "-1500"}, rows[len(rows)-2])
}

func TestSheetNameIsTruncated(t *testing.T) {
	name := sheetName(0, strings.Repeat("x", 40))
	assert.Len(t, []rune(name), maxSheetName)
	assert.True(t, strings.HasPrefix(name, "1 "))
}

func TestText(t *testing.T) {
	q, lookup := fixture()
	total := pricing.CalculateQuoteTotal(q, "vw_1", lookup)

	got := Text(q, total, "KRW")
	want := strings.Join([]string{
		"Drone",
		"[Prototype]",
		"- Housing: 7,500 KRW",
		"Subtotal: 7,500 KRW",
		"Discount (20%): -1,500 KRW",
		"Total: 6,000 KRW",
	}, "\n")
	assert.Equal(t, want, got)
}
