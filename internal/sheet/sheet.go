// Package sheet renders a priced quote as an XLSX workbook or a short text
// summary.
package sheet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/quotecalc/internal/model"
	"github.com/Simplici0/quotecalc/internal/pricing"
)

const maxSheetName = 31

var header = []interface{}{
	"part",
	"material",
	"color",
	"volume",
	"printing",
	"post_processing",
	"mechanism",
	"subtotal",
}

// Render writes one worksheet per view. Each sheet lists the part breakdown
// followed by subtotal, discount and total rows.
func Render(q model.Quote, lookup pricing.Lookup) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := f.GetSheetName(f.GetActiveSheetIndex())
	for i, v := range q.Views {
		name := sheetName(i, v.Name)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", name, err)
		}
		if err := writeView(f, name, q, v, lookup); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeView(f *excelize.File, sheet string, q model.Quote, v model.View, lookup pricing.Lookup) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, p := range v.Parts {
		m := lookup.Material(p.MaterialID)
		b := pricing.PartPrice(p, m)
		var matName, matColor string
		if m != nil {
			matName, matColor = m.Name, m.Color
		}
		line := []interface{}{p.Name, matName, matColor, p.Volume, b.Printing, b.PostProcessing, b.Mechanism, b.Subtotal}
		if err := setRow(f, sheet, row, line); err != nil {
			return err
		}
		row++
	}

	t := pricing.CalculateQuoteTotal(q, v.ID, lookup)
	row++
	totals := [][]interface{}{
		{"subtotal", t.Subtotal},
		{fmt.Sprintf("discount (%d%%)", t.DiscountRate), -t.DiscountAmount},
		{"total", t.Total},
	}
	for _, line := range totals {
		if err := setRow(f, sheet, row, line); err != nil {
			return err
		}
		row++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

// sheetName prefixes the view position so names stay unique, and strips
// characters Excel rejects.
func sheetName(i int, viewName string) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(viewName))
	name := fmt.Sprintf("%d %s", i+1, clean)
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return strings.TrimSpace(name)
}
