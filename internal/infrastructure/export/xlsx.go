package export

import (
	"bytes"
	"fmt"
	"strconv"

	appbilling "github.com/erp/progress-billing/internal/application/billing"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Certificate"

var lineColumns = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}

func renderXLSX(cert appbilling.Certificate) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	widths := []float64{10, 40, 8, 14, 14, 14, 14, 16, 16}
	for i, c := range lineColumns {
		if err := f.SetColWidth(sheetName, c, c, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", c, err)
		}
	}

	st, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}
	last := lineColumns[len(lineColumns)-1]
	p := cert.Payment

	if err := f.MergeCell(sheetName, "A1", last+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeCell(certificateTitle(cert)))
	f.SetCellStyle(sheetName, "A1", last+"1", st.title)

	header := [][2]string{
		{"Company", cert.CompanyName},
		{"Project", cert.ProjectCode + " " + cert.ProjectName},
		{"Customer", cert.CustomerName},
		{"Date", formatDate(p.Date)},
		{"Period", formatDate(p.PeriodStart) + " - " + formatDate(p.PeriodEnd)},
		{"Currency", p.Currency},
		{"Status", p.Status},
	}
	row := 3
	for _, h := range header {
		r := strconv.Itoa(row)
		f.SetCellValue(sheetName, "A"+r, h[0])
		f.SetCellStyle(sheetName, "A"+r, "A"+r, st.label)
		f.SetCellValue(sheetName, "B"+r, sanitizeCell(h[1]))
		row++
	}

	row++
	headRow := strconv.Itoa(row)
	titles := []string{"Item", "Description", "Unit", "Unit price", "Previous qty", "Cumulative qty", "Period qty", "Period amount", "Total amount"}
	for i, t := range titles {
		f.SetCellValue(sheetName, lineColumns[i]+headRow, t)
	}
	f.SetCellStyle(sheetName, "A"+headRow, last+headRow, st.header)
	row++

	for _, l := range p.Lines {
		r := strconv.Itoa(row)
		f.SetCellValue(sheetName, "A"+r, sanitizeCell(l.ItemCode))
		f.SetCellValue(sheetName, "B"+r, sanitizeCell(l.Description))
		f.SetCellValue(sheetName, "C"+r, sanitizeCell(l.Unit))
		f.SetCellValue(sheetName, "D"+r, l.UnitPrice.InexactFloat64())
		f.SetCellValue(sheetName, "E"+r, l.PreviousCumulativeQuantity.InexactFloat64())
		f.SetCellValue(sheetName, "F"+r, l.CurrentCumulativeQuantity.InexactFloat64())
		f.SetCellValue(sheetName, "G"+r, l.PeriodQuantity.InexactFloat64())
		f.SetCellValue(sheetName, "H"+r, l.PeriodAmount.InexactFloat64())
		f.SetCellValue(sheetName, "I"+r, l.TotalAmount.InexactFloat64())
		f.SetCellStyle(sheetName, "A"+r, "C"+r, st.cell)
		f.SetCellStyle(sheetName, "D"+r, "G"+r, st.quantity)
		f.SetCellStyle(sheetName, "H"+r, last+r, st.amount)
		row++
	}

	row++
	for _, s := range summaryLines(p) {
		r := strconv.Itoa(row)
		f.SetCellValue(sheetName, "G"+r, s.Label)
		f.SetCellValue(sheetName, "I"+r, s.Amount.InexactFloat64())
		if s.Strong {
			f.SetCellStyle(sheetName, "G"+r, "H"+r, st.totalLabel)
			f.SetCellStyle(sheetName, "I"+r, "I"+r, st.totalAmount)
		} else {
			f.SetCellStyle(sheetName, "G"+r, "H"+r, st.label)
			f.SetCellStyle(sheetName, "I"+r, "I"+r, st.amount)
		}
		row++
	}
	if p.BaseCurrency != "" && p.BaseCurrency != p.Currency {
		r := strconv.Itoa(row)
		f.SetCellValue(sheetName, "G"+r, fmt.Sprintf("Net payable (%s @ %s)", p.BaseCurrency, p.ExchangeRate.StringFixed(6)))
		f.SetCellValue(sheetName, "I"+r, p.NetPayableBaseAmount.InexactFloat64())
		f.SetCellStyle(sheetName, "G"+r, "H"+r, st.label)
		f.SetCellStyle(sheetName, "I"+r, "I"+r, st.amount)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

type sheetStyles struct {
	title, label, header, cell, quantity, amount, totalLabel, totalAmount int
}

func newSheetStyles(f *excelize.File) (*sheetStyles, error) {
	amountFmt := "#,##0.00"
	quantityFmt := "#,##0.0000"
	st := &sheetStyles{}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&st.label, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 10},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    thinBorders(),
		}},
		{&st.cell, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{&st.quantity, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &quantityFmt}},
		{&st.amount, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &amountFmt}},
		{&st.totalLabel, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&st.totalAmount, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, CustomNumFmt: &amountFmt}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return st, nil
}

// sanitizeCell stops text starting with a formula character from being evaluated
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
