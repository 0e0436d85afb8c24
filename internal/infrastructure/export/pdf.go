package export

import (
	"fmt"

	appbilling "github.com/erp/progress-billing/internal/application/billing"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

var (
	grey       = &props.Color{Red: 100, Green: 100, Blue: 100}
	headerFill = &props.Color{Red: 33, Green: 37, Blue: 41}
	altFill    = &props.Color{Red: 248, Green: 249, Blue: 250}
)

func renderPDF(cert appbilling.Certificate) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   grey,
		}).
		Build()

	m := maroto.New(cfg)
	addCertificateHeader(m, cert)
	addLinesTable(m, cert.Payment)
	addSummary(m, cert.Payment)
	addSignatures(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate certificate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addCertificateHeader(m core.Maroto, cert appbilling.Certificate) {
	p := cert.Payment
	m.AddRows(
		row.New(10).Add(
			col.New(6).Add(text.New(cert.CompanyName, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Left})),
			col.New(6).Add(text.New("PROGRESS PAYMENT CERTIFICATE", props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right})),
		),
	)

	label := props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Left, Color: grey}
	value := props.Text{Size: 9, Align: align.Left}
	pairs := [][2]string{
		{"PROJECT", cert.ProjectCode + " " + cert.ProjectName},
		{"CUSTOMER", cert.CustomerName},
		{"PAYMENT NO", fmt.Sprintf("%d", p.PaymentNo)},
		{"DATE", formatDate(p.Date)},
		{"PERIOD", formatDate(p.PeriodStart) + " - " + formatDate(p.PeriodEnd)},
		{"CURRENCY / STATUS", p.Currency + " / " + p.Status},
	}
	for i := 0; i < len(pairs); i += 2 {
		m.AddRows(
			row.New(6).Add(
				col.New(2).Add(text.New(pairs[i][0], label)),
				col.New(4).Add(text.New(pairs[i][1], value)),
				col.New(2).Add(text.New(pairs[i+1][0], label)),
				col.New(4).Add(text.New(pairs[i+1][1], value)),
			),
		)
	}
	m.AddRows(row.New(4))
}

func addLinesTable(m core.Maroto, p appbilling.PaymentDetail) {
	head := props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Center, Color: &props.Color{Red: 255, Green: 255, Blue: 255}}
	headCell := &props.Cell{BackgroundColor: headerFill}

	titles := []struct {
		size  int
		title string
	}{
		{1, "Item"}, {3, "Description"}, {1, "Unit"}, {1, "Unit price"}, {1, "Previous qty"},
		{1, "Cumulative qty"}, {1, "Period qty"}, {1, "Period amount"}, {2, "Total amount"},
	}
	cols := make([]core.Col, len(titles))
	for i, t := range titles {
		cols[i] = col.New(t.size).Add(text.New(t.title, head)).WithStyle(headCell)
	}
	m.AddRows(row.New(8).Add(cols...))

	left := props.Text{Size: 7, Align: align.Left}
	right := props.Text{Size: 7, Align: align.Right}
	for i, l := range p.Lines {
		body := []core.Col{
			col.New(1).Add(text.New(l.ItemCode, left)),
			col.New(3).Add(text.New(l.Description, left)),
			col.New(1).Add(text.New(l.Unit, left)),
			col.New(1).Add(text.New(l.UnitPrice.StringFixed(2), right)),
			col.New(1).Add(text.New(l.PreviousCumulativeQuantity.StringFixed(4), right)),
			col.New(1).Add(text.New(l.CurrentCumulativeQuantity.StringFixed(4), right)),
			col.New(1).Add(text.New(l.PeriodQuantity.StringFixed(4), right)),
			col.New(1).Add(text.New(l.PeriodAmount.StringFixed(2), right)),
			col.New(2).Add(text.New(l.TotalAmount.StringFixed(2), right)),
		}
		if i%2 == 1 {
			for j := range body {
				body[j] = body[j].WithStyle(&props.Cell{BackgroundColor: altFill})
			}
		}
		m.AddRows(row.New(6).Add(body...))
	}
	m.AddRows(row.New(4))
}

func addSummary(m core.Maroto, p appbilling.PaymentDetail) {
	for _, s := range summaryLines(p) {
		style := fontstyle.Normal
		if s.Strong {
			style = fontstyle.Bold
		}
		m.AddRows(
			row.New(6).Add(
				col.New(7),
				col.New(3).Add(text.New(s.Label, props.Text{Size: 8, Style: style, Align: align.Right})),
				col.New(2).Add(text.New(amount(s.Amount, p.Currency), props.Text{Size: 8, Style: style, Align: align.Right})),
			),
		)
	}
	if p.BaseCurrency != "" && p.BaseCurrency != p.Currency {
		m.AddRows(
			row.New(6).Add(
				col.New(7),
				col.New(3).Add(text.New(fmt.Sprintf("Net payable in %s @ %s", p.BaseCurrency, p.ExchangeRate.StringFixed(6)),
					props.Text{Size: 8, Align: align.Right, Color: grey})),
				col.New(2).Add(text.New(amount(p.NetPayableBaseAmount, p.BaseCurrency), props.Text{Size: 8, Align: align.Right})),
			),
		)
	}
	m.AddRows(row.New(10))
}

func addSignatures(m core.Maroto) {
	sig := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Top: 12}
	m.AddRows(
		row.New(20).Add(
			col.New(4).Add(text.New("Prepared by", sig)),
			col.New(4).Add(text.New("Checked by", sig)),
			col.New(4).Add(text.New("Approved by", sig)),
		),
	)
}

func amount(d decimal.Decimal, currency string) string {
	return d.StringFixed(2) + " " + currency
}
