package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	appbilling "github.com/erp/progress-billing/internal/application/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleCertificate() appbilling.Certificate {
	date := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	return appbilling.Certificate{
		CompanyName:  "Yapi Insaat A.S.",
		ProjectCode:  "PRJ-7",
		ProjectName:  "Ring road",
		CustomerName: "=HYPERLINK(\"x\")",
		Payment: appbilling.PaymentDetail{
			ID:                     uuid.New(),
			PaymentNo:              1,
			Date:                   date,
			PeriodStart:            date.AddDate(0, -1, 1),
			PeriodEnd:              date,
			Currency:               "USD",
			BaseCurrency:           "TRY",
			ExchangeRate:           d("32.000000"),
			GrossWorkAmount:        d("300.00"),
			CumulativeTotalAmount:  d("300.00"),
			PeriodDeltaAmount:      d("300.00"),
			RetentionRate:          d("0.10"),
			RetentionAmount:        d("30.00"),
			WithholdingTaxRate:     d("0.05"),
			WithholdingTaxAmount:   d("13.50"),
			NetPayableAmount:       d("256.50"),
			NetPayableBaseAmount:   d("8208.00"),
			Status:                 "DRAFT",
			AdvanceDeductionAmount: decimal.Zero,
			Lines: []appbilling.PaymentLine{
				{ID: uuid.New(), ItemCode: "A", Description: "Earthworks"},
				{
					ID:                        uuid.New(),
					ItemCode:                  "A.1",
					Description:               "Excavation",
					Unit:                      "m3",
					UnitPrice:                 d("10.00"),
					CurrentCumulativeQuantity: d("30"),
					PeriodQuantity:            d("30"),
					PeriodAmount:              d("300.00"),
					TotalAmount:               d("300.00"),
				},
			},
		},
	}
}

func TestRender_XLSX(t *testing.T) {
	content, err := NewCertificateRenderer().Render(context.Background(), appbilling.ExportFormatXLSX, sampleCertificate())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Progress Payment #1 - PRJ-7", title)

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)

	var (
		foundLine     bool
		foundNet      bool
		foundBase     bool
		customerValue string
	)
	for _, r := range rows {
		if len(r) > 1 && r[0] == "Customer" {
			customerValue = r[1]
		}
		if len(r) > 0 && r[0] == "A.1" {
			foundLine = true
			assert.Equal(t, "Excavation", r[1])
			assert.Equal(t, "300.00", r[len(r)-1])
		}
		if len(r) > 8 && r[6] == "Net payable" {
			foundNet = true
			assert.Equal(t, "256.50", r[8])
		}
		if len(r) > 8 && r[6] == "Net payable (TRY @ 32.000000)" {
			foundBase = true
			assert.Equal(t, "8,208.00", r[8])
		}
	}
	assert.True(t, foundLine, "detail row rendered")
	assert.True(t, foundNet, "net payable rendered")
	assert.True(t, foundBase, "base currency amount rendered")
	assert.Equal(t, "'=HYPERLINK(\"x\")", customerValue, "formula text is neutralised")
}

func TestRender_PDF(t *testing.T) {
	content, err := NewCertificateRenderer().Render(context.Background(), appbilling.ExportFormatPDF, sampleCertificate())
	require.NoError(t, err)
	require.NotEmpty(t, content)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestRender_PDFWithoutLines(t *testing.T) {
	cert := sampleCertificate()
	cert.Payment.Lines = nil
	cert.Payment.BaseCurrency = cert.Payment.Currency

	content, err := NewCertificateRenderer().Render(context.Background(), appbilling.ExportFormatPDF, cert)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestRender_UnsupportedFormat(t *testing.T) {
	_, err := NewCertificateRenderer().Render(context.Background(), appbilling.ExportFormat("docx"), sampleCertificate())
	assert.Error(t, err)
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCertificateRenderer().Render(ctx, appbilling.ExportFormatXLSX, sampleCertificate())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeCell(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"Earthwork": "Earthwork",
		"=SUM(A1)":  "'=SUM(A1)",
		"+1":        "'+1",
		"-5":        "'-5",
		"@cmd":      "'@cmd",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeCell(in), in)
	}
}
