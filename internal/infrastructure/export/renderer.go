// Package export renders progress payment certificates as spreadsheets and PDFs.
package export

import (
	"context"
	"fmt"
	"time"

	appbilling "github.com/erp/progress-billing/internal/application/billing"
	"github.com/erp/progress-billing/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// CertificateRenderer renders certificates with excelize (xlsx) and maroto (pdf)
type CertificateRenderer struct{}

// NewCertificateRenderer creates a renderer
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render produces the certificate file in the requested format
func (r *CertificateRenderer) Render(ctx context.Context, format appbilling.ExportFormat, cert appbilling.Certificate) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, span := telemetry.StartServiceSpan(ctx, "certificate", "render",
		telemetry.WithAttribute(telemetry.SpanAttrFormat, string(format)),
		telemetry.WithAttribute(telemetry.SpanAttrPaymentNo, cert.Payment.PaymentNo),
	)
	defer span.End()

	var (
		out []byte
		err error
	)
	switch format {
	case appbilling.ExportFormatXLSX:
		out, err = renderXLSX(cert)
	case appbilling.ExportFormatPDF:
		out, err = renderPDF(cert)
	default:
		err = fmt.Errorf("export: unsupported format %q", format)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "bytes", len(out))
	return out, nil
}

// summaryLine is one label/amount row of the deduction block
type summaryLine struct {
	Label  string
	Amount decimal.Decimal
	Strong bool
}

func summaryLines(p appbilling.PaymentDetail) []summaryLine {
	return []summaryLine{
		{Label: "Previous cumulative amount", Amount: p.PreviousCumulativeAmount},
		{Label: "Work done this period", Amount: p.GrossWorkAmount},
		{Label: "Material on site", Amount: p.MaterialOnSiteAmount},
		{Label: "Cumulative total", Amount: p.CumulativeTotalAmount, Strong: true},
		{Label: "Period delta", Amount: p.PeriodDeltaAmount},
		{Label: fmt.Sprintf("Retention (%s%%)", percent(p.RetentionRate)), Amount: p.RetentionAmount.Neg()},
		{Label: fmt.Sprintf("Withholding tax (%s%%)", percent(p.WithholdingTaxRate)), Amount: p.WithholdingTaxAmount.Neg()},
		{Label: "Advance deduction", Amount: p.AdvanceDeductionAmount.Neg()},
		{Label: "Security deposit", Amount: p.SecurityDepositAmount.Neg()},
		{Label: "Advance repayment", Amount: p.AdvanceRepaymentAmount.Neg()},
		{Label: "Net payable", Amount: p.NetPayableAmount, Strong: true},
	}
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}

func certificateTitle(cert appbilling.Certificate) string {
	return fmt.Sprintf("Progress Payment #%d - %s", cert.Payment.PaymentNo, cert.ProjectCode)
}
