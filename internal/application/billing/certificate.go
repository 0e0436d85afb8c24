package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/google/uuid"
)

// ExportFormat is the file format of a payment certificate
type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatPDF  ExportFormat = "pdf"
)

// ParseExportFormat validates a requested export format
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExportFormatXLSX, ExportFormatPDF:
		return f, nil
	case "":
		return ExportFormatXLSX, nil
	}
	return "", shared.NewValidationError(fmt.Sprintf("unsupported export format %q", s))
}

// ContentType returns the MIME type of the format
func (f ExportFormat) ContentType() string {
	if f == ExportFormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Certificate is the printable form of a progress payment
type Certificate struct {
	CompanyName  string
	ProjectCode  string
	ProjectName  string
	CustomerName string
	Payment      PaymentDetail
}

// Filename returns the download name of the certificate
func (c Certificate) Filename(f ExportFormat) string {
	return fmt.Sprintf("progress-payment-%s-%03d.%s", c.ProjectCode, c.Payment.PaymentNo, f)
}

// CertificateRenderer renders certificates to files
type CertificateRenderer interface {
	Render(ctx context.Context, format ExportFormat, cert Certificate) ([]byte, error)
}

// CertificateArchive keeps copies of approved certificates and returns a
// time-limited download link for the stored object.
type CertificateArchive interface {
	Archive(ctx context.Context, key, contentType string, content []byte) (string, error)
}

// ArchiveKey is the object key of an archived certificate
func ArchiveKey(tenantID uuid.UUID, projectCode, filename string) string {
	return fmt.Sprintf("certificates/%s/%s/%s", tenantID, projectCode, filename)
}

// ExportedDocument is a rendered certificate ready for download.
// ArchiveURL is set when the certificate was archived.
type ExportedDocument struct {
	Filename    string
	ContentType string
	Content     []byte
	ArchiveURL  string
}
