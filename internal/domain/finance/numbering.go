package finance

import (
	"fmt"
	"strings"
	"time"
)

// Document number prefixes
const (
	InvoiceNumberPrefix    = "INV"
	ReceivableNumberPrefix = "AR"
)

// DayPrefix returns the per-day number prefix, e.g. "INV-20240331-"
func DayPrefix(prefix string, day time.Time) string {
	return fmt.Sprintf("%s-%s-", prefix, day.Format("20060102"))
}

// FormatDocumentNumber renders a sequence within a day prefix as five digits
func FormatDocumentNumber(dayPrefix string, seq int) string {
	return fmt.Sprintf("%s%05d", dayPrefix, seq)
}

// ParseDocumentSequence extracts the sequence from a number carrying dayPrefix.
// It returns 0 when the number does not match.
func ParseDocumentSequence(dayPrefix, number string) int {
	if !strings.HasPrefix(number, dayPrefix) {
		return 0
	}
	var seq int
	if _, err := fmt.Sscanf(number[len(dayPrefix):], "%d", &seq); err != nil {
		return 0
	}
	return seq
}
