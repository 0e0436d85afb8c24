package finance

// SourceType identifies the document that produced a finance record
type SourceType string

const (
	SourceTypeProgressPayment SourceType = "PROGRESS_PAYMENT"
	SourceTypeManual          SourceType = "MANUAL"
)

// IsValid checks if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeProgressPayment, SourceTypeManual:
		return true
	}
	return false
}
