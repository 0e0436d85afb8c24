package billing

// PaymentStatus represents the approval status of a progress payment
type PaymentStatus string

const (
	PaymentStatusDraft    PaymentStatus = "DRAFT"
	PaymentStatusApproved PaymentStatus = "APPROVED"
	// PaymentStatusInvoiced is recognised when reading but no transition produces it.
	PaymentStatusInvoiced PaymentStatus = "INVOICED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusDraft, PaymentStatusApproved, PaymentStatusInvoiced:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsEditable reports whether quantities and deductions may still change
func (s PaymentStatus) IsEditable() bool {
	return s == PaymentStatusDraft
}

// CanTransitionTo checks if the status can transition to the target status
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusDraft:
		return target == PaymentStatusApproved
	case PaymentStatusApproved, PaymentStatusInvoiced:
		return false
	}
	return false
}
