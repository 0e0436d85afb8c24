package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sequence is the number and cumulative baseline assigned to a new payment
type Sequence struct {
	PaymentNo                int
	BaselineID               *uuid.UUID
	PreviousCumulativeAmount decimal.Decimal
	previousQuantities       map[uuid.UUID]decimal.Decimal
}

// NextSequence derives the next payment number from the highest number in use and the
// cumulative baseline from the last approved payment. A nil baseline means zero everywhere.
// Numbers of unapproved payments are never reused.
func NextSequence(maxPaymentNo int, baseline *ProgressPayment) Sequence {
	seq := Sequence{
		PaymentNo:                maxPaymentNo + 1,
		PreviousCumulativeAmount: decimal.Zero,
		previousQuantities:       make(map[uuid.UUID]decimal.Decimal),
	}
	if baseline == nil {
		return seq
	}

	id := baseline.ID
	seq.BaselineID = &id
	seq.PreviousCumulativeAmount = baseline.CumulativeTotalAmount
	for _, d := range baseline.Details {
		seq.previousQuantities[d.BoQLineID] = d.CurrentCumulativeQuantity
	}
	return seq
}

// PreviousQuantity returns the baseline cumulative quantity for a BoQ line, or zero
// when the line is new scope or there is no baseline.
func (s Sequence) PreviousQuantity(boqLineID uuid.UUID) decimal.Decimal {
	if q, ok := s.previousQuantities[boqLineID]; ok {
		return q
	}
	return decimal.Zero
}
