package billing

import (
	"context"

	"github.com/google/uuid"
)

// ProgressPaymentRepository defines persistence for progress payments
type ProgressPaymentRepository interface {
	// FindByID finds a payment with its details
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ProgressPayment, error)

	// FindByProject lists a project's payments ordered by payment number, without details
	FindByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]ProgressPayment, error)

	// MaxPaymentNo returns the highest payment number of a project, or 0
	MaxPaymentNo(ctx context.Context, tenantID, projectID uuid.UUID) (int, error)

	// FindLastApproved returns the approved payment with the highest number, with details.
	// It returns (nil, nil) when the project has no approved payment.
	FindLastApproved(ctx context.Context, tenantID, projectID uuid.UUID) (*ProgressPayment, error)

	// Create inserts a new payment and its details.
	// A taken (project, payment number) pair yields shared.ErrAlreadyExists.
	Create(ctx context.Context, payment *ProgressPayment) error

	// SaveWithLock updates a payment and its details if the stored version matches
	SaveWithLock(ctx context.Context, payment *ProgressPayment) error
}
