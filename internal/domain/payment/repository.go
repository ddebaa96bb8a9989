package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository defines the persistence contract for payment aggregates.
type PaymentRepository interface {
	// FindByBookingID retrieves the payment attached to a booking.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Payment, error)

	// Save persists a new payment. A second payment for the same booking is ALREADY_EXISTS.
	Save(ctx context.Context, p *Payment) error

	// Update persists changes with optimistic locking.
	Update(ctx context.Context, p *Payment) error
}
