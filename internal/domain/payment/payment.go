// Package payment holds the one-to-one settlement record attached to a booking.
package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localpro-market/service-booking/internal/domain/fee"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// Payment is the aggregate root for a booking's settlement. The fee split is fixed at creation.
type Payment struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	paymentType PaymentType
	status      PaymentStatus

	amountCents         int64
	platformFeeCents    int64
	providerAmountCents int64
	currency            string
	commissionRate      decimal.Decimal
	fixedFeeCents       *int64

	paidAt   *time.Time
	metadata map[string]any

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewPayment creates a pending payment for amountCents, splitting it with the given fee snapshot.
func NewPayment(
	bookingID uuid.UUID,
	paymentType PaymentType,
	amountCents int64,
	currency string,
	snap fee.Snapshot,
	metadata map[string]any,
) (*Payment, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewFieldValidationError("booking_id", "booking ID is required")
	}
	if paymentType != TypeCash && paymentType != TypeOnline {
		return nil, domain.NewFieldValidationError("payment_type", fmt.Sprintf("invalid payment type: %s", paymentType))
	}
	if amountCents <= 0 {
		return nil, domain.NewFieldValidationError("amount", "amount must be positive")
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	split := snap.Compute(amountCents)
	now := time.Now().UTC()
	return &Payment{
		id:                  uuid.New(),
		bookingID:           bookingID,
		paymentType:         paymentType,
		status:              StatusPending,
		amountCents:         split.AmountCents,
		platformFeeCents:    split.PlatformFeeCents,
		providerAmountCents: split.ProviderAmountCents,
		currency:            currency,
		commissionRate:      snap.CommissionRate,
		fixedFeeCents:       snap.FixedFeeCents,
		metadata:            metadata,
		version:             1,
		createdAt:           now,
		updatedAt:           now,
	}, nil
}

// ReconstructPayment rebuilds a Payment from persistence data (no validation).
func ReconstructPayment(
	id uuid.UUID,
	bookingID uuid.UUID,
	paymentType PaymentType,
	status PaymentStatus,
	amountCents int64,
	platformFeeCents int64,
	providerAmountCents int64,
	currency string,
	commissionRate decimal.Decimal,
	fixedFeeCents *int64,
	paidAt *time.Time,
	metadata map[string]any,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Payment {
	return &Payment{
		id:                  id,
		bookingID:           bookingID,
		paymentType:         paymentType,
		status:              status,
		amountCents:         amountCents,
		platformFeeCents:    platformFeeCents,
		providerAmountCents: providerAmountCents,
		currency:            currency,
		commissionRate:      commissionRate,
		fixedFeeCents:       fixedFeeCents,
		paidAt:              paidAt,
		metadata:            metadata,
		version:             version,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

// --- Getters ---

// ID returns the payment's unique identifier.
func (p *Payment) ID() uuid.UUID { return p.id }

// BookingID returns the booking this payment settles.
func (p *Payment) BookingID() uuid.UUID { return p.bookingID }

// Type returns cash or online.
func (p *Payment) Type() PaymentType { return p.paymentType }

// Status returns the settlement status.
func (p *Payment) Status() PaymentStatus { return p.status }

// AmountCents returns the full amount, equal to the booking total.
func (p *Payment) AmountCents() int64 { return p.amountCents }

// PlatformFeeCents returns the platform's share.
func (p *Payment) PlatformFeeCents() int64 { return p.platformFeeCents }

// ProviderAmountCents returns the provider's share.
func (p *Payment) ProviderAmountCents() int64 { return p.providerAmountCents }

// Currency returns the currency code.
func (p *Payment) Currency() string { return p.currency }

// CommissionRate returns the rate the fee was computed with.
func (p *Payment) CommissionRate() decimal.Decimal { return p.commissionRate }

// FixedFeeCents returns the fixed fee the fee was computed with, if any.
func (p *Payment) FixedFeeCents() *int64 { return p.fixedFeeCents }

// PaidAt returns when the payment settled.
func (p *Payment) PaidAt() *time.Time { return p.paidAt }

// Metadata returns the free-form metadata (masked card facts for online payments).
func (p *Payment) Metadata() map[string]any { return p.metadata }

// Version returns the entity version for optimistic locking.
func (p *Payment) Version() int64 { return p.version }

// CreatedAt returns the creation timestamp.
func (p *Payment) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (p *Payment) UpdatedAt() time.Time { return p.updatedAt }

// --- Behavior ---

// IsPaid reports whether the payment has settled.
func (p *Payment) IsPaid() bool { return p.status == StatusPaid }

// IsResumableAs reports whether a repeated choice of paymentType can return this payment unchanged.
func (p *Payment) IsResumableAs(paymentType PaymentType) bool {
	return p.paymentType == paymentType && p.status == StatusPending
}

// MarkPaid settles a pending payment of the expected type.
func (p *Payment) MarkPaid(expected PaymentType) error {
	if p.paymentType != expected {
		return domain.NewInvalidStateError("payment", fmt.Sprintf("payment is %s, not %s", p.paymentType, expected))
	}
	if p.status == StatusPaid {
		return domain.NewAlreadyConfirmedError("payment has already been confirmed")
	}
	if !p.status.CanTransitionTo(StatusPaid) {
		return domain.NewInvalidTransitionError(string(p.status), string(StatusPaid))
	}
	now := time.Now().UTC()
	p.status = StatusPaid
	p.paidAt = &now
	if p.paymentType == TypeOnline {
		if p.metadata == nil {
			p.metadata = map[string]any{}
		}
		p.metadata["otp_required"] = false
	}
	p.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (p *Payment) IncrementVersion() {
	p.version++
	p.updatedAt = time.Now().UTC()
}
