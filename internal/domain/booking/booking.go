package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the engagement between one client and one provider.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	source        Source
	serviceID     *uuid.UUID
	offerID       *uuid.UUID
	clientID      uuid.UUID
	providerID    uuid.UUID
	status        BookingStatus

	totalAmountCents int64
	currency         string

	scheduledAt *time.Time
	confirmedAt *time.Time
	startedAt   *time.Time
	completedAt *time.Time
	cancelledAt *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewOfferBooking creates a pending booking from an accepted offer. totalAmountCents is the
// offer's proposed price at acceptance time.
func NewOfferBooking(
	offerID uuid.UUID,
	clientID uuid.UUID,
	providerID uuid.UUID,
	totalAmountCents int64,
	currency string,
	scheduledAt *time.Time,
) (*Booking, error) {
	if offerID == uuid.Nil {
		return nil, domain.NewFieldValidationError("offer_id", "offer ID is required")
	}
	return newBooking(SourceRequestOffer, nil, &offerID, clientID, providerID, totalAmountCents, currency, scheduledAt)
}

// NewServiceBooking creates a pending booking directly from a service listing.
func NewServiceBooking(
	serviceID uuid.UUID,
	clientID uuid.UUID,
	providerID uuid.UUID,
	totalAmountCents int64,
	currency string,
	scheduledAt *time.Time,
) (*Booking, error) {
	if serviceID == uuid.Nil {
		return nil, domain.NewFieldValidationError("service_id", "service ID is required")
	}
	return newBooking(SourceService, &serviceID, nil, clientID, providerID, totalAmountCents, currency, scheduledAt)
}

func newBooking(
	source Source,
	serviceID *uuid.UUID,
	offerID *uuid.UUID,
	clientID uuid.UUID,
	providerID uuid.UUID,
	totalAmountCents int64,
	currency string,
	scheduledAt *time.Time,
) (*Booking, error) {
	if clientID == uuid.Nil {
		return nil, domain.NewFieldValidationError("client_id", "client ID is required")
	}
	if providerID == uuid.Nil {
		return nil, domain.NewFieldValidationError("provider_id", "provider ID is required")
	}
	if clientID == providerID {
		return nil, domain.NewFieldValidationError("provider_id", "a provider cannot book their own work")
	}
	if totalAmountCents <= 0 {
		return nil, domain.NewFieldValidationError("total_amount", "total amount must be positive")
	}
	if len(currency) != 3 {
		return nil, domain.NewFieldValidationError("currency", "currency must be a 3-letter code")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:               uuid.New(),
		bookingNumber:    bookingNumber,
		source:           source,
		serviceID:        serviceID,
		offerID:          offerID,
		clientID:         clientID,
		providerID:       providerID,
		status:           StatusPending,
		totalAmountCents: totalAmountCents,
		currency:         currency,
		scheduledAt:      scheduledAt,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	source Source,
	serviceID *uuid.UUID,
	offerID *uuid.UUID,
	clientID uuid.UUID,
	providerID uuid.UUID,
	status BookingStatus,
	totalAmountCents int64,
	currency string,
	scheduledAt *time.Time,
	confirmedAt *time.Time,
	startedAt *time.Time,
	completedAt *time.Time,
	cancelledAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:               id,
		bookingNumber:    bookingNumber,
		source:           source,
		serviceID:        serviceID,
		offerID:          offerID,
		clientID:         clientID,
		providerID:       providerID,
		status:           status,
		totalAmountCents: totalAmountCents,
		currency:         currency,
		scheduledAt:      scheduledAt,
		confirmedAt:      confirmedAt,
		startedAt:        startedAt,
		completedAt:      completedAt,
		cancelledAt:      cancelledAt,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// Source returns how the booking was created.
func (b *Booking) Source() Source { return b.source }

// ServiceID returns the listed service, set only for service bookings.
func (b *Booking) ServiceID() *uuid.UUID { return b.serviceID }

// OfferID returns the accepted offer, set only for request_offer bookings.
func (b *Booking) OfferID() *uuid.UUID { return b.offerID }

// ClientID returns the client's user ID.
func (b *Booking) ClientID() uuid.UUID { return b.clientID }

// ProviderID returns the provider's user ID.
func (b *Booking) ProviderID() uuid.UUID { return b.providerID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// TotalAmountCents returns the agreed total in cents.
func (b *Booking) TotalAmountCents() int64 { return b.totalAmountCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// ScheduledAt returns the scheduled time, or nil if unscheduled.
func (b *Booking) ScheduledAt() *time.Time { return b.scheduledAt }

// ConfirmedAt returns the time the booking was confirmed.
func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }

// StartedAt returns the time work started.
func (b *Booking) StartedAt() *time.Time { return b.startedAt }

// CompletedAt returns the time the booking was completed.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// PartyID implements authz.Resource.
func (b *Booking) PartyID(rel authz.Relation) (uuid.UUID, bool) {
	switch rel {
	case authz.RelationClient:
		return b.clientID, true
	case authz.RelationProvider:
		return b.providerID, true
	}
	return uuid.Nil, false
}

// --- Behavior ---

// TransitionTo moves the booking to target. Entering in_progress requires the booking's
// payment to be settled; paid reports that.
func (b *Booking) TransitionTo(target BookingStatus, paid bool) error {
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidTransitionError(string(b.status), string(target))
	}
	if target == StatusInProgress && !paid {
		return domain.NewPaymentRequiredError("payment must be settled before work can start")
	}

	now := time.Now().UTC()
	switch target {
	case StatusConfirmed:
		b.confirmedAt = &now
	case StatusInProgress:
		b.startedAt = &now
	case StatusCompleted:
		b.completedAt = &now
	case StatusCancelled:
		b.cancelledAt = &now
	}
	b.status = target
	b.updatedAt = now
	return nil
}

// ConfirmOnSettlement advances a pending booking to confirmed after cash settlement.
// It reports whether the status changed.
func (b *Booking) ConfirmOnSettlement() bool {
	if b.status != StatusPending {
		return false
	}
	return b.TransitionTo(StatusConfirmed, true) == nil
}

// IsOfferSourced reports whether cancelling this booking should reopen a request.
func (b *Booking) IsOfferSourced() bool {
	return b.source == SourceRequestOffer && b.offerID != nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
