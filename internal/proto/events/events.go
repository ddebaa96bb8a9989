// Package events defines the topics and payloads this service publishes and consumes.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicOfferEvents   = "marketplace.offer.events"
	TopicBookingEvents = "marketplace.booking.events"
	TopicPaymentEvents = "marketplace.payment.events"
	TopicGatewayEvents = "marketplace.gateway.events"
)

// Event types.
const (
	OfferSubmitted = "offer.submitted"
	OfferAccepted  = "offer.accepted"
	OfferRejected  = "offer.rejected"
	OfferWithdrawn = "offer.withdrawn"

	RequestCreated   = "request.created"
	RequestCancelled = "request.cancelled"
	RequestReopened  = "request.reopened"

	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"

	DisputeOpened   = "dispute.opened"
	DisputeResolved = "dispute.resolved"

	PaymentCreated = "payment.created"
	PaymentPaid    = "payment.paid"

	GatewayOTPSubmitted = "gateway.otp.submitted"
)

// OfferSubmittedEvent is published when a provider creates or revises an offer.
type OfferSubmittedEvent struct {
	OfferID            uuid.UUID `json:"offer_id"`
	RequestID          uuid.UUID `json:"request_id"`
	ProviderID         uuid.UUID `json:"provider_id"`
	ProposedPriceCents int64     `json:"proposed_price_cents"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// OfferAcceptedEvent is published when a client accepts an offer.
type OfferAcceptedEvent struct {
	OfferID          uuid.UUID   `json:"offer_id"`
	RequestID        uuid.UUID   `json:"request_id"`
	ClientID         uuid.UUID   `json:"client_id"`
	ProviderID       uuid.UUID   `json:"provider_id"`
	BookingID        uuid.UUID   `json:"booking_id"`
	RejectedOfferIDs []uuid.UUID `json:"rejected_offer_ids"`
	OccurredAt       time.Time   `json:"occurred_at"`
}

// OfferStatusEvent is published when an offer is rejected or withdrawn.
type OfferStatusEvent struct {
	OfferID    uuid.UUID `json:"offer_id"`
	RequestID  uuid.UUID `json:"request_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RequestEvent is published when a request is created, cancelled or reopened.
type RequestEvent struct {
	RequestID  uuid.UUID `json:"request_id"`
	ClientID   uuid.UUID `json:"client_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCreatedEvent is published when a booking is created from an offer or a listing.
type BookingCreatedEvent struct {
	BookingID        uuid.UUID  `json:"booking_id"`
	BookingNumber    string     `json:"booking_number"`
	Source           string     `json:"source"`
	OfferID          *uuid.UUID `json:"offer_id,omitempty"`
	ServiceID        *uuid.UUID `json:"service_id,omitempty"`
	ClientID         uuid.UUID  `json:"client_id"`
	ProviderID       uuid.UUID  `json:"provider_id"`
	TotalAmountCents int64      `json:"total_amount_cents"`
	Currency         string     `json:"currency"`
	OccurredAt       time.Time  `json:"occurred_at"`
}

// BookingStatusChangedEvent is published on every booking status transition.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	ChangedBy     uuid.UUID `json:"changed_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// DisputeEvent is published when a dispute is opened or resolved.
type DisputeEvent struct {
	DisputeID  uuid.UUID `json:"dispute_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ActorID    uuid.UUID `json:"actor_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentCreatedEvent is published when a payment method is chosen.
type PaymentCreatedEvent struct {
	PaymentID           uuid.UUID `json:"payment_id"`
	BookingID           uuid.UUID `json:"booking_id"`
	PaymentType         string    `json:"payment_type"`
	AmountCents         int64     `json:"amount_cents"`
	PlatformFeeCents    int64     `json:"platform_fee_cents"`
	ProviderAmountCents int64     `json:"provider_amount_cents"`
	Currency            string    `json:"currency"`
	OccurredAt          time.Time `json:"occurred_at"`
}

// PaymentPaidEvent is published when a payment settles.
type PaymentPaidEvent struct {
	PaymentID        uuid.UUID `json:"payment_id"`
	BookingID        uuid.UUID `json:"booking_id"`
	PaymentType      string    `json:"payment_type"`
	AmountCents      int64     `json:"amount_cents"`
	BookingConfirmed bool      `json:"booking_confirmed"`
	PaidAt           time.Time `json:"paid_at"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// GatewayOTPSubmittedEvent is consumed from the payment gateway when a client answers the
// OTP challenge outside the API.
type GatewayOTPSubmittedEvent struct {
	BookingID uuid.UUID `json:"booking_id"`
	ClientID  uuid.UUID `json:"client_id"`
	OTP       string    `json:"otp"`
}
