package offer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

const (
	minMessageLength = 10
	maxMessageLength = 2000
	minEstimatedDays = 1
	maxEstimatedDays = 365
)

// Offer is the aggregate root for a provider's priced proposal against a request.
type Offer struct {
	id                 uuid.UUID
	requestID          uuid.UUID
	providerID         uuid.UUID
	message            string
	proposedPriceCents int64
	estimatedDays      *int
	status             OfferStatus

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// Terms are the provider-editable parts of an offer.
type Terms struct {
	Message            string
	ProposedPriceCents int64
	EstimatedDays      *int
}

func (t Terms) validate() (Terms, error) {
	t.Message = strings.TrimSpace(t.Message)
	if n := len([]rune(t.Message)); n < minMessageLength || n > maxMessageLength {
		return t, domain.NewFieldValidationError("message",
			fmt.Sprintf("message must be between %d and %d characters", minMessageLength, maxMessageLength))
	}
	if t.ProposedPriceCents < 0 {
		return t, domain.NewFieldValidationError("proposed_price", "proposed price cannot be negative")
	}
	if t.EstimatedDays != nil && (*t.EstimatedDays < minEstimatedDays || *t.EstimatedDays > maxEstimatedDays) {
		return t, domain.NewFieldValidationError("estimated_days",
			fmt.Sprintf("estimated days must be between %d and %d", minEstimatedDays, maxEstimatedDays))
	}
	return t, nil
}

// NewOffer creates a sent Offer from a provider on a request.
func NewOffer(requestID, providerID uuid.UUID, terms Terms) (*Offer, error) {
	if requestID == uuid.Nil {
		return nil, domain.NewFieldValidationError("request_id", "request ID is required")
	}
	if providerID == uuid.Nil {
		return nil, domain.NewFieldValidationError("provider_id", "provider ID is required")
	}
	terms, err := terms.validate()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Offer{
		id:                 uuid.New(),
		requestID:          requestID,
		providerID:         providerID,
		message:            terms.Message,
		proposedPriceCents: terms.ProposedPriceCents,
		estimatedDays:      terms.EstimatedDays,
		status:             StatusSent,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructOffer rebuilds an Offer from persistence data (no validation).
func ReconstructOffer(
	id uuid.UUID,
	requestID uuid.UUID,
	providerID uuid.UUID,
	message string,
	proposedPriceCents int64,
	estimatedDays *int,
	status OfferStatus,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Offer {
	return &Offer{
		id:                 id,
		requestID:          requestID,
		providerID:         providerID,
		message:            message,
		proposedPriceCents: proposedPriceCents,
		estimatedDays:      estimatedDays,
		status:             status,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

// ID returns the offer's unique identifier.
func (o *Offer) ID() uuid.UUID { return o.id }

// RequestID returns the request this offer bids on.
func (o *Offer) RequestID() uuid.UUID { return o.requestID }

// ProviderID returns the bidding provider.
func (o *Offer) ProviderID() uuid.UUID { return o.providerID }

// Message returns the provider's pitch.
func (o *Offer) Message() string { return o.message }

// ProposedPriceCents returns the proposed price in cents.
func (o *Offer) ProposedPriceCents() int64 { return o.proposedPriceCents }

// EstimatedDays returns the estimated duration, or nil if not given.
func (o *Offer) EstimatedDays() *int { return o.estimatedDays }

// Status returns the current offer status.
func (o *Offer) Status() OfferStatus { return o.status }

// Version returns the entity version for optimistic locking.
func (o *Offer) Version() int64 { return o.version }

// CreatedAt returns the creation timestamp.
func (o *Offer) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (o *Offer) UpdatedAt() time.Time { return o.updatedAt }

// PartyID implements authz.Resource. Offers are owned by their provider.
func (o *Offer) PartyID(rel authz.Relation) (uuid.UUID, bool) {
	if rel == authz.RelationProvider {
		return o.providerID, true
	}
	return uuid.Nil, false
}

// --- Behavior ---

// IsAssigned reports whether this offer won its request.
func (o *Offer) IsAssigned() bool { return o.status == StatusAssigned }

// Revise overwrites the terms of an existing offer and puts it back to sent.
func (o *Offer) Revise(terms Terms) error {
	if o.status == StatusAssigned {
		return domain.NewInvalidStateError("offer", "an accepted offer cannot be revised")
	}
	terms, err := terms.validate()
	if err != nil {
		return err
	}
	o.message = terms.Message
	o.proposedPriceCents = terms.ProposedPriceCents
	o.estimatedDays = terms.EstimatedDays
	o.status = StatusSent
	o.updatedAt = time.Now().UTC()
	return nil
}

// Assign marks the offer as the accepted one for its request.
func (o *Offer) Assign() error {
	if o.status != StatusSent {
		return domain.NewInvalidStateError("offer", fmt.Sprintf("offer is %s and cannot be accepted", o.status))
	}
	return o.transition(StatusAssigned)
}

// Reject declines a sent offer.
func (o *Offer) Reject() error {
	if o.status != StatusSent {
		return domain.NewInvalidStateError("offer", fmt.Sprintf("offer is %s and cannot be rejected", o.status))
	}
	return o.transition(StatusRejected)
}

// Withdraw pulls the offer back. Assigned offers are withdrawn when their booking is cancelled.
func (o *Offer) Withdraw() error {
	if !o.status.CanTransitionTo(StatusWithdrawn) {
		return domain.NewInvalidStateError("offer", fmt.Sprintf("offer is %s and cannot be withdrawn", o.status))
	}
	return o.transition(StatusWithdrawn)
}

func (o *Offer) transition(target OfferStatus) error {
	if !o.status.CanTransitionTo(target) {
		return domain.NewInvalidTransitionError(string(o.status), string(target))
	}
	o.status = target
	o.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (o *Offer) IncrementVersion() {
	o.version++
	o.updatedAt = time.Now().UTC()
}
