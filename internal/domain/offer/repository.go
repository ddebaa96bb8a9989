package offer

import (
	"context"

	"github.com/google/uuid"
)

// OfferRepository defines the persistence contract for offer aggregates.
type OfferRepository interface {
	// FindByID retrieves an offer by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Offer, error)

	// FindByRequestAndProvider retrieves the single offer a provider holds on a request.
	FindByRequestAndProvider(ctx context.Context, requestID, providerID uuid.UUID) (*Offer, error)

	// FindByRequestID retrieves every offer made on a request, oldest first.
	FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]*Offer, error)

	// FindByProviderID retrieves offers made by a provider with pagination.
	FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*Offer, int64, error)

	// Save persists a new offer. A second offer for the same (request, provider) pair is a CONFLICT.
	Save(ctx context.Context, o *Offer) error

	// Update persists changes with optimistic locking.
	Update(ctx context.Context, o *Offer) error

	// RejectSent moves every sent offer on the request, except the given one, to rejected
	// in a single statement and returns the IDs it changed.
	RejectSent(ctx context.Context, requestID, exceptID uuid.UUID) ([]uuid.UUID, error)
}
