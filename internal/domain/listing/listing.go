// Package listing is the read-only view of a provider's listed service. Listings are owned
// by the catalogue; bookings only read them.
package listing

import (
	"context"

	"github.com/google/uuid"

	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// ServiceListing is a provider's fixed-price service.
type ServiceListing struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Title      string
	PriceCents int64
	Currency   string
	Active     bool
}

// Bookable returns an INVALID_STATE error when the listing cannot be booked.
func (l *ServiceListing) Bookable() error {
	if !l.Active {
		return domain.NewInvalidStateError("service", "service is not available for booking")
	}
	if l.PriceCents <= 0 {
		return domain.NewInvalidStateError("service", "service has no price")
	}
	return nil
}

// ListingReader reads listings from the catalogue.
type ListingReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ServiceListing, error)
}
