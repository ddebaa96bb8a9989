// Package uow defines the scoped transaction every multi-entity mutation runs in.
package uow

import (
	"context"

	"github.com/localpro-market/service-booking/internal/domain/booking"
	"github.com/localpro-market/service-booking/internal/domain/dispute"
	"github.com/localpro-market/service-booking/internal/domain/offer"
	"github.com/localpro-market/service-booking/internal/domain/payment"
	"github.com/localpro-market/service-booking/internal/domain/request"
)

// UnitOfWork runs fn atomically. If fn returns an error, nothing it wrote is kept.
// Calling Do on the Repositories passed to fn opens a nested scope (a savepoint) that can
// fail on its own without aborting the outer one.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories are the aggregate stores bound to one transaction scope.
type Repositories interface {
	UnitOfWork
	Requests() request.RequestRepository
	Offers() offer.OfferRepository
	Bookings() booking.BookingRepository
	Payments() payment.PaymentRepository
	Disputes() dispute.DisputeRepository
}
