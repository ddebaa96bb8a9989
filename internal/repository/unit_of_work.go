package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/localpro-market/service-booking/internal/domain/booking"
	"github.com/localpro-market/service-booking/internal/domain/dispute"
	"github.com/localpro-market/service-booking/internal/domain/offer"
	"github.com/localpro-market/service-booking/internal/domain/payment"
	"github.com/localpro-market/service-booking/internal/domain/request"
	"github.com/localpro-market/service-booking/internal/domain/uow"
)

// GormUnitOfWork binds the aggregate repositories to one *gorm.DB. Outside Do the repositories
// run in autocommit mode; inside Do they share a transaction, and a nested Do is a savepoint.
type GormUnitOfWork struct {
	db *gorm.DB
}

var _ uow.Repositories = (*GormUnitOfWork)(nil)

// NewGormUnitOfWork creates a new GormUnitOfWork.
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Do runs fn in a transaction, or in a savepoint when already inside one.
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(repos uow.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormUnitOfWork{db: tx})
	})
}

func (u *GormUnitOfWork) Requests() request.RequestRepository {
	return NewGormRequestRepository(u.db)
}

func (u *GormUnitOfWork) Offers() offer.OfferRepository {
	return NewGormOfferRepository(u.db)
}

func (u *GormUnitOfWork) Bookings() booking.BookingRepository {
	return NewGormBookingRepository(u.db)
}

func (u *GormUnitOfWork) Payments() payment.PaymentRepository {
	return NewGormPaymentRepository(u.db)
}

func (u *GormUnitOfWork) Disputes() dispute.DisputeRepository {
	return NewGormDisputeRepository(u.db)
}

// Models lists every table this service owns, for development auto-migration and tests.
func Models() []interface{} {
	return []interface{}{
		&RequestModel{},
		&OfferModel{},
		&BookingModel{},
		&PaymentModel{},
		&FeeSettingModel{},
		&DisputeModel{},
		&ServiceListingModel{},
	}
}
