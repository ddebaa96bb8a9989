package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	bookingDomain "github.com/localpro-market/service-booking/internal/domain/booking"
	"github.com/localpro-market/service-booking/internal/domain/listing"
	"github.com/localpro-market/service-booking/internal/domain/uow"
	"github.com/localpro-market/service-booking/internal/metrics"
	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/domain"
	"github.com/localpro-market/service-booking/internal/proto/events"
)

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repos    uow.Repositories
	listings listing.ListingReader
	events   emitter
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repos uow.Repositories,
	listings listing.ListingReader,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repos:    repos,
		listings: listings,
		events:   newEmitter(publisher, logger),
		logger:   logger,
	}
}

// BookService creates a pending booking for a listed service at its listed price.
func (s *BookingService) BookService(ctx context.Context, actor authz.Actor, serviceID uuid.UUID, req BookServiceRequest) (*BookingDTO, error) {
	if actor.Role != auth.RoleClient {
		return nil, domain.NewForbiddenError("only clients can book services")
	}

	svc, err := s.listings.FindByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if err := svc.Bookable(); err != nil {
		return nil, err
	}

	currency := svc.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	bk, err := bookingDomain.NewServiceBooking(serviceID, actor.UserID, svc.ProviderID, svc.PriceCents, currency, req.ScheduledAt)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Bookings().Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("service booked",
		zap.String("booking_id", bk.ID().String()),
		zap.String("service_id", serviceID.String()),
	)
	s.events.publishEvent(ctx, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), bookingCreatedEvent(bk, time.Now().UTC()))

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateStatus moves a booking along its lifecycle on behalf of its provider. Starting work
// needs a settled payment. Cancelling an offer-sourced booking reopens its request.
func (s *BookingService) UpdateStatus(ctx context.Context, actor authz.Actor, bookingID uuid.UUID, req UpdateStatusRequest) (*BookingDTO, error) {
	target, err := bookingDomain.ParseBookingStatus(req.Status)
	if err != nil {
		return nil, domain.NewFieldValidationError("status", err.Error())
	}

	var (
		updated  *bookingDomain.Booking
		from     bookingDomain.BookingStatus
		reopened *uuid.UUID
	)
	err = s.repos.Do(ctx, func(repos uow.Repositories) error {
		bk, err := repos.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := authz.Require(actor, "Booking", bk, authz.RelationProvider); err != nil {
			return err
		}

		paid := false
		if target == bookingDomain.StatusInProgress {
			p, err := repos.Payments().FindByBookingID(ctx, bk.ID())
			switch {
			case err == nil:
				paid = p.IsPaid()
			case !domain.IsCode(err, domain.CodeNotFound):
				return err
			}
		}

		from = bk.Status()
		if err := bk.TransitionTo(target, paid); err != nil {
			return err
		}
		bk.IncrementVersion()
		if err := repos.Bookings().Update(ctx, bk); err != nil {
			return err
		}

		if target == bookingDomain.StatusCancelled && bk.IsOfferSourced() {
			reopened = s.reopenRequest(ctx, repos, bk)
		}
		updated = bk
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingTransition(string(from), string(target))
	s.logger.Info("booking status changed",
		zap.String("booking_id", bookingID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)

	now := time.Now().UTC()
	var batch eventBatch
	batch.add(events.TopicBookingEvents, events.BookingStatusChanged, bookingID.String(), events.BookingStatusChangedEvent{
		BookingID:     bookingID,
		BookingNumber: updated.BookingNumber(),
		From:          string(from),
		To:            string(target),
		ChangedBy:     actor.UserID,
		OccurredAt:    now,
	})
	if reopened != nil {
		batch.add(events.TopicBookingEvents, events.RequestReopened, reopened.String(), events.RequestEvent{
			RequestID:  *reopened,
			ClientID:   updated.ClientID(),
			Status:     "open",
			OccurredAt: now,
		})
	}
	s.events.flush(ctx, batch)

	result := toBookingDTO(updated)
	return &result, nil
}

// reopenRequest puts the request behind a cancelled booking back to open in a savepoint and
// withdraws the offer that had been assigned. A failure is logged and counted but never
// undoes the cancellation.
func (s *BookingService) reopenRequest(ctx context.Context, repos uow.Repositories, bk *bookingDomain.Booking) *uuid.UUID {
	var requestID uuid.UUID
	err := repos.Do(ctx, func(inner uow.Repositories) error {
		o, err := inner.Offers().FindByID(ctx, *bk.OfferID())
		if err != nil {
			return err
		}
		r, err := inner.Requests().FindByID(ctx, o.RequestID())
		if err != nil {
			return err
		}
		if err := r.Reopen(); err != nil {
			return err
		}
		r.IncrementVersion()
		if err := inner.Requests().Update(ctx, r); err != nil {
			return err
		}
		if o.IsAssigned() {
			if err := o.Withdraw(); err != nil {
				return err
			}
			o.IncrementVersion()
			if err := inner.Offers().Update(ctx, o); err != nil {
				return err
			}
		}
		requestID = r.ID()
		return nil
	})
	if err != nil {
		metrics.ReopenAnomaly()
		s.logger.Warn("cancelled booking could not reopen its request",
			zap.String("booking_id", bk.ID().String()),
			zap.String("offer_id", bk.OfferID().String()),
			zap.Error(err),
		)
		return nil
	}
	return &requestID
}

// GetBooking retrieves a single booking for one of its parties or an admin.
func (s *BookingService) GetBooking(ctx context.Context, actor authz.Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repos.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireParty(actor, "Booking", bk, authz.RelationClient, authz.RelationProvider); err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetClientBookings retrieves paginated bookings for a specific client.
func (s *BookingService) GetClientBookings(ctx context.Context, clientID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repos.Bookings().FindByClientID(ctx, clientID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetProviderBookings retrieves paginated bookings for a specific provider.
func (s *BookingService) GetProviderBookings(ctx context.Context, providerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repos.Bookings().FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repos.Bookings().ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repos.Bookings().CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}
