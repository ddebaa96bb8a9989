package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	bookingDomain "github.com/localpro-market/service-booking/internal/domain/booking"
	offerDomain "github.com/localpro-market/service-booking/internal/domain/offer"
	requestDomain "github.com/localpro-market/service-booking/internal/domain/request"
	"github.com/localpro-market/service-booking/internal/domain/uow"
	"github.com/localpro-market/service-booking/internal/metrics"
	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/domain"
	"github.com/localpro-market/service-booking/internal/proto/events"
)

// OfferService is the application service for provider offers and their acceptance.
type OfferService struct {
	repos    uow.Repositories
	currency string
	events   emitter
	logger   *zap.Logger
}

// NewOfferService creates a new OfferService. Bookings created on acceptance are priced in currency.
func NewOfferService(repos uow.Repositories, currency string, publisher EventPublisher, logger *zap.Logger) *OfferService {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &OfferService{
		repos:    repos,
		currency: currency,
		events:   newEmitter(publisher, logger),
		logger:   logger,
	}
}

// SubmitOffer creates the provider's offer on an open request, or revises the one they already
// hold there. Submitting the same terms again leaves the offer as it was.
func (s *OfferService) SubmitOffer(ctx context.Context, actor authz.Actor, requestID uuid.UUID, req SubmitOfferRequest) (*OfferDTO, error) {
	if actor.Role != auth.RoleProvider {
		return nil, domain.NewForbiddenError("only providers can submit offers")
	}

	terms := offerDomain.Terms{
		Message:            req.Message,
		ProposedPriceCents: req.ProposedPriceCents,
		EstimatedDays:      req.EstimatedDays,
	}

	var saved *offerDomain.Offer
	err := s.repos.Do(ctx, func(repos uow.Repositories) error {
		r, err := repos.Requests().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if !r.AcceptsOffers() {
			return domain.NewInvalidStateError("request", "request not open")
		}
		// Version bump: an accept committing after the check above makes this fail.
		r.IncrementVersion()
		if err := repos.Requests().Update(ctx, r); err != nil {
			if domain.IsCode(err, domain.CodeConflict) {
				return domain.NewInvalidStateError("request", "request not open")
			}
			return err
		}

		existing, err := repos.Offers().FindByRequestAndProvider(ctx, requestID, actor.UserID)
		if err != nil && !domain.IsCode(err, domain.CodeNotFound) {
			return err
		}
		if existing == nil {
			o, err := offerDomain.NewOffer(requestID, actor.UserID, terms)
			if err != nil {
				return err
			}
			if err := repos.Offers().Save(ctx, o); err != nil {
				return err
			}
			saved = o
			return nil
		}

		if err := existing.Revise(terms); err != nil {
			return err
		}
		existing.IncrementVersion()
		if err := repos.Offers().Update(ctx, existing); err != nil {
			return err
		}
		saved = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer submitted",
		zap.String("offer_id", saved.ID().String()),
		zap.String("request_id", requestID.String()),
		zap.String("provider_id", actor.UserID.String()),
	)
	s.events.publishEvent(ctx, events.TopicOfferEvents, events.OfferSubmitted, saved.ID().String(), events.OfferSubmittedEvent{
		OfferID:            saved.ID(),
		RequestID:          requestID,
		ProviderID:         saved.ProviderID(),
		ProposedPriceCents: saved.ProposedPriceCents(),
		OccurredAt:         time.Now().UTC(),
	})

	result := toOfferDTO(saved)
	return &result, nil
}

// AcceptOffer assigns the offer, rejects its sent siblings, assigns the request and creates the
// booking, all in one transaction. Accepting an already assigned offer returns its booking.
func (s *OfferService) AcceptOffer(ctx context.Context, actor authz.Actor, offerID uuid.UUID) (*BookingDTO, error) {
	var (
		accepted   *offerDomain.Offer
		req        *requestDomain.Request
		created    *bookingDomain.Booking
		existing   *bookingDomain.Booking
		rejected   []uuid.UUID
		authorized bool
	)
	err := s.repos.Do(ctx, func(repos uow.Repositories) error {
		o, err := repos.Offers().FindByID(ctx, offerID)
		if err != nil {
			return err
		}
		r, err := repos.Requests().FindByID(ctx, o.RequestID())
		if err != nil {
			return err
		}
		if err := authz.Require(actor, "Request", r, authz.RelationClient); err != nil {
			return err
		}
		authorized = true

		if o.IsAssigned() {
			existing, err = repos.Bookings().FindByOfferID(ctx, o.ID())
			return err
		}

		if err := r.Assign(); err != nil {
			return err
		}
		if err := o.Assign(); err != nil {
			return err
		}
		bk, err := bookingDomain.NewOfferBooking(o.ID(), r.ClientID(), o.ProviderID(), o.ProposedPriceCents(), s.currency, nil)
		if err != nil {
			return err
		}

		r.IncrementVersion()
		if err := repos.Requests().Update(ctx, r); err != nil {
			if domain.IsCode(err, domain.CodeConflict) {
				return domain.NewInvalidStateError("request", "request not open")
			}
			return err
		}
		o.IncrementVersion()
		if err := repos.Offers().Update(ctx, o); err != nil {
			return err
		}
		if rejected, err = repos.Offers().RejectSent(ctx, r.ID(), o.ID()); err != nil {
			return err
		}
		if err := repos.Bookings().Save(ctx, bk); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}

		accepted, req, created = o, r, bk
		return nil
	})
	if err != nil {
		// A concurrent accept of this same offer may have won the race.
		if authorized && (domain.IsCode(err, domain.CodeInvalidState) || domain.IsCode(err, domain.CodeConflict)) {
			if bk := s.bookingForAssignedOffer(ctx, offerID); bk != nil {
				result := toBookingDTO(bk)
				return &result, nil
			}
		}
		return nil, err
	}

	if existing != nil {
		result := toBookingDTO(existing)
		return &result, nil
	}

	metrics.OfferAccepted()
	s.logger.Info("offer accepted",
		zap.String("offer_id", accepted.ID().String()),
		zap.String("request_id", req.ID().String()),
		zap.String("booking_id", created.ID().String()),
		zap.Int("offers_rejected", len(rejected)),
	)

	now := time.Now().UTC()
	var batch eventBatch
	batch.add(events.TopicOfferEvents, events.OfferAccepted, accepted.ID().String(), events.OfferAcceptedEvent{
		OfferID:          accepted.ID(),
		RequestID:        req.ID(),
		ClientID:         req.ClientID(),
		ProviderID:       accepted.ProviderID(),
		BookingID:        created.ID(),
		RejectedOfferIDs: rejected,
		OccurredAt:       now,
	})
	for _, id := range rejected {
		batch.add(events.TopicOfferEvents, events.OfferRejected, id.String(), events.OfferStatusEvent{
			OfferID:    id,
			RequestID:  req.ID(),
			Status:     string(offerDomain.StatusRejected),
			OccurredAt: now,
		})
	}
	batch.add(events.TopicBookingEvents, events.BookingCreated, created.ID().String(), bookingCreatedEvent(created, now))
	s.events.flush(ctx, batch)

	result := toBookingDTO(created)
	return &result, nil
}

func (s *OfferService) bookingForAssignedOffer(ctx context.Context, offerID uuid.UUID) *bookingDomain.Booking {
	o, err := s.repos.Offers().FindByID(ctx, offerID)
	if err != nil || !o.IsAssigned() {
		return nil
	}
	bk, err := s.repos.Bookings().FindByOfferID(ctx, offerID)
	if err != nil {
		return nil
	}
	return bk
}

// RejectOffer turns down a single sent offer on the client's open request.
func (s *OfferService) RejectOffer(ctx context.Context, actor authz.Actor, offerID uuid.UUID) (*OfferDTO, error) {
	o, err := s.changeOfferStatus(ctx, offerID, func(o *offerDomain.Offer, r *requestDomain.Request) error {
		if err := authz.Require(actor, "Request", r, authz.RelationClient); err != nil {
			return err
		}
		if !r.AcceptsOffers() {
			return domain.NewInvalidStateError("request", "request not open")
		}
		return o.Reject()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer rejected", zap.String("offer_id", offerID.String()))
	s.publishOfferStatus(ctx, events.OfferRejected, o)

	result := toOfferDTO(o)
	return &result, nil
}

// WithdrawOffer lets a provider take back a sent offer while the request is still open.
func (s *OfferService) WithdrawOffer(ctx context.Context, actor authz.Actor, offerID uuid.UUID) (*OfferDTO, error) {
	o, err := s.changeOfferStatus(ctx, offerID, func(o *offerDomain.Offer, r *requestDomain.Request) error {
		if err := authz.Require(actor, "Offer", o, authz.RelationProvider); err != nil {
			return err
		}
		if !r.AcceptsOffers() {
			return domain.NewInvalidStateError("request", "request not open")
		}
		return o.Withdraw()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer withdrawn", zap.String("offer_id", offerID.String()))
	s.publishOfferStatus(ctx, events.OfferWithdrawn, o)

	result := toOfferDTO(o)
	return &result, nil
}

func (s *OfferService) changeOfferStatus(
	ctx context.Context,
	offerID uuid.UUID,
	apply func(o *offerDomain.Offer, r *requestDomain.Request) error,
) (*offerDomain.Offer, error) {
	var changed *offerDomain.Offer
	err := s.repos.Do(ctx, func(repos uow.Repositories) error {
		o, err := repos.Offers().FindByID(ctx, offerID)
		if err != nil {
			return err
		}
		r, err := repos.Requests().FindByID(ctx, o.RequestID())
		if err != nil {
			return err
		}
		if err := apply(o, r); err != nil {
			return err
		}
		o.IncrementVersion()
		if err := repos.Offers().Update(ctx, o); err != nil {
			return err
		}
		changed = o
		return nil
	})
	return changed, err
}

func (s *OfferService) publishOfferStatus(ctx context.Context, eventType string, o *offerDomain.Offer) {
	s.events.publishEvent(ctx, events.TopicOfferEvents, eventType, o.ID().String(), events.OfferStatusEvent{
		OfferID:    o.ID(),
		RequestID:  o.RequestID(),
		ProviderID: o.ProviderID(),
		Status:     string(o.Status()),
		OccurredAt: time.Now().UTC(),
	})
}

// ListRequestOffers returns every offer on a request to its client (or an admin).
func (s *OfferService) ListRequestOffers(ctx context.Context, actor authz.Actor, requestID uuid.UUID) ([]OfferDTO, error) {
	r, err := s.repos.Requests().FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireParty(actor, "Request", r, authz.RelationClient); err != nil {
		return nil, err
	}

	offers, err := s.repos.Offers().FindByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return toOfferDTOs(offers), nil
}

// ListProviderOffers returns the provider's own offers, newest first.
func (s *OfferService) ListProviderOffers(ctx context.Context, providerID uuid.UUID, page, limit int) (*domain.PaginatedResult[OfferDTO], error) {
	offers, total, err := s.repos.Offers().FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toOfferDTOs(offers), total, page, limit)
	return &result, nil
}

func toOfferDTOs(offers []*offerDomain.Offer) []OfferDTO {
	dtos := make([]OfferDTO, len(offers))
	for i, o := range offers {
		dtos[i] = toOfferDTO(o)
	}
	return dtos
}

func bookingCreatedEvent(bk *bookingDomain.Booking, at time.Time) events.BookingCreatedEvent {
	return events.BookingCreatedEvent{
		BookingID:        bk.ID(),
		BookingNumber:    bk.BookingNumber(),
		Source:           string(bk.Source()),
		OfferID:          bk.OfferID(),
		ServiceID:        bk.ServiceID(),
		ClientID:         bk.ClientID(),
		ProviderID:       bk.ProviderID(),
		TotalAmountCents: bk.TotalAmountCents(),
		Currency:         bk.Currency(),
		OccurredAt:       at,
	}
}
