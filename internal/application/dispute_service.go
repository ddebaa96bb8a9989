package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	bookingDomain "github.com/localpro-market/service-booking/internal/domain/booking"
	disputeDomain "github.com/localpro-market/service-booking/internal/domain/dispute"
	"github.com/localpro-market/service-booking/internal/domain/uow"
	"github.com/localpro-market/service-booking/internal/platform/domain"
	"github.com/localpro-market/service-booking/internal/proto/events"
)

// DisputeService handles disputes raised on bookings and their resolution by admins.
type DisputeService struct {
	repos  uow.Repositories
	events emitter
	logger *zap.Logger
}

// NewDisputeService creates a new DisputeService.
func NewDisputeService(repos uow.Repositories, publisher EventPublisher, logger *zap.Logger) *DisputeService {
	return &DisputeService{
		repos:  repos,
		events: newEmitter(publisher, logger),
		logger: logger,
	}
}

// OpenDispute lets either party dispute a booking once it has left pending.
func (s *DisputeService) OpenDispute(ctx context.Context, actor authz.Actor, bookingID uuid.UUID, req OpenDisputeRequest) (*DisputeDTO, error) {
	if actor.IsAdmin() {
		return nil, domain.NewForbiddenError("admins resolve disputes but cannot open them")
	}

	var d *disputeDomain.Dispute
	err := s.repos.Do(ctx, func(repos uow.Repositories) error {
		bk, err := repos.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := authz.RequireParty(actor, "Booking", bk, authz.RelationClient, authz.RelationProvider); err != nil {
			return err
		}
		if bk.Status() == bookingDomain.StatusPending {
			return domain.NewInvalidStateError("booking", "a pending booking cannot be disputed")
		}

		_, err = repos.Disputes().FindByBookingID(ctx, bookingID)
		switch {
		case err == nil:
			return domain.NewAlreadyExistsError("dispute", "a dispute is already open for this booking")
		case !domain.IsCode(err, domain.CodeNotFound):
			return err
		}

		d, err = disputeDomain.NewDispute(bookingID, actor.UserID, actor.Role, req.Reason)
		if err != nil {
			return err
		}
		return repos.Disputes().Save(ctx, d)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dispute opened",
		zap.String("dispute_id", d.ID().String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("opened_by_role", string(actor.Role)),
	)
	s.publish(ctx, events.DisputeOpened, d, actor.UserID)

	result := toDisputeDTO(d)
	return &result, nil
}

// ResolveDispute closes an open dispute (admin).
func (s *DisputeService) ResolveDispute(ctx context.Context, actor authz.Actor, disputeID uuid.UUID, req ResolveDisputeRequest) (*DisputeDTO, error) {
	if !actor.IsAdmin() {
		return nil, domain.NewForbiddenError("only admins can resolve disputes")
	}

	var d *disputeDomain.Dispute
	err := s.repos.Do(ctx, func(repos uow.Repositories) error {
		var err error
		d, err = repos.Disputes().FindByID(ctx, disputeID)
		if err != nil {
			return err
		}
		if err := d.Resolve(actor.UserID, req.Resolution); err != nil {
			return err
		}
		d.IncrementVersion()
		return repos.Disputes().Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dispute resolved",
		zap.String("dispute_id", disputeID.String()),
		zap.String("admin_id", actor.UserID.String()),
	)
	s.publish(ctx, events.DisputeResolved, d, actor.UserID)

	result := toDisputeDTO(d)
	return &result, nil
}

// GetDispute returns a dispute to the booking's parties or an admin.
func (s *DisputeService) GetDispute(ctx context.Context, actor authz.Actor, disputeID uuid.UUID) (*DisputeDTO, error) {
	d, err := s.repos.Disputes().FindByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	bk, err := s.repos.Bookings().FindByID(ctx, d.BookingID())
	if err != nil {
		return nil, err
	}
	if err := authz.RequireParty(actor, "Booking", bk, authz.RelationClient, authz.RelationProvider); err != nil {
		return nil, err
	}
	result := toDisputeDTO(d)
	return &result, nil
}

func (s *DisputeService) publish(ctx context.Context, eventType string, d *disputeDomain.Dispute, actorID uuid.UUID) {
	s.events.publishEvent(ctx, events.TopicBookingEvents, eventType, d.BookingID().String(), events.DisputeEvent{
		DisputeID:  d.ID(),
		BookingID:  d.BookingID(),
		ActorID:    actorID,
		Status:     string(d.Status()),
		OccurredAt: time.Now().UTC(),
	})
}
