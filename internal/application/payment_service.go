package application

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	bookingDomain "github.com/localpro-market/service-booking/internal/domain/booking"
	feeDomain "github.com/localpro-market/service-booking/internal/domain/fee"
	paymentDomain "github.com/localpro-market/service-booking/internal/domain/payment"
	"github.com/localpro-market/service-booking/internal/domain/uow"
	"github.com/localpro-market/service-booking/internal/metrics"
	"github.com/localpro-market/service-booking/internal/platform/domain"
	"github.com/localpro-market/service-booking/internal/proto/events"
)

// PaymentService settles bookings by cash or through the simulated online gateway.
type PaymentService struct {
	repos   uow.Repositories
	otpCode string
	events  emitter
	logger  *zap.Logger
	now     func() time.Time
}

// NewPaymentService creates a new PaymentService. otpCode is the code the simulated gateway
// expects in answer to its challenge.
func NewPaymentService(repos uow.Repositories, otpCode string, publisher EventPublisher, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		repos:   repos,
		otpCode: otpCode,
		events:  newEmitter(publisher, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// ChoosePaymentMethod attaches a pending payment to the booking, split with snap. Choosing the
// same method again while it is still pending returns the existing payment unchanged and
// reports created as false.
func (s *PaymentService) ChoosePaymentMethod(
	ctx context.Context,
	actor authz.Actor,
	bookingID uuid.UUID,
	req ChoosePaymentRequest,
	snap feeDomain.Snapshot,
) (*PaymentDTO, bool, error) {
	var (
		p       *paymentDomain.Payment
		created bool
	)
	err := s.repos.Do(ctx, func(repos uow.Repositories) error {
		bk, err := s.loadBooking(ctx, repos, actor, bookingID, authz.RelationClient)
		if err != nil {
			return err
		}

		paymentType, err := paymentDomain.ParsePaymentType(req.PaymentType)
		if err != nil {
			return domain.NewFieldValidationError("payment_type", err.Error())
		}
		var metadata map[string]any
		if paymentType == paymentDomain.TypeOnline {
			if req.Card == nil {
				return domain.NewFieldValidationError("card_number", "card details are required for online payment")
			}
			if err := req.Card.Validate(s.now().UTC()); err != nil {
				return err
			}
			metadata = req.Card.MaskedMetadata()
		}

		if !bk.Status().IsPayable() {
			return domain.NewInvalidStateError("booking", "booking not payable")
		}

		existing, err := repos.Payments().FindByBookingID(ctx, bk.ID())
		switch {
		case err == nil:
			if !existing.IsResumableAs(paymentType) {
				return domain.NewAlreadyExistsError("payment", "a payment already exists for this booking")
			}
			p = existing
			return nil
		case !domain.IsCode(err, domain.CodeNotFound):
			return err
		}

		p, err = paymentDomain.NewPayment(bk.ID(), paymentType, bk.TotalAmountCents(), bk.Currency(), snap, metadata)
		if err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, p); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.PaymentCreated(string(p.Type()))
		s.logger.Info("payment created",
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_id", p.ID().String()),
			zap.String("payment_type", string(p.Type())),
			zap.Int64("platform_fee_cents", p.PlatformFeeCents()),
		)
		s.events.publishEvent(ctx, events.TopicPaymentEvents, events.PaymentCreated, bookingID.String(), events.PaymentCreatedEvent{
			PaymentID:           p.ID(),
			BookingID:           bookingID,
			PaymentType:         string(p.Type()),
			AmountCents:         p.AmountCents(),
			PlatformFeeCents:    p.PlatformFeeCents(),
			ProviderAmountCents: p.ProviderAmountCents(),
			Currency:            p.Currency(),
			OccurredAt:          time.Now().UTC(),
		})
	}

	result := toPaymentDTO(p)
	return &result, created, nil
}

// ConfirmOnlinePayment settles a pending online payment when otp answers the gateway challenge.
// The booking status is left alone.
func (s *PaymentService) ConfirmOnlinePayment(ctx context.Context, actor authz.Actor, bookingID uuid.UUID, otp string) (*PaymentDTO, error) {
	var p *paymentDomain.Payment
	err := s.repos.Do(ctx, func(repos uow.Repositories) error {
		bk, err := s.loadBooking(ctx, repos, actor, bookingID, authz.RelationClient)
		if err != nil {
			return err
		}
		p, err = repos.Payments().FindByBookingID(ctx, bk.ID())
		if err != nil {
			return err
		}
		if p.Type() != paymentDomain.TypeOnline {
			return domain.NewInvalidStateError("payment", "payment is not an online payment")
		}
		if p.IsPaid() {
			return domain.NewAlreadyConfirmedError("payment has already been confirmed")
		}
		if subtle.ConstantTimeCompare([]byte(otp), []byte(s.otpCode)) != 1 {
			return domain.NewInvalidOTPError()
		}

		if err := p.MarkPaid(paymentDomain.TypeOnline); err != nil {
			return err
		}
		p.IncrementVersion()
		return repos.Payments().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.settled(ctx, p, false)
	result := toPaymentDTO(p)
	return &result, nil
}

// ConfirmCashPayment records that the provider received cash. A pending booking advances to
// confirmed in the same transaction.
func (s *PaymentService) ConfirmCashPayment(ctx context.Context, actor authz.Actor, bookingID uuid.UUID) (*PaymentDTO, error) {
	var (
		p         *paymentDomain.Payment
		bk        *bookingDomain.Booking
		confirmed bool
	)
	err := s.repos.Do(ctx, func(repos uow.Repositories) error {
		var err error
		bk, err = s.loadBooking(ctx, repos, actor, bookingID, authz.RelationProvider)
		if err != nil {
			return err
		}
		p, err = repos.Payments().FindByBookingID(ctx, bk.ID())
		if err != nil {
			return err
		}

		if err := p.MarkPaid(paymentDomain.TypeCash); err != nil {
			return err
		}
		p.IncrementVersion()
		if err := repos.Payments().Update(ctx, p); err != nil {
			return err
		}

		if confirmed = bk.ConfirmOnSettlement(); confirmed {
			bk.IncrementVersion()
			if err := repos.Bookings().Update(ctx, bk); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.settled(ctx, p, confirmed)
	if confirmed {
		metrics.BookingTransition(string(bookingDomain.StatusPending), string(bookingDomain.StatusConfirmed))
		s.events.publishEvent(ctx, events.TopicBookingEvents, events.BookingStatusChanged, bookingID.String(), events.BookingStatusChangedEvent{
			BookingID:     bookingID,
			BookingNumber: bk.BookingNumber(),
			From:          string(bookingDomain.StatusPending),
			To:            string(bookingDomain.StatusConfirmed),
			ChangedBy:     actor.UserID,
			OccurredAt:    time.Now().UTC(),
		})
	}

	result := toPaymentDTO(p)
	return &result, nil
}

// GetPayment returns the booking's payment to either party or an admin.
func (s *PaymentService) GetPayment(ctx context.Context, actor authz.Actor, bookingID uuid.UUID) (*PaymentDTO, error) {
	bk, err := s.repos.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireParty(actor, "Booking", bk, authz.RelationClient, authz.RelationProvider); err != nil {
		return nil, err
	}
	p, err := s.repos.Payments().FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toPaymentDTO(p)
	return &result, nil
}

func (s *PaymentService) loadBooking(
	ctx context.Context,
	repos uow.Repositories,
	actor authz.Actor,
	bookingID uuid.UUID,
	rel authz.Relation,
) (*bookingDomain.Booking, error) {
	bk, err := repos.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(actor, "Booking", bk, rel); err != nil {
		return nil, err
	}
	return bk, nil
}

func (s *PaymentService) settled(ctx context.Context, p *paymentDomain.Payment, bookingConfirmed bool) {
	metrics.PaymentSettled(string(p.Type()))
	s.logger.Info("payment settled",
		zap.String("booking_id", p.BookingID().String()),
		zap.String("payment_id", p.ID().String()),
		zap.String("payment_type", string(p.Type())),
		zap.Bool("booking_confirmed", bookingConfirmed),
	)

	var paidAt time.Time
	if p.PaidAt() != nil {
		paidAt = *p.PaidAt()
	}
	s.events.publishEvent(ctx, events.TopicPaymentEvents, events.PaymentPaid, p.BookingID().String(), events.PaymentPaidEvent{
		PaymentID:        p.ID(),
		BookingID:        p.BookingID(),
		PaymentType:      string(p.Type()),
		AmountCents:      p.AmountCents(),
		BookingConfirmed: bookingConfirmed,
		PaidAt:           paidAt,
		OccurredAt:       time.Now().UTC(),
	})
}
