package events

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localpro-market/service-booking/internal/application"
	"github.com/localpro-market/service-booking/internal/domain/authz"
	"github.com/localpro-market/service-booking/internal/platform/domain"
	"github.com/localpro-market/service-booking/internal/platform/kafka"
	"github.com/localpro-market/service-booking/internal/proto/events"
)

// OnlinePaymentConfirmer settles an online payment once its OTP is known.
type OnlinePaymentConfirmer interface {
	ConfirmOnlinePayment(ctx context.Context, actor authz.Actor, bookingID uuid.UUID, otp string) (*application.PaymentDTO, error)
}

// GatewayEventConsumer listens to the payment gateway topic and confirms online payments
// when the gateway relays the client's OTP answer.
type GatewayEventConsumer struct {
	consumer *kafka.Consumer
	payments OnlinePaymentConfirmer
	logger   *zap.Logger
}

// NewGatewayEventConsumer creates a new GatewayEventConsumer.
func NewGatewayEventConsumer(
	brokers []string,
	groupID string,
	payments OnlinePaymentConfirmer,
	logger *zap.Logger,
) *GatewayEventConsumer {
	return &GatewayEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, events.TopicGatewayEvents, logger),
		payments: payments,
		logger:   logger,
	}
}

// Start begins consuming gateway events. This blocks until the context is cancelled.
func (c *GatewayEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleEvent)
}

// Close closes the underlying Kafka consumer.
func (c *GatewayEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *GatewayEventConsumer) handleEvent(ctx context.Context, event kafka.CloudEvent) error {
	switch event.Type {
	case events.GatewayOTPSubmitted:
		return c.handleOTPSubmitted(ctx, event)
	default:
		c.logger.Debug("ignoring unhandled gateway event type",
			zap.String("type", event.Type),
		)
		return nil
	}
}

func (c *GatewayEventConsumer) handleOTPSubmitted(ctx context.Context, event kafka.CloudEvent) error {
	var evt events.GatewayOTPSubmittedEvent
	if err := event.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse GatewayOTPSubmittedEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing gateway otp submission",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("client_id", evt.ClientID.String()),
	)

	_, err := c.payments.ConfirmOnlinePayment(ctx, authz.Client(evt.ClientID), evt.BookingID, evt.OTP)
	if err == nil {
		return nil
	}

	// Business rejections are committed, not redelivered.
	if appErr, ok := domain.AsAppError(err); ok {
		c.logger.Warn("gateway otp submission rejected",
			zap.String("booking_id", evt.BookingID.String()),
			zap.String("code", string(appErr.Code)),
			zap.String("reason", appErr.Error()),
		)
		return nil
	}

	c.logger.Error("failed to confirm online payment",
		zap.String("booking_id", evt.BookingID.String()),
		zap.Error(err),
	)
	return err
}
