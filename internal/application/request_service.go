package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	requestDomain "github.com/localpro-market/service-booking/internal/domain/request"
	"github.com/localpro-market/service-booking/internal/domain/uow"
	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/domain"
	"github.com/localpro-market/service-booking/internal/proto/events"
)

// RequestService is the application service for clients' service requests.
type RequestService struct {
	repos  uow.Repositories
	events emitter
	logger *zap.Logger
}

// NewRequestService creates a new RequestService.
func NewRequestService(repos uow.Repositories, publisher EventPublisher, logger *zap.Logger) *RequestService {
	return &RequestService{
		repos:  repos,
		events: newEmitter(publisher, logger),
		logger: logger,
	}
}

// CreateRequest posts a new open request for the client.
func (s *RequestService) CreateRequest(ctx context.Context, actor authz.Actor, req CreateRequestRequest) (*RequestDTO, error) {
	if actor.Role != auth.RoleClient {
		return nil, domain.NewForbiddenError("only clients can post requests")
	}

	visibility := requestDomain.Visibility(req.Visibility)
	if req.Visibility == "" {
		visibility = requestDomain.VisibilityPublic
	}

	r, err := requestDomain.NewRequest(
		actor.UserID,
		req.CategoryID,
		req.CityID,
		req.Title,
		req.Description,
		req.BudgetMinCents,
		req.BudgetMaxCents,
		requestDomain.Urgency(req.Urgency),
		visibility,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Requests().Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save request: %w", err)
	}

	s.logger.Info("request created",
		zap.String("request_id", r.ID().String()),
		zap.String("client_id", r.ClientID().String()),
	)
	s.events.publishEvent(ctx, events.TopicBookingEvents, events.RequestCreated, r.ID().String(), events.RequestEvent{
		RequestID:  r.ID(),
		ClientID:   r.ClientID(),
		Status:     string(r.Status()),
		OccurredAt: time.Now().UTC(),
	})

	result := toRequestDTO(r)
	return &result, nil
}

// GetRequest returns a request to its client, to admins, and to providers while it is
// publicly open for offers.
func (s *RequestService) GetRequest(ctx context.Context, actor authz.Actor, requestID uuid.UUID) (*RequestDTO, error) {
	r, err := s.repos.Requests().FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if actor.Role == auth.RoleProvider {
		if !r.IsDiscoverable() {
			return nil, domain.NewNotFoundError("Request", requestID.String())
		}
	} else if err := authz.RequireParty(actor, "Request", r, authz.RelationClient); err != nil {
		return nil, err
	}

	result := toRequestDTO(r)
	return &result, nil
}

// ListClientRequests returns the client's own requests, newest first.
func (s *RequestService) ListClientRequests(ctx context.Context, clientID uuid.UUID, page, limit int) (*domain.PaginatedResult[RequestDTO], error) {
	requests, total, err := s.repos.Requests().FindByClientID(ctx, clientID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toRequestDTOs(requests), total, page, limit)
	return &result, nil
}

// ListOpenRequests returns public requests that still accept offers.
func (s *RequestService) ListOpenRequests(ctx context.Context, page, limit int) (*domain.PaginatedResult[RequestDTO], error) {
	requests, total, err := s.repos.Requests().ListOpen(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toRequestDTOs(requests), total, page, limit)
	return &result, nil
}

// CancelRequest withdraws an unassigned request and rejects every offer still waiting on it.
func (s *RequestService) CancelRequest(ctx context.Context, actor authz.Actor, requestID uuid.UUID) (*RequestDTO, error) {
	var (
		cancelled *requestDomain.Request
		rejected  []uuid.UUID
	)
	err := s.repos.Do(ctx, func(repos uow.Repositories) error {
		r, err := repos.Requests().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := authz.Require(actor, "Request", r, authz.RelationClient); err != nil {
			return err
		}
		if err := r.Cancel(); err != nil {
			return err
		}

		r.IncrementVersion()
		if err := repos.Requests().Update(ctx, r); err != nil {
			return err
		}
		rejected, err = repos.Offers().RejectSent(ctx, r.ID(), uuid.Nil)
		if err != nil {
			return err
		}
		cancelled = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request cancelled",
		zap.String("request_id", requestID.String()),
		zap.Int("offers_rejected", len(rejected)),
	)

	now := time.Now().UTC()
	var batch eventBatch
	batch.add(events.TopicBookingEvents, events.RequestCancelled, requestID.String(), events.RequestEvent{
		RequestID:  requestID,
		ClientID:   cancelled.ClientID(),
		Status:     string(cancelled.Status()),
		OccurredAt: now,
	})
	for _, id := range rejected {
		batch.add(events.TopicOfferEvents, events.OfferRejected, id.String(), events.OfferStatusEvent{
			OfferID:    id,
			RequestID:  requestID,
			Status:     "rejected",
			OccurredAt: now,
		})
	}
	s.events.flush(ctx, batch)

	result := toRequestDTO(cancelled)
	return &result, nil
}

func toRequestDTOs(requests []*requestDomain.Request) []RequestDTO {
	dtos := make([]RequestDTO, len(requests))
	for i, r := range requests {
		dtos[i] = toRequestDTO(r)
	}
	return dtos
}
