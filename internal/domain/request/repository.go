package request

import (
	"context"

	"github.com/google/uuid"
)

// RequestRepository defines the persistence contract for request aggregates.
type RequestRepository interface {
	// FindByID retrieves a request by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Request, error)

	// FindByClientID retrieves requests posted by a client with pagination.
	FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*Request, int64, error)

	// ListOpen retrieves public requests that still accept offers, newest first.
	ListOpen(ctx context.Context, page, limit int) ([]*Request, int64, error)

	// Save persists a new request.
	Save(ctx context.Context, r *Request) error

	// Update persists changes guarded by the version the aggregate was loaded at.
	// A lost race surfaces as a CONFLICT error.
	Update(ctx context.Context, r *Request) error
}
