// Package dispute tracks a party's complaint about a booking until an admin resolves it.
package dispute

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

const minReasonLength = 10

// DisputeStatus represents whether a dispute still needs attention.
type DisputeStatus string

const (
	StatusOpen     DisputeStatus = "open"
	StatusResolved DisputeStatus = "resolved"
)

var validTransitions = map[DisputeStatus][]DisputeStatus{
	StatusOpen:     {StatusResolved},
	StatusResolved: {},
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s DisputeStatus) CanTransitionTo(target DisputeStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ParseDisputeStatus converts a string to a DisputeStatus, returning an error if invalid.
func ParseDisputeStatus(s string) (DisputeStatus, error) {
	status := DisputeStatus(s)
	if _, ok := validTransitions[status]; !ok {
		return "", fmt.Errorf("invalid dispute status: %s", s)
	}
	return status, nil
}

// Dispute is the aggregate root for a complaint about one booking.
type Dispute struct {
	id           uuid.UUID
	bookingID    uuid.UUID
	openedBy     uuid.UUID
	openedByRole auth.Role
	reason       string
	status       DisputeStatus
	resolution   string
	resolvedBy   *uuid.UUID
	resolvedAt   *time.Time
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewDispute opens a dispute on bookingID.
func NewDispute(bookingID, openedBy uuid.UUID, openedByRole auth.Role, reason string) (*Dispute, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minReasonLength {
		return nil, domain.NewFieldValidationError("reason",
			fmt.Sprintf("reason must be at least %d characters", minReasonLength))
	}
	now := time.Now().UTC()
	return &Dispute{
		id:           uuid.New(),
		bookingID:    bookingID,
		openedBy:     openedBy,
		openedByRole: openedByRole,
		reason:       reason,
		status:       StatusOpen,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructDispute rebuilds a Dispute from persistence data (no validation).
func ReconstructDispute(
	id, bookingID, openedBy uuid.UUID,
	openedByRole auth.Role,
	reason string,
	status DisputeStatus,
	resolution string,
	resolvedBy *uuid.UUID,
	resolvedAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Dispute {
	return &Dispute{
		id:           id,
		bookingID:    bookingID,
		openedBy:     openedBy,
		openedByRole: openedByRole,
		reason:       reason,
		status:       status,
		resolution:   resolution,
		resolvedBy:   resolvedBy,
		resolvedAt:   resolvedAt,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (d *Dispute) ID() uuid.UUID { return d.id }
func (d *Dispute) BookingID() uuid.UUID { return d.bookingID }
func (d *Dispute) OpenedBy() uuid.UUID { return d.openedBy }
func (d *Dispute) OpenedByRole() auth.Role { return d.openedByRole }
func (d *Dispute) Reason() string { return d.reason }
func (d *Dispute) Status() DisputeStatus { return d.status }
func (d *Dispute) Resolution() string { return d.resolution }
func (d *Dispute) ResolvedBy() *uuid.UUID { return d.resolvedBy }
func (d *Dispute) ResolvedAt() *time.Time { return d.resolvedAt }
func (d *Dispute) Version() int64 { return d.version }
func (d *Dispute) CreatedAt() time.Time { return d.createdAt }
func (d *Dispute) UpdatedAt() time.Time { return d.updatedAt }

// Resolve closes the dispute with the admin's resolution note.
func (d *Dispute) Resolve(adminID uuid.UUID, resolution string) error {
	if !d.status.CanTransitionTo(StatusResolved) {
		return domain.NewInvalidStateError("dispute", "dispute is already resolved")
	}
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return domain.NewFieldValidationError("resolution", "resolution is required")
	}
	now := time.Now().UTC()
	d.status = StatusResolved
	d.resolution = resolution
	d.resolvedBy = &adminID
	d.resolvedAt = &now
	d.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (d *Dispute) IncrementVersion() {
	d.version++
	d.updatedAt = time.Now().UTC()
}

// DisputeRepository defines the persistence contract for disputes.
type DisputeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Dispute, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Dispute, error)
	// Save persists a new dispute. A second dispute on the same booking is ALREADY_EXISTS.
	Save(ctx context.Context, d *Dispute) error
	Update(ctx context.Context, d *Dispute) error
}
