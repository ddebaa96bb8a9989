package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

const (
	minTitleLength       = 5
	maxTitleLength       = 150
	minDescriptionLength = 10
	maxDescriptionLength = 5000
)

// Request is the aggregate root for a client's job posting.
type Request struct {
	id             uuid.UUID
	clientID       uuid.UUID
	categoryID     uuid.UUID
	cityID         uuid.UUID
	title          string
	description    string
	budgetMinCents *int64
	budgetMaxCents *int64
	urgency        Urgency
	status         RequestStatus
	visibility     Visibility

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewRequest creates a new open Request after validating the posting.
func NewRequest(
	clientID uuid.UUID,
	categoryID uuid.UUID,
	cityID uuid.UUID,
	title string,
	description string,
	budgetMinCents *int64,
	budgetMaxCents *int64,
	urgency Urgency,
	visibility Visibility,
) (*Request, error) {
	if clientID == uuid.Nil {
		return nil, domain.NewFieldValidationError("client_id", "client ID is required")
	}
	if categoryID == uuid.Nil {
		return nil, domain.NewFieldValidationError("category_id", "category is required")
	}
	if cityID == uuid.Nil {
		return nil, domain.NewFieldValidationError("city_id", "city is required")
	}

	title = strings.TrimSpace(title)
	if n := len([]rune(title)); n < minTitleLength || n > maxTitleLength {
		return nil, domain.NewFieldValidationError("title",
			fmt.Sprintf("title must be between %d and %d characters", minTitleLength, maxTitleLength))
	}
	description = strings.TrimSpace(description)
	if n := len([]rune(description)); n < minDescriptionLength || n > maxDescriptionLength {
		return nil, domain.NewFieldValidationError("description",
			fmt.Sprintf("description must be between %d and %d characters", minDescriptionLength, maxDescriptionLength))
	}

	if budgetMinCents != nil && *budgetMinCents < 0 {
		return nil, domain.NewFieldValidationError("budget_min", "budget cannot be negative")
	}
	if budgetMaxCents != nil && *budgetMaxCents < 0 {
		return nil, domain.NewFieldValidationError("budget_max", "budget cannot be negative")
	}
	if budgetMinCents != nil && budgetMaxCents != nil && *budgetMinCents > *budgetMaxCents {
		return nil, domain.NewFieldValidationError("budget_max", "maximum budget must not be below the minimum")
	}

	if !urgency.IsValid() {
		return nil, domain.NewFieldValidationError("urgency", fmt.Sprintf("invalid urgency: %s", urgency))
	}
	if visibility == "" {
		visibility = VisibilityPublic
	}
	if !visibility.IsValid() {
		return nil, domain.NewFieldValidationError("visibility", fmt.Sprintf("invalid visibility: %s", visibility))
	}

	now := time.Now().UTC()
	return &Request{
		id:             uuid.New(),
		clientID:       clientID,
		categoryID:     categoryID,
		cityID:         cityID,
		title:          title,
		description:    description,
		budgetMinCents: budgetMinCents,
		budgetMaxCents: budgetMaxCents,
		urgency:        urgency,
		status:         StatusOpen,
		visibility:     visibility,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructRequest rebuilds a Request from persistence data (no validation).
func ReconstructRequest(
	id uuid.UUID,
	clientID uuid.UUID,
	categoryID uuid.UUID,
	cityID uuid.UUID,
	title string,
	description string,
	budgetMinCents *int64,
	budgetMaxCents *int64,
	urgency Urgency,
	status RequestStatus,
	visibility Visibility,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Request {
	return &Request{
		id:             id,
		clientID:       clientID,
		categoryID:     categoryID,
		cityID:         cityID,
		title:          title,
		description:    description,
		budgetMinCents: budgetMinCents,
		budgetMaxCents: budgetMaxCents,
		urgency:        urgency,
		status:         status,
		visibility:     visibility,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

func (r *Request) ID() uuid.UUID { return r.id }
func (r *Request) ClientID() uuid.UUID { return r.clientID }
func (r *Request) CategoryID() uuid.UUID { return r.categoryID }
func (r *Request) CityID() uuid.UUID { return r.cityID }
func (r *Request) Title() string { return r.title }
func (r *Request) Description() string { return r.description }
func (r *Request) BudgetMinCents() *int64 { return r.budgetMinCents }
func (r *Request) BudgetMaxCents() *int64 { return r.budgetMaxCents }
func (r *Request) Urgency() Urgency { return r.urgency }
func (r *Request) Status() RequestStatus { return r.status }
func (r *Request) Visibility() Visibility { return r.visibility }
func (r *Request) Version() int64 { return r.version }
func (r *Request) CreatedAt() time.Time { return r.createdAt }
func (r *Request) UpdatedAt() time.Time { return r.updatedAt }

// PartyID implements authz.Resource. A request only has a client party.
func (r *Request) PartyID(rel authz.Relation) (uuid.UUID, bool) {
	if rel == authz.RelationClient {
		return r.clientID, true
	}
	return uuid.Nil, false
}

// --- Behavior ---

// AcceptsOffers reports whether providers may still submit or have offers accepted.
func (r *Request) AcceptsOffers() bool {
	return r.status == StatusOpen
}

// IsDiscoverable reports whether a provider may see the request without owning it.
func (r *Request) IsDiscoverable() bool {
	return r.visibility == VisibilityPublic && r.AcceptsOffers()
}

// Assign marks the request as taken by an accepted offer.
func (r *Request) Assign() error {
	if !r.AcceptsOffers() {
		return domain.NewInvalidStateError("request", "request not open")
	}
	return r.transition(StatusAssigned)
}

// Reopen puts an assigned request back on the market.
func (r *Request) Reopen() error {
	if r.status != StatusAssigned {
		return domain.NewInvalidStateError("request", fmt.Sprintf("request is %s, not assigned", r.status))
	}
	return r.transition(StatusOpen)
}

// Cancel withdraws the posting. Assigned requests are cancelled through their booking.
func (r *Request) Cancel() error {
	if r.status == StatusAssigned || !r.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError("request", fmt.Sprintf("request cannot be cancelled while %s", r.status))
	}
	return r.transition(StatusCancelled)
}

func (r *Request) transition(target RequestStatus) error {
	if !r.status.CanTransitionTo(target) {
		return domain.NewInvalidTransitionError(string(r.status), string(target))
	}
	r.status = target
	r.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Request) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
