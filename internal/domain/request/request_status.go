package request

import "fmt"

// RequestStatus represents where a client's job posting is in its lifecycle.
type RequestStatus string

const (
	StatusOpen         RequestStatus = "open"
	StatusInDiscussion RequestStatus = "in_discussion"
	StatusAssigned     RequestStatus = "assigned"
	StatusClosed       RequestStatus = "closed"
	StatusCancelled    RequestStatus = "cancelled"
)

// validTransitions defines the state machine for request status transitions.
var validTransitions = map[RequestStatus][]RequestStatus{
	StatusOpen:         {StatusInDiscussion, StatusAssigned, StatusClosed, StatusCancelled},
	StatusInDiscussion: {StatusOpen, StatusClosed, StatusCancelled},
	StatusAssigned:     {StatusOpen, StatusClosed},
	StatusClosed:       {},
	StatusCancelled:    {},
}

// IsValid returns true if the status is a recognized request status.
func (s RequestStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s RequestStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

func (s RequestStatus) String() string {
	return string(s)
}

// ParseRequestStatus converts a string to a RequestStatus, returning an error if invalid.
func ParseRequestStatus(s string) (RequestStatus, error) {
	status := RequestStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid request status: %s", s)
	}
	return status, nil
}

// Urgency is how soon the client needs the work done.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// IsValid returns true for a known urgency. The empty urgency means "not specified".
func (u Urgency) IsValid() bool {
	switch u {
	case "", UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// Visibility controls whether providers can discover the request.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// IsValid returns true for a known visibility.
func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}
