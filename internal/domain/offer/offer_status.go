package offer

import "fmt"

// OfferStatus represents the state of a provider's bid.
type OfferStatus string

const (
	StatusSent      OfferStatus = "sent"
	StatusWithdrawn OfferStatus = "withdrawn"
	StatusAssigned  OfferStatus = "assigned"
	StatusRejected  OfferStatus = "rejected"
)

// validTransitions defines the state machine for offer status transitions.
// Withdrawn and rejected offers go back to sent when the provider resubmits.
var validTransitions = map[OfferStatus][]OfferStatus{
	StatusSent:      {StatusWithdrawn, StatusAssigned, StatusRejected},
	StatusAssigned:  {StatusWithdrawn},
	StatusWithdrawn: {StatusSent},
	StatusRejected:  {StatusSent},
}

// IsValid returns true if the status is a recognized offer status.
func (s OfferStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s OfferStatus) CanTransitionTo(target OfferStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s OfferStatus) String() string {
	return string(s)
}

// ParseOfferStatus converts a string to an OfferStatus, returning an error if invalid.
func ParseOfferStatus(s string) (OfferStatus, error) {
	status := OfferStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid offer status: %s", s)
	}
	return status, nil
}
