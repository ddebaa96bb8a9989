package payment

import "fmt"

// PaymentStatus represents the settlement state of a payment.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
)

var validTransitions = map[PaymentStatus][]PaymentStatus{
	StatusPending: {StatusPaid},
	StatusPaid:    {},
}

// IsValid returns true if the status is a recognized payment status.
func (s PaymentStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts a string to a PaymentStatus, returning an error if invalid.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid payment status: %s", s)
	}
	return status, nil
}

// PaymentType is how the client settles.
type PaymentType string

const (
	TypeCash   PaymentType = "cash"
	TypeOnline PaymentType = "online"
)

// ParsePaymentType converts a string to a PaymentType, returning an error if invalid.
func ParsePaymentType(s string) (PaymentType, error) {
	switch PaymentType(s) {
	case TypeCash, TypeOnline:
		return PaymentType(s), nil
	}
	return "", fmt.Errorf("invalid payment type: %s", s)
}
