package fee

import (
	"github.com/shopspring/decimal"

	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// Snapshot is the fee configuration in force when a payment is created. Settlement code
// receives it as a value so the split can be reproduced later.
type Snapshot struct {
	CommissionRate decimal.Decimal `json:"commission_rate"`
	FixedFeeCents  *int64          `json:"fixed_fee_cents,omitempty"`
}

// Split is the division of a payment amount between platform and provider.
type Split struct {
	AmountCents         int64
	PlatformFeeCents    int64
	ProviderAmountCents int64
}

// Validate checks that the rate is a fraction in [0, 1] and the fixed fee is not negative.
func (s Snapshot) Validate() error {
	if s.CommissionRate.IsNegative() || s.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return domain.NewFieldValidationError("commission_rate", "commission rate must be between 0 and 1")
	}
	if s.FixedFeeCents != nil && *s.FixedFeeCents < 0 {
		return domain.NewFieldValidationError("fixed_fee", "fixed fee cannot be negative")
	}
	return nil
}

// Compute splits amountCents.
//
// Formula:
//   - fee = amount x commission_rate, rounded half away from zero to whole cents
//   - plus the fixed fee when one is set
//   - capped at amount so the provider share is never negative
func (s Snapshot) Compute(amountCents int64) Split {
	fee := decimal.NewFromInt(amountCents).Mul(s.CommissionRate).Round(0).IntPart()
	if s.FixedFeeCents != nil {
		fee += *s.FixedFeeCents
	}
	if fee > amountCents {
		fee = amountCents
	}
	if fee < 0 {
		fee = 0
	}
	return Split{
		AmountCents:         amountCents,
		PlatformFeeCents:    fee,
		ProviderAmountCents: amountCents - fee,
	}
}
