package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// CardDetails is what the client types into the simulated gateway form.
// Only the shape is checked; nothing is charged.
type CardDetails struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	CVC      string `json:"cvc"`
}

// Validate checks card number length, expiry and CVC shape relative to now.
func (c CardDetails) Validate(now time.Time) error {
	number := c.normalizedNumber()
	if len(number) < 13 || len(number) > 19 || !allDigits(number) {
		return domain.NewFieldValidationError("card_number", "card number must be 13 to 19 digits")
	}
	if c.ExpMonth < 1 || c.ExpMonth > 12 {
		return domain.NewFieldValidationError("card_expiry", "expiry month must be between 1 and 12")
	}
	year, month := now.Year(), int(now.Month())
	if c.ExpYear < year || (c.ExpYear == year && c.ExpMonth < month) {
		return domain.NewFieldValidationError("card_expiry", "card has expired")
	}
	if len(c.CVC) < 3 || len(c.CVC) > 4 || !allDigits(c.CVC) {
		return domain.NewFieldValidationError("card_cvc", "cvc must be 3 or 4 digits")
	}
	return nil
}

// MaskedMetadata returns the card facts that may be stored. The full number and CVC never are.
func (c CardDetails) MaskedMetadata() map[string]any {
	number := c.normalizedNumber()
	last4 := number
	if len(number) > 4 {
		last4 = number[len(number)-4:]
	}
	return map[string]any{
		"card_brand":   brand(number),
		"card_last4":   last4,
		"card_expiry":  fmt.Sprintf("%02d/%d", c.ExpMonth, c.ExpYear),
		"otp_required": true,
	}
}

func (c CardDetails) normalizedNumber() string {
	return strings.NewReplacer(" ", "", "-", "").Replace(c.Number)
}

func brand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "visa"
	case strings.HasPrefix(number, "5"):
		return "mastercard"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "amex"
	default:
		return "card"
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
