package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	bookingDomain "github.com/localpro-market/service-booking/internal/domain/booking"
	disputeDomain "github.com/localpro-market/service-booking/internal/domain/dispute"
	feeDomain "github.com/localpro-market/service-booking/internal/domain/fee"
	offerDomain "github.com/localpro-market/service-booking/internal/domain/offer"
	paymentDomain "github.com/localpro-market/service-booking/internal/domain/payment"
	requestDomain "github.com/localpro-market/service-booking/internal/domain/request"
)

// --- Requests ---

// CreateRequestRequest holds the data a client posts to ask for a service.
type CreateRequestRequest struct {
	CategoryID     uuid.UUID `json:"category_id" binding:"required"`
	CityID         uuid.UUID `json:"city_id" binding:"required"`
	Title          string    `json:"title" binding:"required"`
	Description    string    `json:"description" binding:"required"`
	BudgetMinCents *int64    `json:"budget_min_cents"`
	BudgetMaxCents *int64    `json:"budget_max_cents"`
	Urgency        string    `json:"urgency"`
	Visibility     string    `json:"visibility"`
}

// RequestDTO is the response representation of a request.
type RequestDTO struct {
	ID             uuid.UUID `json:"id"`
	ClientID       uuid.UUID `json:"client_id"`
	CategoryID     uuid.UUID `json:"category_id"`
	CityID         uuid.UUID `json:"city_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	BudgetMinCents *int64    `json:"budget_min_cents,omitempty"`
	BudgetMaxCents *int64    `json:"budget_max_cents,omitempty"`
	Urgency        string    `json:"urgency,omitempty"`
	Status         string    `json:"status"`
	Visibility     string    `json:"visibility"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toRequestDTO(r *requestDomain.Request) RequestDTO {
	return RequestDTO{
		ID:             r.ID(),
		ClientID:       r.ClientID(),
		CategoryID:     r.CategoryID(),
		CityID:         r.CityID(),
		Title:          r.Title(),
		Description:    r.Description(),
		BudgetMinCents: r.BudgetMinCents(),
		BudgetMaxCents: r.BudgetMaxCents(),
		Urgency:        string(r.Urgency()),
		Status:         string(r.Status()),
		Visibility:     string(r.Visibility()),
		Version:        r.Version(),
		CreatedAt:      r.CreatedAt(),
		UpdatedAt:      r.UpdatedAt(),
	}
}

// --- Offers ---

// SubmitOfferRequest holds a provider's offer terms.
type SubmitOfferRequest struct {
	Message            string `json:"message" binding:"required"`
	ProposedPriceCents int64  `json:"proposed_price_cents"`
	EstimatedDays      *int   `json:"estimated_days"`
}

// OfferDTO is the response representation of an offer.
type OfferDTO struct {
	ID                 uuid.UUID `json:"id"`
	RequestID          uuid.UUID `json:"request_id"`
	ProviderID         uuid.UUID `json:"provider_id"`
	Message            string    `json:"message"`
	ProposedPriceCents int64     `json:"proposed_price_cents"`
	EstimatedDays      *int      `json:"estimated_days,omitempty"`
	Status             string    `json:"status"`
	Version            int64     `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toOfferDTO(o *offerDomain.Offer) OfferDTO {
	return OfferDTO{
		ID:                 o.ID(),
		RequestID:          o.RequestID(),
		ProviderID:         o.ProviderID(),
		Message:            o.Message(),
		ProposedPriceCents: o.ProposedPriceCents(),
		EstimatedDays:      o.EstimatedDays(),
		Status:             string(o.Status()),
		Version:            o.Version(),
		CreatedAt:          o.CreatedAt(),
		UpdatedAt:          o.UpdatedAt(),
	}
}

// --- Bookings ---

// BookServiceRequest holds the optional schedule for a direct service booking.
type BookServiceRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// UpdateStatusRequest names the status a provider wants to move a booking to.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID               uuid.UUID  `json:"id"`
	BookingNumber    string     `json:"booking_number"`
	Source           string     `json:"source"`
	ServiceID        *uuid.UUID `json:"service_id,omitempty"`
	OfferID          *uuid.UUID `json:"offer_id,omitempty"`
	ClientID         uuid.UUID  `json:"client_id"`
	ProviderID       uuid.UUID  `json:"provider_id"`
	Status           string     `json:"status"`
	TotalAmountCents int64      `json:"total_amount_cents"`
	Currency         string     `json:"currency"`
	ScheduledAt      *time.Time `json:"scheduled_at,omitempty"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	Version          int64      `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:               bk.ID(),
		BookingNumber:    bk.BookingNumber(),
		Source:           string(bk.Source()),
		ServiceID:        bk.ServiceID(),
		OfferID:          bk.OfferID(),
		ClientID:         bk.ClientID(),
		ProviderID:       bk.ProviderID(),
		Status:           string(bk.Status()),
		TotalAmountCents: bk.TotalAmountCents(),
		Currency:         bk.Currency(),
		ScheduledAt:      bk.ScheduledAt(),
		ConfirmedAt:      bk.ConfirmedAt(),
		StartedAt:        bk.StartedAt(),
		CompletedAt:      bk.CompletedAt(),
		CancelledAt:      bk.CancelledAt(),
		Version:          bk.Version(),
		CreatedAt:        bk.CreatedAt(),
		UpdatedAt:        bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// --- Payments ---

// ChoosePaymentRequest selects how a booking will be settled.
type ChoosePaymentRequest struct {
	PaymentType string                     `json:"payment_type" binding:"required"`
	Card        *paymentDomain.CardDetails `json:"card"`
}

// ConfirmOnlinePaymentRequest carries the OTP answer to the gateway challenge.
type ConfirmOnlinePaymentRequest struct {
	OTP string `json:"otp" binding:"required"`
}

// PaymentDTO is the response representation of a payment.
type PaymentDTO struct {
	ID                  uuid.UUID       `json:"id"`
	BookingID           uuid.UUID       `json:"booking_id"`
	PaymentType         string          `json:"payment_type"`
	Status              string          `json:"status"`
	AmountCents         int64           `json:"amount_cents"`
	PlatformFeeCents    int64           `json:"platform_fee_cents"`
	ProviderAmountCents int64           `json:"provider_amount_cents"`
	Currency            string          `json:"currency"`
	CommissionRate      decimal.Decimal `json:"commission_rate"`
	FixedFeeCents       *int64          `json:"fixed_fee_cents,omitempty"`
	PaidAt              *time.Time      `json:"paid_at,omitempty"`
	Metadata            map[string]any  `json:"metadata"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func toPaymentDTO(p *paymentDomain.Payment) PaymentDTO {
	return PaymentDTO{
		ID:                  p.ID(),
		BookingID:           p.BookingID(),
		PaymentType:         string(p.Type()),
		Status:              string(p.Status()),
		AmountCents:         p.AmountCents(),
		PlatformFeeCents:    p.PlatformFeeCents(),
		ProviderAmountCents: p.ProviderAmountCents(),
		Currency:            p.Currency(),
		CommissionRate:      p.CommissionRate(),
		FixedFeeCents:       p.FixedFeeCents(),
		PaidAt:              p.PaidAt(),
		Metadata:            p.Metadata(),
		CreatedAt:           p.CreatedAt(),
		UpdatedAt:           p.UpdatedAt(),
	}
}

// --- Fees ---

// SetFeeRequest replaces the active fee setting.
type SetFeeRequest struct {
	CommissionRate decimal.Decimal `json:"commission_rate"`
	FixedFeeCents  *int64          `json:"fixed_fee_cents"`
}

// FeeSettingDTO is the response representation of a fee setting.
type FeeSettingDTO struct {
	ID             uuid.UUID       `json:"id"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	FixedFeeCents  *int64          `json:"fixed_fee_cents,omitempty"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toFeeSettingDTO(s *feeDomain.Setting) FeeSettingDTO {
	return FeeSettingDTO{
		ID:             s.ID(),
		CommissionRate: s.CommissionRate(),
		FixedFeeCents:  s.FixedFeeCents(),
		Active:         s.Active(),
		CreatedAt:      s.CreatedAt(),
	}
}

// --- Disputes ---

// OpenDisputeRequest holds the reason a party disputes a booking.
type OpenDisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ResolveDisputeRequest holds the admin's resolution note.
type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// DisputeDTO is the response representation of a dispute.
type DisputeDTO struct {
	ID           uuid.UUID  `json:"id"`
	BookingID    uuid.UUID  `json:"booking_id"`
	OpenedBy     uuid.UUID  `json:"opened_by"`
	OpenedByRole string     `json:"opened_by_role"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	Resolution   string     `json:"resolution,omitempty"`
	ResolvedBy   *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toDisputeDTO(d *disputeDomain.Dispute) DisputeDTO {
	return DisputeDTO{
		ID:           d.ID(),
		BookingID:    d.BookingID(),
		OpenedBy:     d.OpenedBy(),
		OpenedByRole: string(d.OpenedByRole()),
		Reason:       d.Reason(),
		Status:       string(d.Status()),
		Resolution:   d.Resolution(),
		ResolvedBy:   d.ResolvedBy(),
		ResolvedAt:   d.ResolvedAt(),
		CreatedAt:    d.CreatedAt(),
		UpdatedAt:    d.UpdatedAt(),
	}
}
