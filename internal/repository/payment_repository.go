package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	paymentDomain "github.com/localpro-market/service-booking/internal/domain/payment"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// PaymentModel is the GORM model for the payments table.
type PaymentModel struct {
	ID                  uuid.UUID         `gorm:"type:uuid;primaryKey"`
	BookingID           uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null"`
	PaymentType         string            `gorm:"size:10;not null"`
	Status              string            `gorm:"size:10;not null"`
	AmountCents         int64             `gorm:"not null"`
	PlatformFeeCents    int64             `gorm:"not null"`
	ProviderAmountCents int64             `gorm:"not null"`
	Currency            string            `gorm:"size:3;not null;default:'DZD'"`
	CommissionRate      decimal.Decimal   `gorm:"type:numeric(6,4);not null"`
	FixedFeeCents       *int64
	PaidAt              *time.Time
	Metadata            datatypes.JSONMap `gorm:"not null"`
	Version             int64             `gorm:"not null;default:1"`
	CreatedAt           time.Time         `gorm:"not null"`
	UpdatedAt           time.Time         `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PaymentModel) TableName() string {
	return "payments"
}

// GormPaymentRepository is the GORM-based implementation of PaymentRepository.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByBookingID retrieves the payment attached to a booking.
func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFoundError("Payment", "for booking "+bookingID.String())
		}
		return nil, fmt.Errorf("failed to find payment by booking: %w", err)
	}
	return toDomainPayment(&model)
}

// Save persists a new payment. The unique booking_id index turns a racing second insert
// into ALREADY_EXISTS.
func (r *GormPaymentRepository) Save(ctx context.Context, p *paymentDomain.Payment) error {
	if err := r.db.WithContext(ctx).Create(toPaymentModel(p)).Error; err != nil {
		if isDuplicate(err) {
			return domain.NewAlreadyExistsError("payment", "a payment already exists for this booking")
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// Update persists changes to an existing payment with optimistic locking.
func (r *GormPaymentRepository) Update(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)

	expectedVersion := p.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"paid_at":    model.PaidAt,
			"metadata":   model.Metadata,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("payment was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toPaymentModel(p *paymentDomain.Payment) *PaymentModel {
	meta := datatypes.JSONMap{}
	for k, v := range p.Metadata() {
		meta[k] = v
	}
	return &PaymentModel{
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
		Metadata:            meta,
		Version:             p.Version(),
		CreatedAt:           p.CreatedAt(),
		UpdatedAt:           p.UpdatedAt(),
	}
}

func toDomainPayment(m *PaymentModel) (*paymentDomain.Payment, error) {
	status, err := paymentDomain.ParsePaymentStatus(m.Status)
	if err != nil {
		return nil, err
	}
	paymentType, err := paymentDomain.ParsePaymentType(m.PaymentType)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{}
	for k, v := range m.Metadata {
		meta[k] = v
	}

	return paymentDomain.ReconstructPayment(
		m.ID,
		m.BookingID,
		paymentType,
		status,
		m.AmountCents,
		m.PlatformFeeCents,
		m.ProviderAmountCents,
		m.Currency,
		m.CommissionRate,
		m.FixedFeeCents,
		m.PaidAt,
		meta,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
