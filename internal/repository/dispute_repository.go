package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	disputeDomain "github.com/localpro-market/service-booking/internal/domain/dispute"
	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// DisputeModel is the GORM model for the disputes table.
type DisputeModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	OpenedBy     uuid.UUID  `gorm:"type:uuid;not null"`
	OpenedByRole string     `gorm:"size:20;not null"`
	Reason       string     `gorm:"type:text;not null"`
	Status       string     `gorm:"size:20;not null"`
	Resolution   string     `gorm:"type:text;not null;default:''"`
	ResolvedBy   *uuid.UUID `gorm:"type:uuid"`
	ResolvedAt   *time.Time
	Version      int64     `gorm:"not null;default:1"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (DisputeModel) TableName() string {
	return "disputes"
}

// GormDisputeRepository is the GORM-based implementation of DisputeRepository.
type GormDisputeRepository struct {
	db *gorm.DB
}

// NewGormDisputeRepository creates a new GormDisputeRepository.
func NewGormDisputeRepository(db *gorm.DB) *GormDisputeRepository {
	return &GormDisputeRepository{db: db}
}

// FindByID retrieves a dispute by its unique identifier.
func (r *GormDisputeRepository) FindByID(ctx context.Context, id uuid.UUID) (*disputeDomain.Dispute, error) {
	return r.findOne(ctx, "id = ?", id, id.String())
}

// FindByBookingID retrieves the dispute opened on a booking.
func (r *GormDisputeRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*disputeDomain.Dispute, error) {
	return r.findOne(ctx, "booking_id = ?", bookingID, "for booking "+bookingID.String())
}

func (r *GormDisputeRepository) findOne(ctx context.Context, where string, arg interface{}, label string) (*disputeDomain.Dispute, error) {
	var model DisputeModel
	if err := r.db.WithContext(ctx).Where(where, arg).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFoundError("Dispute", label)
		}
		return nil, fmt.Errorf("failed to find dispute: %w", err)
	}
	return toDomainDispute(&model)
}

// Save persists a new dispute.
func (r *GormDisputeRepository) Save(ctx context.Context, d *disputeDomain.Dispute) error {
	if err := r.db.WithContext(ctx).Create(toDisputeModel(d)).Error; err != nil {
		if isDuplicate(err) {
			return domain.NewAlreadyExistsError("dispute", "a dispute is already open for this booking")
		}
		return fmt.Errorf("failed to save dispute: %w", err)
	}
	return nil
}

// Update persists changes to an existing dispute with optimistic locking.
func (r *GormDisputeRepository) Update(ctx context.Context, d *disputeDomain.Dispute) error {
	model := toDisputeModel(d)
	result := r.db.WithContext(ctx).
		Model(&DisputeModel{}).
		Where("id = ? AND version = ?", model.ID, d.Version()-1).
		Updates(map[string]interface{}{
			"status":      model.Status,
			"resolution":  model.Resolution,
			"resolved_by": model.ResolvedBy,
			"resolved_at": model.ResolvedAt,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update dispute: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("dispute was modified by another transaction")
	}
	return nil
}

func toDisputeModel(d *disputeDomain.Dispute) *DisputeModel {
	return &DisputeModel{
		ID:           d.ID(),
		BookingID:    d.BookingID(),
		OpenedBy:     d.OpenedBy(),
		OpenedByRole: string(d.OpenedByRole()),
		Reason:       d.Reason(),
		Status:       string(d.Status()),
		Resolution:   d.Resolution(),
		ResolvedBy:   d.ResolvedBy(),
		ResolvedAt:   d.ResolvedAt(),
		Version:      d.Version(),
		CreatedAt:    d.CreatedAt(),
		UpdatedAt:    d.UpdatedAt(),
	}
}

func toDomainDispute(m *DisputeModel) (*disputeDomain.Dispute, error) {
	status, err := disputeDomain.ParseDisputeStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return disputeDomain.ReconstructDispute(
		m.ID, m.BookingID, m.OpenedBy,
		auth.Role(m.OpenedByRole),
		m.Reason,
		status,
		m.Resolution,
		m.ResolvedBy,
		m.ResolvedAt,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	), nil
}
