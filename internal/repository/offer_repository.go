package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	offerDomain "github.com/localpro-market/service-booking/internal/domain/offer"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// OfferModel is the GORM model for the offers table.
type OfferModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_offers_request_provider"`
	ProviderID         uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_offers_request_provider"`
	Message            string    `gorm:"type:text;not null"`
	ProposedPriceCents int64     `gorm:"not null"`
	EstimatedDays      *int
	Status             string    `gorm:"size:20;index;not null"`
	Version            int64     `gorm:"not null;default:1"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (OfferModel) TableName() string {
	return "offers"
}

// GormOfferRepository is the GORM-based implementation of OfferRepository.
type GormOfferRepository struct {
	db *gorm.DB
}

// NewGormOfferRepository creates a new GormOfferRepository.
func NewGormOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// FindByID retrieves an offer by its unique identifier.
func (r *GormOfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*offerDomain.Offer, error) {
	var model OfferModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFoundError("Offer", id.String())
		}
		return nil, fmt.Errorf("failed to find offer by ID: %w", err)
	}
	return toDomainOffer(&model)
}

// FindByRequestAndProvider retrieves the offer a provider holds on a request.
func (r *GormOfferRepository) FindByRequestAndProvider(ctx context.Context, requestID, providerID uuid.UUID) (*offerDomain.Offer, error) {
	var model OfferModel
	if err := r.db.WithContext(ctx).
		Where("request_id = ? AND provider_id = ?", requestID, providerID).
		First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFoundError("Offer", requestID.String()+"/"+providerID.String())
		}
		return nil, fmt.Errorf("failed to find offer by request and provider: %w", err)
	}
	return toDomainOffer(&model)
}

// FindByRequestID retrieves every offer on a request, oldest first.
func (r *GormOfferRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]*offerDomain.Offer, error) {
	var models []OfferModel
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find request offers: %w", err)
	}
	return toDomainOffers(models)
}

// FindByProviderID retrieves a provider's offers with pagination.
func (r *GormOfferRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*offerDomain.Offer, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&OfferModel{}).Where("provider_id = ?", providerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count provider offers: %w", err)
	}

	var models []OfferModel
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("updated_at DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find provider offers: %w", err)
	}

	offers, err := toDomainOffers(models)
	if err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

// Save persists a new offer.
func (r *GormOfferRepository) Save(ctx context.Context, o *offerDomain.Offer) error {
	if err := r.db.WithContext(ctx).Create(toOfferModel(o)).Error; err != nil {
		if isDuplicate(err) {
			return domain.NewConflictError("an offer from this provider was submitted concurrently, retry")
		}
		return fmt.Errorf("failed to save offer: %w", err)
	}
	return nil
}

// Update persists changes to an existing offer with optimistic locking.
func (r *GormOfferRepository) Update(ctx context.Context, o *offerDomain.Offer) error {
	model := toOfferModel(o)

	expectedVersion := o.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&OfferModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"message":              model.Message,
			"proposed_price_cents": model.ProposedPriceCents,
			"estimated_days":       model.EstimatedDays,
			"status":               model.Status,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update offer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("offer was modified by another transaction")
	}
	return nil
}

// RejectSent rejects every sent offer on the request except exceptID.
func (r *GormOfferRepository) RejectSent(ctx context.Context, requestID, exceptID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&OfferModel{}).
		Where("request_id = ? AND id <> ? AND status = ?", requestID, exceptID, string(offerDomain.StatusSent)).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to find sibling offers: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	result := r.db.WithContext(ctx).
		Model(&OfferModel{}).
		Where("id IN ? AND status = ?", ids, string(offerDomain.StatusSent)).
		Updates(map[string]interface{}{
			"status":     string(offerDomain.StatusRejected),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to reject sibling offers: %w", result.Error)
	}
	if result.RowsAffected != int64(len(ids)) {
		return nil, domain.NewConflictError("sibling offers changed while being rejected")
	}
	return ids, nil
}

// --- Conversion Helpers ---

func toOfferModel(o *offerDomain.Offer) *OfferModel {
	return &OfferModel{
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

func toDomainOffer(m *OfferModel) (*offerDomain.Offer, error) {
	status, err := offerDomain.ParseOfferStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return offerDomain.ReconstructOffer(
		m.ID,
		m.RequestID,
		m.ProviderID,
		m.Message,
		m.ProposedPriceCents,
		m.EstimatedDays,
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainOffers(models []OfferModel) ([]*offerDomain.Offer, error) {
	offers := make([]*offerDomain.Offer, len(models))
	for i := range models {
		o, err := toDomainOffer(&models[i])
		if err != nil {
			return nil, err
		}
		offers[i] = o
	}
	return offers, nil
}
