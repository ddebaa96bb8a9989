package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localpro-market/service-booking/internal/domain/listing"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// ServiceListingModel maps the catalogue's service_listings table. This service only reads it.
type ServiceListingModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null"`
	Title      string    `gorm:"size:200;not null"`
	PriceCents int64     `gorm:"not null"`
	Currency   string    `gorm:"size:3;not null;default:'DZD'"`
	Active     bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for the GORM model.
func (ServiceListingModel) TableName() string {
	return "service_listings"
}

// GormListingReader reads service listings.
type GormListingReader struct {
	db *gorm.DB
}

// NewGormListingReader creates a new GormListingReader.
func NewGormListingReader(db *gorm.DB) *GormListingReader {
	return &GormListingReader{db: db}
}

// FindByID retrieves a listing by its unique identifier.
func (r *GormListingReader) FindByID(ctx context.Context, id uuid.UUID) (*listing.ServiceListing, error) {
	var m ServiceListingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFoundError("Service", id.String())
		}
		return nil, fmt.Errorf("failed to find service listing: %w", err)
	}
	return &listing.ServiceListing{
		ID:         m.ID,
		ProviderID: m.ProviderID,
		Title:      m.Title,
		PriceCents: m.PriceCents,
		Currency:   m.Currency,
		Active:     m.Active,
	}, nil
}
