package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	feeDomain "github.com/localpro-market/service-booking/internal/domain/fee"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// FeeSettingModel is the GORM model for the fee_settings table.
type FeeSettingModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CommissionRate decimal.Decimal `gorm:"type:numeric(6,4);not null"`
	FixedFeeCents  *int64
	Active         bool      `gorm:"not null;default:false;index"`
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (FeeSettingModel) TableName() string {
	return "fee_settings"
}

// GormFeeSettingRepository is the GORM-based implementation of SettingRepository.
type GormFeeSettingRepository struct {
	db *gorm.DB
}

// NewGormFeeSettingRepository creates a new GormFeeSettingRepository.
func NewGormFeeSettingRepository(db *gorm.DB) *GormFeeSettingRepository {
	return &GormFeeSettingRepository{db: db}
}

// FindActive returns the active fee setting.
func (r *GormFeeSettingRepository) FindActive(ctx context.Context) (*feeDomain.Setting, error) {
	var model FeeSettingModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFoundError("FeeSetting", "active")
		}
		return nil, fmt.Errorf("failed to find active fee setting: %w", err)
	}
	return feeDomain.ReconstructSetting(model.ID, model.CommissionRate, model.FixedFeeCents, model.Active, model.CreatedAt), nil
}

// Activate stores s as the only active setting.
func (r *GormFeeSettingRepository) Activate(ctx context.Context, s *feeDomain.Setting) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&FeeSettingModel{}).
			Where("active = ?", true).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate fee settings: %w", err)
		}
		model := FeeSettingModel{
			ID:             s.ID(),
			CommissionRate: s.CommissionRate(),
			FixedFeeCents:  s.FixedFeeCents(),
			Active:         true,
			CreatedAt:      s.CreatedAt(),
		}
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to save fee setting: %w", err)
		}
		return nil
	})
}
