package application

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	feeDomain "github.com/localpro-market/service-booking/internal/domain/fee"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// FeeService owns the active commission configuration.
type FeeService struct {
	repo   feeDomain.SettingRepository
	cache  feeDomain.Cache
	logger *zap.Logger
}

// NewFeeService creates a new FeeService. cache may be nil, including a nil *RedisFeeCache.
func NewFeeService(repo feeDomain.SettingRepository, cache feeDomain.Cache, logger *zap.Logger) *FeeService {
	if isNilDependency(cache) {
		cache = nil
	}
	return &FeeService{repo: repo, cache: cache, logger: logger}
}

// ActiveSnapshot returns the fee snapshot new payments are split with.
func (s *FeeService) ActiveSnapshot(ctx context.Context) (feeDomain.Snapshot, error) {
	if s.cache != nil {
		snap, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("fee cache read failed", zap.Error(err))
		} else if snap != nil {
			return *snap, nil
		}
	}

	setting, err := s.repo.FindActive(ctx)
	if err != nil {
		return feeDomain.Snapshot{}, err
	}
	snap := setting.Snapshot()

	if s.cache != nil {
		if err := s.cache.Set(ctx, snap); err != nil {
			s.logger.Warn("fee cache write failed", zap.Error(err))
		}
	}
	return snap, nil
}

// GetActive returns the active fee setting.
func (s *FeeService) GetActive(ctx context.Context) (*FeeSettingDTO, error) {
	setting, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	result := toFeeSettingDTO(setting)
	return &result, nil
}

// SetActive replaces the active fee setting (admin). Existing payments keep their frozen split.
func (s *FeeService) SetActive(ctx context.Context, actor authz.Actor, req SetFeeRequest) (*FeeSettingDTO, error) {
	if !actor.IsAdmin() {
		return nil, domain.NewForbiddenError("only admins can change fees")
	}

	setting, err := s.activate(ctx, req.CommissionRate, req.FixedFeeCents)
	if err != nil {
		return nil, err
	}

	s.logger.Info("fee setting activated",
		zap.String("fee_setting_id", setting.ID().String()),
		zap.String("commission_rate", setting.CommissionRate().String()),
		zap.String("admin_id", actor.UserID.String()),
	)
	result := toFeeSettingDTO(setting)
	return &result, nil
}

// EnsureActive stores defaults as the active setting when none exists yet.
func (s *FeeService) EnsureActive(ctx context.Context, defaults feeDomain.Snapshot) error {
	_, err := s.repo.FindActive(ctx)
	if err == nil {
		return nil
	}
	if !domain.IsCode(err, domain.CodeNotFound) {
		return err
	}

	setting, err := s.activate(ctx, defaults.CommissionRate, defaults.FixedFeeCents)
	if err != nil {
		return err
	}
	s.logger.Info("default fee setting seeded",
		zap.String("commission_rate", setting.CommissionRate().String()),
	)
	return nil
}

func (s *FeeService) activate(ctx context.Context, rate decimal.Decimal, fixed *int64) (*feeDomain.Setting, error) {
	setting, err := feeDomain.NewSetting(rate, fixed)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Activate(ctx, setting); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("fee cache invalidation failed", zap.Error(err))
		}
	}
	return setting, nil
}
