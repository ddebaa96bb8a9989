// Package fee models the platform commission configuration and the split it produces.
package fee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Setting is one row of fee configuration. Only one setting is active at a time.
type Setting struct {
	id             uuid.UUID
	commissionRate decimal.Decimal
	fixedFeeCents  *int64
	active         bool
	createdAt      time.Time
}

// NewSetting creates an active setting after validating it.
func NewSetting(commissionRate decimal.Decimal, fixedFeeCents *int64) (*Setting, error) {
	snap := Snapshot{CommissionRate: commissionRate, FixedFeeCents: fixedFeeCents}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &Setting{
		id:             uuid.New(),
		commissionRate: commissionRate,
		fixedFeeCents:  fixedFeeCents,
		active:         true,
		createdAt:      time.Now().UTC(),
	}, nil
}

// ReconstructSetting rebuilds a Setting from persistence data (no validation).
func ReconstructSetting(id uuid.UUID, commissionRate decimal.Decimal, fixedFeeCents *int64, active bool, createdAt time.Time) *Setting {
	return &Setting{
		id:             id,
		commissionRate: commissionRate,
		fixedFeeCents:  fixedFeeCents,
		active:         active,
		createdAt:      createdAt,
	}
}

func (s *Setting) ID() uuid.UUID { return s.id }
func (s *Setting) CommissionRate() decimal.Decimal { return s.commissionRate }
func (s *Setting) FixedFeeCents() *int64 { return s.fixedFeeCents }
func (s *Setting) Active() bool { return s.active }
func (s *Setting) CreatedAt() time.Time { return s.createdAt }

// Snapshot freezes the setting into a value for payment creation.
func (s *Setting) Snapshot() Snapshot {
	return Snapshot{CommissionRate: s.commissionRate, FixedFeeCents: s.fixedFeeCents}
}

// SettingRepository defines the persistence contract for fee settings.
type SettingRepository interface {
	// FindActive returns the active setting, or a NOT_FOUND error when none is configured.
	FindActive(ctx context.Context) (*Setting, error)

	// Activate stores s and deactivates every other setting in one transaction.
	Activate(ctx context.Context, s *Setting) error
}

// Cache holds the active snapshot in front of the repository. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context) (*Snapshot, error)
	Set(ctx context.Context, snap Snapshot) error
	Invalidate(ctx context.Context) error
}
