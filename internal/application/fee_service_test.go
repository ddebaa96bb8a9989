package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	feeDomain "github.com/localpro-market/service-booking/internal/domain/fee"
	"github.com/localpro-market/service-booking/internal/platform/domain"
	"github.com/localpro-market/service-booking/internal/repository"
)

func TestFeeService_ActiveSnapshotIsCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.fees.ActiveSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.07").Equal(snap.CommissionRate))
	assert.True(t, f.redis.Exists("fee:active"))

	// Served from the cache even with the table gone.
	require.NoError(t, f.db.Exec("DELETE FROM fee_settings").Error)
	cached, err := f.fees.ActiveSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.CommissionRate.Equal(cached.CommissionRate))
}

func TestFeeService_SetActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.fees.ActiveSnapshot(ctx)
	require.NoError(t, err)

	fixed := int64(150)
	_, err = f.fees.SetActive(ctx, authz.Client(uuid.New()), SetFeeRequest{CommissionRate: decimal.RequireFromString("0.1")})
	requireCode(t, err, domain.CodeForbidden)

	_, err = f.fees.SetActive(ctx, authz.Admin(uuid.New()), SetFeeRequest{CommissionRate: decimal.RequireFromString("1.5")})
	requireCode(t, err, domain.CodeValidation)

	setting, err := f.fees.SetActive(ctx, authz.Admin(uuid.New()), SetFeeRequest{
		CommissionRate: decimal.RequireFromString("0.1"),
		FixedFeeCents:  &fixed,
	})
	require.NoError(t, err)
	assert.True(t, setting.Active)
	assert.False(t, f.redis.Exists("fee:active"))

	snap, err := f.fees.ActiveSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.1").Equal(snap.CommissionRate))
	require.NotNil(t, snap.FixedFeeCents)
	assert.Equal(t, int64(150), *snap.FixedFeeCents)

	var active int64
	require.NoError(t, f.db.Table("fee_settings").Where("active = ?", true).Count(&active).Error)
	assert.Equal(t, int64(1), active)

	got, err := f.fees.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, setting.ID, got.ID)
}

func TestFeeService_EnsureActiveKeepsExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.fees.GetActive(ctx)
	require.NoError(t, err)

	require.NoError(t, f.fees.EnsureActive(ctx, feeDomain.Snapshot{CommissionRate: decimal.RequireFromString("0.2")}))

	after, err := f.fees.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
}

func TestFeeService_NilPointerCacheIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	svc := NewFeeService(repository.NewGormFeeSettingRepository(f.db), (*repository.RedisFeeCache)(nil), zap.NewNop())
	snap, err := svc.ActiveSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.07").Equal(snap.CommissionRate))

	_, err = svc.SetActive(ctx, authz.Admin(uuid.New()), SetFeeRequest{CommissionRate: decimal.RequireFromString("0.09")})
	require.NoError(t, err)
	snap, err = svc.ActiveSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.09").Equal(snap.CommissionRate))
}
