package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	bookingDomain "github.com/localpro-market/service-booking/internal/domain/booking"
	feeDomain "github.com/localpro-market/service-booking/internal/domain/fee"
	offerDomain "github.com/localpro-market/service-booking/internal/domain/offer"
	paymentDomain "github.com/localpro-market/service-booking/internal/domain/payment"
	requestDomain "github.com/localpro-market/service-booking/internal/domain/request"
	"github.com/localpro-market/service-booking/internal/domain/uow"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "repo.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func newOpenRequest(t *testing.T) *requestDomain.Request {
	t.Helper()
	r, err := requestDomain.NewRequest(uuid.New(), uuid.New(), uuid.New(),
		"Assemble a wardrobe", "Flat-pack wardrobe, two doors, tools available.", nil, nil, "", "")
	require.NoError(t, err)
	return r
}

func newSentOffer(t *testing.T, requestID uuid.UUID) *offerDomain.Offer {
	t.Helper()
	o, err := offerDomain.NewOffer(requestID, uuid.New(), offerDomain.Terms{
		Message:            "I can do it this weekend.",
		ProposedPriceCents: 12000,
	})
	require.NoError(t, err)
	return o
}

func TestRequestRepository_OptimisticLock(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormRequestRepository(db)
	ctx := context.Background()

	r := newOpenRequest(t)
	require.NoError(t, repo.Save(ctx, r))

	first, err := repo.FindByID(ctx, r.ID())
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, r.ID())
	require.NoError(t, err)

	require.NoError(t, first.Assign())
	first.IncrementVersion()
	require.NoError(t, repo.Update(ctx, first))

	require.NoError(t, second.Cancel())
	second.IncrementVersion()
	err = repo.Update(ctx, second)
	assert.True(t, domain.IsCode(err, domain.CodeConflict))

	got, err := repo.FindByID(ctx, r.ID())
	require.NoError(t, err)
	assert.Equal(t, requestDomain.StatusAssigned, got.Status())
	assert.Equal(t, int64(2), got.Version())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestOfferRepository(t *testing.T) {
	db := openTestDB(t)
	requests := NewGormRequestRepository(db)
	repo := NewGormOfferRepository(db)
	ctx := context.Background()

	r := newOpenRequest(t)
	require.NoError(t, requests.Save(ctx, r))

	o1 := newSentOffer(t, r.ID())
	o2 := newSentOffer(t, r.ID())
	o3 := newSentOffer(t, r.ID())
	for _, o := range []*offerDomain.Offer{o1, o2, o3} {
		require.NoError(t, repo.Save(ctx, o))
	}

	t.Run("one offer per provider and request", func(t *testing.T) {
		dup, err := offerDomain.NewOffer(r.ID(), o1.ProviderID(), offerDomain.Terms{Message: "Second attempt at this.", ProposedPriceCents: 1})
		require.NoError(t, err)
		err = repo.Save(ctx, dup)
		assert.True(t, domain.IsCode(err, domain.CodeConflict))

		found, err := repo.FindByRequestAndProvider(ctx, r.ID(), o1.ProviderID())
		require.NoError(t, err)
		assert.Equal(t, o1.ID(), found.ID())

		_, err = repo.FindByRequestAndProvider(ctx, r.ID(), uuid.New())
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	})

	t.Run("reject sent siblings", func(t *testing.T) {
		require.NoError(t, o3.Withdraw())
		o3.IncrementVersion()
		require.NoError(t, repo.Update(ctx, o3))

		ids, err := repo.RejectSent(ctx, r.ID(), o1.ID())
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{o2.ID()}, ids)

		offers, err := repo.FindByRequestID(ctx, r.ID())
		require.NoError(t, err)
		statuses := map[uuid.UUID]offerDomain.OfferStatus{}
		for _, o := range offers {
			statuses[o.ID()] = o.Status()
		}
		assert.Equal(t, offerDomain.StatusSent, statuses[o1.ID()])
		assert.Equal(t, offerDomain.StatusRejected, statuses[o2.ID()])
		assert.Equal(t, offerDomain.StatusWithdrawn, statuses[o3.ID()])

		ids, err = repo.RejectSent(ctx, r.ID(), o1.ID())
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("provider listing", func(t *testing.T) {
		offers, total, err := repo.FindByProviderID(ctx, o2.ProviderID(), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, offers, 1)
		assert.Equal(t, int64(2), offers[0].Version())
	})
}

func TestPaymentRepository(t *testing.T) {
	db := openTestDB(t)
	bookings := NewGormBookingRepository(db)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	bk, err := bookingDomain.NewOfferBooking(uuid.New(), uuid.New(), uuid.New(), 100000, "DZD", nil)
	require.NoError(t, err)
	require.NoError(t, bookings.Save(ctx, bk))

	fixed := int64(50)
	snap := feeDomain.Snapshot{CommissionRate: decimal.RequireFromString("0.07"), FixedFeeCents: &fixed}
	card := paymentDomain.CardDetails{Number: "5555555555554444", ExpMonth: 1, ExpYear: time.Now().Year() + 1, CVC: "321"}
	p, err := paymentDomain.NewPayment(bk.ID(), paymentDomain.TypeOnline, bk.TotalAmountCents(), "DZD", snap, card.MaskedMetadata())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	other, err := paymentDomain.NewPayment(bk.ID(), paymentDomain.TypeCash, bk.TotalAmountCents(), "DZD", snap, nil)
	require.NoError(t, err)
	err = repo.Save(ctx, other)
	assert.True(t, domain.IsCode(err, domain.CodeAlreadyExists))

	got, err := repo.FindByBookingID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(7050), got.PlatformFeeCents())
	assert.Equal(t, int64(92950), got.ProviderAmountCents())
	assert.True(t, snap.CommissionRate.Equal(got.CommissionRate()))
	require.NotNil(t, got.FixedFeeCents())
	assert.Equal(t, fixed, *got.FixedFeeCents())
	assert.Equal(t, "4444", got.Metadata()["card_last4"])

	require.NoError(t, got.MarkPaid(paymentDomain.TypeOnline))
	got.IncrementVersion()
	require.NoError(t, repo.Update(ctx, got))

	paid, err := repo.FindByBookingID(ctx, bk.ID())
	require.NoError(t, err)
	assert.True(t, paid.IsPaid())
	assert.NotNil(t, paid.PaidAt())
	assert.Equal(t, false, paid.Metadata()["otp_required"])

	_, err = repo.FindByBookingID(ctx, uuid.New())
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestBookingRepository_FindByOfferAndNumber(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormBookingRepository(db)
	ctx := context.Background()

	offerID := uuid.New()
	scheduled := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	bk, err := bookingDomain.NewOfferBooking(offerID, uuid.New(), uuid.New(), 5000, "DZD", &scheduled)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, bk))

	byOffer, err := repo.FindByOfferID(ctx, offerID)
	require.NoError(t, err)
	assert.Equal(t, bk.ID(), byOffer.ID())
	assert.Equal(t, bookingDomain.SourceRequestOffer, byOffer.Source())
	require.NotNil(t, byOffer.ScheduledAt())
	assert.True(t, scheduled.Equal(*byOffer.ScheduledAt()))

	byNumber, err := repo.FindByNumber(ctx, bk.BookingNumber())
	require.NoError(t, err)
	assert.Equal(t, bk.ID(), byNumber.ID())

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["pending"])
}

func TestUnitOfWork(t *testing.T) {
	db := openTestDB(t)
	u := NewGormUnitOfWork(db)
	ctx := context.Background()

	t.Run("rollback discards every write", func(t *testing.T) {
		r := newOpenRequest(t)
		boom := errors.New("boom")
		err := u.Do(ctx, func(repos uow.Repositories) error {
			if err := repos.Requests().Save(ctx, r); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = u.Requests().FindByID(ctx, r.ID())
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	})

	t.Run("nested failure keeps the outer scope", func(t *testing.T) {
		outer := newOpenRequest(t)
		inner := newOpenRequest(t)
		err := u.Do(ctx, func(repos uow.Repositories) error {
			if err := repos.Requests().Save(ctx, outer); err != nil {
				return err
			}
			nestedErr := repos.Do(ctx, func(nested uow.Repositories) error {
				if err := nested.Requests().Save(ctx, inner); err != nil {
					return err
				}
				return errors.New("nested failure")
			})
			assert.Error(t, nestedErr)
			return nil
		})
		require.NoError(t, err)

		_, err = u.Requests().FindByID(ctx, outer.ID())
		assert.NoError(t, err)
		_, err = u.Requests().FindByID(ctx, inner.ID())
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	})
}

func TestFeeSettingRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormFeeSettingRepository(db)
	ctx := context.Background()

	_, err := repo.FindActive(ctx)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))

	first, err := feeDomain.NewSetting(decimal.RequireFromString("0.05"), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Activate(ctx, first))

	second, err := feeDomain.NewSetting(decimal.RequireFromString("0.08"), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Activate(ctx, second))

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID(), active.ID())

	var count int64
	require.NoError(t, db.Model(&FeeSettingModel{}).Where("active = ?", true).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRedisFeeCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0)
	defer client.Close()
	cache := NewRedisFeeCache(client, time.Minute)
	ctx := context.Background()

	miss, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, miss)

	fixed := int64(100)
	require.NoError(t, cache.Set(ctx, feeDomain.Snapshot{CommissionRate: decimal.RequireFromString("0.07"), FixedFeeCents: &fixed}))

	hit, err := cache.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "0.07", hit.CommissionRate.String())
	assert.Equal(t, fixed, *hit.FixedFeeCents)

	mr.FastForward(2 * time.Minute)
	expired, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, expired)

	require.NoError(t, cache.Set(ctx, *hit))
	require.NoError(t, cache.Invalidate(ctx))
	gone, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.NoError(t, cache.Ping(ctx))
}
