package application

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	feeDomain "github.com/localpro-market/service-booking/internal/domain/fee"
	"github.com/localpro-market/service-booking/internal/platform/domain"
	"github.com/localpro-market/service-booking/internal/platform/kafka"
	"github.com/localpro-market/service-booking/internal/repository"
)

const testOTP = "123456"

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type fixture struct {
	db        *gorm.DB
	uow       *repository.GormUnitOfWork
	publisher *recordingPublisher
	redis     *miniredis.Miniredis

	requests *RequestService
	offers   *OfferService
	bookings *BookingService
	payments *PaymentService
	fees     *FeeService
	disputes *DisputeService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "marketplace.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Models()...))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	mr := miniredis.RunT(t)
	client := repository.NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	log := zap.NewNop()
	pub := &recordingPublisher{}
	repos := repository.NewGormUnitOfWork(db)
	fees := NewFeeService(repository.NewGormFeeSettingRepository(db), repository.NewRedisFeeCache(client, time.Minute), log)
	require.NoError(t, fees.EnsureActive(context.Background(), feeDomain.Snapshot{CommissionRate: decimal.RequireFromString("0.07")}))

	return &fixture{
		db:        db,
		uow:       repos,
		publisher: pub,
		redis:     mr,
		requests:  NewRequestService(repos, pub, log),
		offers:    NewOfferService(repos, domain.DefaultCurrency, pub, log),
		bookings:  NewBookingService(repos, repository.NewGormListingReader(db), pub, log),
		payments:  NewPaymentService(repos, testOTP, pub, log),
		fees:      fees,
		disputes:  NewDisputeService(repos, pub, log),
	}
}

func (f *fixture) postRequest(t *testing.T, client authz.Actor) *RequestDTO {
	t.Helper()
	r, err := f.requests.CreateRequest(context.Background(), client, CreateRequestRequest{
		CategoryID:  uuid.New(),
		CityID:      uuid.New(),
		Title:       "Fix leaking kitchen sink",
		Description: "Water drips under the sink whenever the tap runs.",
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) sendOffer(t *testing.T, provider authz.Actor, requestID uuid.UUID, priceCents int64) *OfferDTO {
	t.Helper()
	o, err := f.offers.SubmitOffer(context.Background(), provider, requestID, SubmitOfferRequest{
		Message:            "I can come tomorrow morning with parts.",
		ProposedPriceCents: priceCents,
	})
	require.NoError(t, err)
	return o
}

// acceptedBooking posts a request, sends one offer and accepts it.
func (f *fixture) acceptedBooking(t *testing.T, client, provider authz.Actor, priceCents int64) *BookingDTO {
	t.Helper()
	r := f.postRequest(t, client)
	o := f.sendOffer(t, provider, r.ID, priceCents)
	bk, err := f.offers.AcceptOffer(context.Background(), client, o.ID)
	require.NoError(t, err)
	return bk
}

func requireCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.Truef(t, ok, "expected an AppError, got %v", err)
	require.Equal(t, code, appErr.Code, appErr.Error())
}
