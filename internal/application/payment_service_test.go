package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	feeDomain "github.com/localpro-market/service-booking/internal/domain/fee"
	paymentDomain "github.com/localpro-market/service-booking/internal/domain/payment"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

func validCard() *paymentDomain.CardDetails {
	return &paymentDomain.CardDetails{
		Number:   "4242 4242 4242 4242",
		ExpMonth: 12,
		ExpYear:  time.Now().Year() + 2,
		CVC:      "123",
	}
}

func TestChoosePaymentMethod_FreezesCommissionSplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := authz.Client(uuid.New())
	bk := f.acceptedBooking(t, client, authz.Provider(uuid.New()), 100000)

	snap, err := f.fees.ActiveSnapshot(ctx)
	require.NoError(t, err)
	p, _, err := f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "cash"}, snap)
	require.NoError(t, err)

	assert.Equal(t, "pending", p.Status)
	assert.Equal(t, int64(100000), p.AmountCents)
	assert.Equal(t, int64(7000), p.PlatformFeeCents)
	assert.Equal(t, int64(93000), p.ProviderAmountCents)
	assert.True(t, decimal.RequireFromString("0.07").Equal(p.CommissionRate))

	// A later fee change does not touch the frozen split.
	_, err = f.fees.SetActive(ctx, authz.Admin(uuid.New()), SetFeeRequest{CommissionRate: decimal.RequireFromString("0.15")})
	require.NoError(t, err)

	got, err := f.payments.GetPayment(ctx, client, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), got.PlatformFeeCents)
	assert.Equal(t, int64(93000), got.ProviderAmountCents)
}

func TestChoosePaymentMethod_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := authz.Client(uuid.New())
	provider := authz.Provider(uuid.New())
	snap := feeDomain.Snapshot{CommissionRate: decimal.RequireFromString("0.10")}

	t.Run("only the client", func(t *testing.T) {
		bk := f.acceptedBooking(t, client, provider, 20000)
		_, _, err := f.payments.ChoosePaymentMethod(ctx, authz.Client(uuid.New()), bk.ID, ChoosePaymentRequest{PaymentType: "cash"}, snap)
		requireCode(t, err, domain.CodeForbidden)
		_, _, err = f.payments.ChoosePaymentMethod(ctx, provider, bk.ID, ChoosePaymentRequest{PaymentType: "cash"}, snap)
		requireCode(t, err, domain.CodeNotFound)
	})

	t.Run("access is checked before card details", func(t *testing.T) {
		bk := f.acceptedBooking(t, client, provider, 20000)
		bad := validCard()
		bad.CVC = "12"

		_, _, err := f.payments.ChoosePaymentMethod(ctx, authz.Client(uuid.New()), bk.ID, ChoosePaymentRequest{PaymentType: "online", Card: bad}, snap)
		requireCode(t, err, domain.CodeForbidden)
		_, _, err = f.payments.ChoosePaymentMethod(ctx, authz.Client(uuid.New()), bk.ID, ChoosePaymentRequest{PaymentType: "online"}, snap)
		requireCode(t, err, domain.CodeForbidden)
		_, _, err = f.payments.ChoosePaymentMethod(ctx, provider, bk.ID, ChoosePaymentRequest{PaymentType: "online", Card: bad}, snap)
		requireCode(t, err, domain.CodeNotFound)
		_, _, err = f.payments.ChoosePaymentMethod(ctx, authz.Client(uuid.New()), uuid.New(), ChoosePaymentRequest{PaymentType: "barter"}, snap)
		requireCode(t, err, domain.CodeNotFound)
	})

	t.Run("unknown type", func(t *testing.T) {
		bk := f.acceptedBooking(t, client, provider, 20000)
		_, _, err := f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "barter"}, snap)
		requireCode(t, err, domain.CodeValidation)
	})

	t.Run("online needs a valid card", func(t *testing.T) {
		bk := f.acceptedBooking(t, client, provider, 20000)
		_, _, err := f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "online"}, snap)
		requireCode(t, err, domain.CodeValidation)

		bad := validCard()
		bad.CVC = "12"
		_, _, err = f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "online", Card: bad}, snap)
		requireCode(t, err, domain.CodeValidation)
	})

	t.Run("cancelled booking is not payable", func(t *testing.T) {
		bk := f.acceptedBooking(t, client, provider, 20000)
		_, err := f.bookings.UpdateStatus(ctx, provider, bk.ID, UpdateStatusRequest{Status: "cancelled"})
		require.NoError(t, err)

		_, _, err = f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "cash"}, snap)
		requireCode(t, err, domain.CodeInvalidState)
		appErr, _ := domain.AsAppError(err)
		assert.Equal(t, "booking not payable", appErr.Message)
	})

	t.Run("same method resumes, a different one is refused", func(t *testing.T) {
		bk := f.acceptedBooking(t, client, provider, 20000)
		first, created, err := f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "online", Card: validCard()}, snap)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "4242", first.Metadata["card_last4"])
		assert.Equal(t, true, first.Metadata["otp_required"])
		assert.NotContains(t, first.Metadata, "number")

		again, created, err := f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "online", Card: validCard()}, snap)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)

		_, _, err = f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "cash"}, snap)
		requireCode(t, err, domain.CodeAlreadyExists)
	})
}

func TestConfirmOnlinePayment_LeavesBookingStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := authz.Client(uuid.New())
	provider := authz.Provider(uuid.New())
	bk := f.acceptedBooking(t, client, provider, 30000)

	snap, err := f.fees.ActiveSnapshot(ctx)
	require.NoError(t, err)
	_, _, err = f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "online", Card: validCard()}, snap)
	require.NoError(t, err)

	_, err = f.payments.ConfirmCashPayment(ctx, provider, bk.ID)
	requireCode(t, err, domain.CodeInvalidState)

	_, err = f.payments.ConfirmOnlinePayment(ctx, client, bk.ID, "000000")
	requireCode(t, err, domain.CodeInvalidOTP)

	_, err = f.payments.ConfirmOnlinePayment(ctx, authz.Client(uuid.New()), bk.ID, testOTP)
	requireCode(t, err, domain.CodeForbidden)

	paid, err := f.payments.ConfirmOnlinePayment(ctx, client, bk.ID, testOTP)
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)
	assert.NotNil(t, paid.PaidAt)
	assert.Equal(t, false, paid.Metadata["otp_required"])

	got, err := f.bookings.GetBooking(ctx, client, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)

	_, err = f.payments.ConfirmOnlinePayment(ctx, client, bk.ID, testOTP)
	requireCode(t, err, domain.CodeAlreadyConfirmed)

	_, _, err = f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "online", Card: validCard()}, snap)
	requireCode(t, err, domain.CodeAlreadyExists)
}

func TestConfirmCashPayment_ConfirmsPendingBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := authz.Client(uuid.New())
	provider := authz.Provider(uuid.New())
	bk := f.acceptedBooking(t, client, provider, 30000)

	_, err := f.payments.ConfirmCashPayment(ctx, provider, bk.ID)
	requireCode(t, err, domain.CodeNotFound)

	snap, err := f.fees.ActiveSnapshot(ctx)
	require.NoError(t, err)
	_, _, err = f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "cash"}, snap)
	require.NoError(t, err)

	_, err = f.payments.ConfirmCashPayment(ctx, client, bk.ID)
	requireCode(t, err, domain.CodeNotFound)

	_, err = f.payments.ConfirmOnlinePayment(ctx, client, bk.ID, testOTP)
	requireCode(t, err, domain.CodeInvalidState)

	f.publisher.reset()
	paid, err := f.payments.ConfirmCashPayment(ctx, provider, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)

	got, err := f.bookings.GetBooking(ctx, provider, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", got.Status)
	assert.NotNil(t, got.ConfirmedAt)

	assert.Contains(t, f.publisher.types(), "payment.paid")
	assert.Contains(t, f.publisher.types(), "booking.status_changed")

	_, err = f.payments.ConfirmCashPayment(ctx, provider, bk.ID)
	requireCode(t, err, domain.CodeAlreadyConfirmed)
}

func TestConfirmCashPayment_ConfirmedBookingStaysConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := authz.Client(uuid.New())
	provider := authz.Provider(uuid.New())
	bk := f.acceptedBooking(t, client, provider, 30000)

	_, err := f.bookings.UpdateStatus(ctx, provider, bk.ID, UpdateStatusRequest{Status: "confirmed"})
	require.NoError(t, err)

	snap, err := f.fees.ActiveSnapshot(ctx)
	require.NoError(t, err)
	_, _, err = f.payments.ChoosePaymentMethod(ctx, client, bk.ID, ChoosePaymentRequest{PaymentType: "cash"}, snap)
	require.NoError(t, err)

	_, err = f.payments.ConfirmCashPayment(ctx, provider, bk.ID)
	require.NoError(t, err)

	got, err := f.bookings.GetBooking(ctx, provider, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", got.Status)
}
