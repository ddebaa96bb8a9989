package offer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localpro-market/service-booking/internal/domain/authz"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

func intPtr(v int) *int { return &v }

func validTerms() Terms {
	return Terms{Message: "I can start tomorrow morning.", ProposedPriceCents: 12000, EstimatedDays: intPtr(2)}
}

func TestNewOffer(t *testing.T) {
	providerID := uuid.New()
	o, err := NewOffer(uuid.New(), providerID, validTerms())
	require.NoError(t, err)

	assert.Equal(t, StatusSent, o.Status())
	assert.Equal(t, int64(12000), o.ProposedPriceCents())
	assert.Equal(t, 2, *o.EstimatedDays())

	id, ok := o.PartyID(authz.RelationProvider)
	assert.True(t, ok)
	assert.Equal(t, providerID, id)
	_, ok = o.PartyID(authz.RelationClient)
	assert.False(t, ok)
}

func TestTermsValidation(t *testing.T) {
	cases := []struct {
		name  string
		terms Terms
		field string
	}{
		{"empty message", Terms{Message: "   ", ProposedPriceCents: 100}, "message"},
		{"short message", Terms{Message: "ok", ProposedPriceCents: 100}, "message"},
		{"negative price", Terms{Message: "A perfectly fine pitch", ProposedPriceCents: -1}, "proposed_price"},
		{"zero days", Terms{Message: "A perfectly fine pitch", EstimatedDays: intPtr(0)}, "estimated_days"},
		{"too many days", Terms{Message: "A perfectly fine pitch", EstimatedDays: intPtr(366)}, "estimated_days"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewOffer(uuid.New(), uuid.New(), tc.terms)
			appErr, ok := domain.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, domain.CodeValidation, appErr.Code)
			assert.Equal(t, tc.field, appErr.Field)
		})
	}

	_, err := NewOffer(uuid.New(), uuid.New(), Terms{Message: "Free of charge for neighbours", EstimatedDays: intPtr(365)})
	assert.NoError(t, err, "zero price and the upper day bound are allowed")
}

func TestReviseResetsToSent(t *testing.T) {
	o, err := NewOffer(uuid.New(), uuid.New(), validTerms())
	require.NoError(t, err)
	require.NoError(t, o.Reject())

	require.NoError(t, o.Revise(Terms{Message: "Lower price, same quality.", ProposedPriceCents: 9000}))
	assert.Equal(t, StatusSent, o.Status())
	assert.Equal(t, int64(9000), o.ProposedPriceCents())
	assert.Nil(t, o.EstimatedDays())
}

func TestAssignedOfferCannotBeRevised(t *testing.T) {
	o, err := NewOffer(uuid.New(), uuid.New(), validTerms())
	require.NoError(t, err)
	require.NoError(t, o.Assign())
	assert.True(t, o.IsAssigned())

	assert.True(t, domain.IsCode(o.Revise(validTerms()), domain.CodeInvalidState))
	assert.True(t, domain.IsCode(o.Reject(), domain.CodeInvalidState))
	assert.True(t, domain.IsCode(o.Assign(), domain.CodeInvalidState))

	require.NoError(t, o.Withdraw())
	assert.Equal(t, StatusWithdrawn, o.Status())
}

func TestOfferStatusTable(t *testing.T) {
	assert.True(t, StatusSent.CanTransitionTo(StatusRejected))
	assert.False(t, StatusRejected.CanTransitionTo(StatusAssigned))
	assert.False(t, StatusWithdrawn.CanTransitionTo(StatusAssigned))
	assert.True(t, StatusWithdrawn.CanTransitionTo(StatusSent))

	_, err := ParseOfferStatus("pending")
	assert.Error(t, err)
}
