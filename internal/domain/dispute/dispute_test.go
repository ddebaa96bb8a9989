package dispute

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

func TestDisputeLifecycle(t *testing.T) {
	d, err := NewDispute(uuid.New(), uuid.New(), auth.RoleClient, "Provider never showed up.")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, d.Status())

	assert.True(t, domain.IsCode(d.Resolve(uuid.New(), "  "), domain.CodeValidation))

	adminID := uuid.New()
	require.NoError(t, d.Resolve(adminID, "Refund issued to client."))
	assert.Equal(t, StatusResolved, d.Status())
	assert.Equal(t, adminID, *d.ResolvedBy())
	assert.NotNil(t, d.ResolvedAt())

	assert.True(t, domain.IsCode(d.Resolve(adminID, "again"), domain.CodeInvalidState))
}

func TestDisputeNeedsReason(t *testing.T) {
	_, err := NewDispute(uuid.New(), uuid.New(), auth.RoleProvider, "bad")
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}
