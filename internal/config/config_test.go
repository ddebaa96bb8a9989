package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8003", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 5432, cfg.DBConfig.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.RedisConfig.FeeTTL)
	assert.Equal(t, "DZD", cfg.PaymentConfig.Currency)
	assert.True(t, cfg.PaymentConfig.DefaultCommissionRate.Equal(decimal.RequireFromString("0.10")))
	assert.Nil(t, cfg.PaymentConfig.DefaultFixedFeeCents)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOOKING_SERVICE_PORT", "9000")
	t.Setenv("BOOKING_DB_HOST", "db.internal")
	t.Setenv("BOOKING_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("BOOKING_PAYMENT_COMMISSION_RATE", "0.07")
	t.Setenv("BOOKING_PAYMENT_FIXED_FEE_CENTS", "50")
	t.Setenv("BOOKING_RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "db.internal", cfg.DBConfig.Host)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaConfig.Brokers)
	assert.True(t, cfg.PaymentConfig.DefaultCommissionRate.Equal(decimal.RequireFromString("0.07")))
	require.NotNil(t, cfg.PaymentConfig.DefaultFixedFeeCents)
	assert.Equal(t, int64(50), *cfg.PaymentConfig.DefaultFixedFeeCents)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
}

func TestLoadRejectsBadCommissionRate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOOKING_PAYMENT_COMMISSION_RATE", "seven percent")

	_, err := Load()
	assert.Error(t, err)
}

func TestProductionRequiresSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOOKING_APP_ENV", "production")

	_, err := Load()
	assert.Error(t, err)
}

func TestCurrencyIsConfigurable(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOOKING_PAYMENT_CURRENCY", "EUR")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.PaymentConfig.Currency)
}
