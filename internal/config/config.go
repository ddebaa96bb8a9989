package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/localpro-market/service-booking/internal/platform/database"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

const envPrefix = "BOOKING"

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers []string
	GroupID string
}

// RedisConfig holds the fee cache connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	FeeTTL   time.Duration
}

// PaymentConfig holds settlement defaults.
type PaymentConfig struct {
	Currency              string
	OTPCode               string
	DefaultCommissionRate decimal.Decimal
	DefaultFixedFeeCents  *int64
}

// RateLimitConfig holds the per-caller limiter on mutating routes.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	MigrationsDir  string
	AllowedOrigins []string
	DBConfig       database.PostgresConfig
	JWTConfig      JWTConfig
	KafkaConfig    KafkaConfig
	RedisConfig    RedisConfig
	PaymentConfig  PaymentConfig
	RateLimit      RateLimitConfig
}

// Load reads configuration from BOOKING_* environment variables, after loading a .env file
// from the working directory when one exists.
func Load() (*ServiceConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	rate, err := decimal.NewFromString(v.GetString("PAYMENT_COMMISSION_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s_PAYMENT_COMMISSION_RATE: %w", envPrefix, err)
	}

	var fixedFee *int64
	if v.IsSet("PAYMENT_FIXED_FEE_CENTS") && v.GetString("PAYMENT_FIXED_FEE_CENTS") != "" {
		fee := v.GetInt64("PAYMENT_FIXED_FEE_CENTS")
		fixedFee = &fee
	}

	cfg := &ServiceConfig{
		Port:           v.GetString("SERVICE_PORT"),
		AppEnv:         v.GetString("APP_ENV"),
		MigrationsDir:  v.GetString("MIGRATIONS_DIR"),
		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTConfig: JWTConfig{
			Secret:   v.GetString("JWT_SECRET"),
			Issuer:   v.GetString("JWT_ISSUER"),
			TokenTTL: v.GetDuration("JWT_TOKEN_TTL"),
		},
		KafkaConfig: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			GroupID: v.GetString("KAFKA_GROUP_ID"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			FeeTTL:   v.GetDuration("REDIS_FEE_TTL"),
		},
		PaymentConfig: PaymentConfig{
			Currency:              v.GetString("PAYMENT_CURRENCY"),
			OTPCode:               v.GetString("PAYMENT_OTP_CODE"),
			DefaultCommissionRate: rate,
			DefaultFixedFeeCents:  fixedFee,
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if cfg.AppEnv == "production" && cfg.JWTConfig.Secret == defaultJWTSecret {
		return nil, fmt.Errorf("%s_JWT_SECRET must be set in production", envPrefix)
	}
	return cfg, nil
}

const defaultJWTSecret = "change-me"

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8003")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "marketplace_booking")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "localpro-market")
	v.SetDefault("JWT_TOKEN_TTL", "15m")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_ID", "service-booking")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_FEE_TTL", "5m")

	v.SetDefault("PAYMENT_CURRENCY", domain.DefaultCurrency)
	v.SetDefault("PAYMENT_OTP_CODE", "123456")
	v.SetDefault("PAYMENT_COMMISSION_RATE", "0.10")

	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
