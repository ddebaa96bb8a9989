package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionStrings(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "svc", Password: "p@ss", DBName: "booking", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=svc password=p@ss dbname=booking sslmode=disable TimeZone=UTC", cfg.DSN())
	assert.Equal(t, "postgres://svc:p%40ss@db:5432/booking?sslmode=disable", cfg.DatabaseURL())
}
