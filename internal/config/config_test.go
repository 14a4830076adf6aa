package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("GO_ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.GoEnv)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "agrikonnect", cfg.DBName)
}

func TestLoad_JWTSecretRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN_FromParts(t *testing.T) {
	cfg := Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "app",
		DBPassword: "pw",
		DBName:     "agrikonnect",
		DBSSLMode:  "disable",
	}

	assert.Equal(t,
		"host=db port=5433 user=app password=pw dbname=agrikonnect sslmode=disable",
		cfg.DSN())
}

func TestDSN_DatabaseURLWins(t *testing.T) {
	cfg := Config{
		DatabaseURL: "postgres://app:pw@db:5432/agrikonnect",
		DBHost:      "ignored",
	}

	assert.Equal(t, "postgres://app:pw@db:5432/agrikonnect", cfg.DSN())
}
