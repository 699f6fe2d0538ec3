package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg := fromViper(viper.New())

	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 900, cfg.RateLimit.WindowSecs)
	assert.Equal(t, "session", cfg.JWT.CookieName)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.NATS.Enabled())
	assert.Equal(t, "LEADS_INTAKE", cfg.NATS.IntakeStream)
	assert.Equal(t, 30*24*time.Hour, cfg.NATS.IntakeRetention())
}

func TestFromViper_LeeVariables(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", EnvProduction)
	v.Set("RATE_LIMIT_MAX", "10")
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("DEFAULT_TENANT_DOMAIN", "agencia.pl")

	cfg := fromViper(v)

	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "agencia.pl", cfg.Tenancy.DefaultTenantDomain)
}

func TestValidate_ProduccionSinVariablesEsFatal(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", EnvProduction)
	cfg := fromViper(v)

	_, err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DEFAULT_TENANT_DOMAIN")
}

func TestValidate_DesarrolloSoloAdvierte(t *testing.T) {
	cfg := fromViper(viper.New())

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)
}

func TestValidate_ProduccionCompleta(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", EnvProduction)
	v.Set("JWT_SECRET", "s3cret")
	v.Set("DATABASE_URL", "postgres://u:p@db:5432/leads")
	v.Set("DEFAULT_TENANT_DOMAIN", "agencia.pl")
	cfg := fromViper(v)

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "leads", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/leads?sslmode=disable", c.ConnectionString())
}
