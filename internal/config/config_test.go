package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("VNPAY_API_URL", "")
	t.Setenv("VNPAY_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "https://api.vnpay.com/v1", cfg.Gateway.APIURL)
	assert.Equal(t, "2016-03-07", cfg.Gateway.APIVersion)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.True(t, cfg.App.RunMigrations)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "*/5 * * * *", cfg.Worker.CallbackRetryCron)
	assert.Equal(t, 100, cfg.Worker.CallbackRetryLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VNPAY_API_URL", "http://localhost:12111/v1")
	t.Setenv("VNPAY_TIMEOUT", "5s")
	t.Setenv("WORKER_CONCURRENCY", "3")
	t.Setenv("APP_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:12111/v1", cfg.Gateway.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 3, cfg.Worker.Concurrency)
	assert.False(t, cfg.App.RunMigrations)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "many")
	t.Setenv("VNPAY_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Worker.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
}

func TestValidate_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoadDatabaseConfig(t *testing.T) {
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_CONNECT_TIMEOUT", "3s")

	dbCfg, err := LoadDatabaseConfig()
	require.NoError(t, err)
	assert.Equal(t, 6543, dbCfg.Port)
	assert.Equal(t, 3*time.Second, dbCfg.ConnectTimeout)
	assert.Equal(t, "disable", dbCfg.SSLMode)

	t.Setenv("DB_RETRY_DELAY", "later")
	_, err = LoadDatabaseConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_RETRY_DELAY")
}
