package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CLINIC_JWT_SECRET", "test-secret")
	t.Setenv("CLINIC_MONGO_DATABASE", "clinic_test")
	t.Setenv("CLINIC_CACHE_APPOINTMENT_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "clinic_test", cfg.Mongo.Database)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 90*time.Second, cfg.Cache.AppointmentTTL)
	assert.Equal(t, time.Hour, cfg.Cache.ReviewTTL)
	assert.Empty(t, cfg.Redis.URL)
	assert.False(t, cfg.Mongo.Transactions)
}

func TestLoadRequiresSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CLINIC_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Mongo: MongoConfig{URI: "mongodb://localhost:27017", Database: "clinic"},
		JWT:   JWTConfig{Secret: "s"},
		Cache: CacheConfig{AppointmentTTL: 0},
	}
	assert.Error(t, cfg.Validate())

	cfg.Cache.AppointmentTTL = time.Hour
	assert.Error(t, cfg.Validate(), "review ttl unset")

	cfg.Cache.ReviewTTL = time.Hour
	assert.NoError(t, cfg.Validate())
}
