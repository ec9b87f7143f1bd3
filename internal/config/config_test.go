package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "wanderlust", cfg.MongoDB)
	assert.Equal(t, "WanderLust-Airbnb-Clone", cfg.GeocodeUserAgent)
	assert.Equal(t, time.Second, cfg.SeedDelay)
	assert.False(t, cfg.MongoTransactions)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/wanderlust?sslmode=disable")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("SEED_DELAY", "250ms")
	t.Setenv("MONGO_TRANSACTIONS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.SeedDelay)
	assert.True(t, cfg.MongoTransactions)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORE_DRIVER": "redis", "JWT_SECRET": "s"}},
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres", "JWT_SECRET": "s"}},
		{"missing secret", map[string]string{"STORE_DRIVER": "mongo"}},
		{"bad delay", map[string]string{"SEED_DELAY": "soon", "JWT_SECRET": "s"}},
		{"bad bool", map[string]string{"MONGO_TRANSACTIONS": "maybe", "JWT_SECRET": "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestMemoryDriverRequiresSecret(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
