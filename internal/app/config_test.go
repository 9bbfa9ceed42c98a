package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-logistics/internal/platform/kv"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if prev, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, prev) })
		}
		_ = os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	unsetEnv(t, "APP_ENV", "APP_ADDR", "STORE_DRIVER", "KAFKA_BROKERS", "RATE_LIMIT_PER_MINUTE", "TIMEZONE", "WORKER_METRICS_ADDR")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, kv.DriverMemory, cfg.StoreDriver)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, ":9091", cfg.WorkerMetricsAddr)
	assert.Equal(t, "Asia/Bangkok", cfg.Location().String())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigParsesLists(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	store := cfg.StoreConfig()
	assert.Equal(t, kv.DriverRedis, store.Driver)
	assert.Equal(t, "redis:6379", store.RedisAddr)
	assert.Equal(t, "odyssey", store.KeyPrefix)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = LoadConfig()
	require.Error(t, err)

	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-1")
	_, err = LoadConfig()
	require.Error(t, err)
}
