package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/clinic-api/internal/config"
	"github.com/harentsoaR/clinic-api/internal/metrics"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedis(client)
}

func TestRedis_SetGetDelete(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	_, found, err := c.Get(ctx, "all_doctor_appointments_1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "all_doctor_appointments_1", []byte(`[{"id":"a"}]`), time.Hour))
	val, found, err := c.Get(ctx, "all_doctor_appointments_1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"a"}]`, string(val))
	assert.Equal(t, time.Hour, mr.TTL("all_doctor_appointments_1"))

	require.NoError(t, c.Delete(ctx, "all_doctor_appointments_1", "missing"))
	assert.False(t, mr.Exists("all_doctor_appointments_1"))
}

func TestRedis_Expiry(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_GetErrorWhenServerDown(t *testing.T) {
	mr, c := setupTestRedis(t)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr() + "/0", PoolSize: 5})
	require.NoError(t, err)
	defer client.Close()

	_, err = NewRedisClient(context.Background(), config.RedisConfig{URL: "not a url"})
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	buf := []byte("payload")
	require.NoError(t, c.Set(ctx, "k", buf, time.Hour))
	buf[0] = 'X'

	val, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "payload", string(val))

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, found, _ = c.Get(ctx, "short")
	assert.False(t, found)

	require.NoError(t, c.Delete(ctx, "k"))
	_, found, _ = c.Get(ctx, "k")
	assert.False(t, found)
}

func TestInstrumented(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	c := NewInstrumented(NewMemory(time.Minute), m)
	ctx := context.Background()

	_, _, _ = c.Get(ctx, "k")
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	_, _, _ = c.Get(ctx, "k")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}
