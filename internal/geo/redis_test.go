//go:build integration

package geo

import (
	"context"
	"testing"
	"time"

	"github.com/inhahackathon/foodmarket/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:8-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cont.Terminate(ctx) })

	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return host + ":" + port.Port()
}

func TestRedisCache(t *testing.T) {
	rdb := NewRedisClient(config.RedisConfig{Addr: startRedis(t)})
	defer rdb.Close()
	cache := NewRedisCache(rdb)

	_, err := cache.Get(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(t.Context(), "geo:address:1.00000,2.00000", "용현동", time.Minute))
	value, err := cache.Get(t.Context(), "geo:address:1.00000,2.00000")
	require.NoError(t, err)
	assert.Equal(t, "용현동", value)
}
