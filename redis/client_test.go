package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotaflow/quotaflow/logger"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	log := logger.GetLogger("redis-test")

	client, err := Connect(Config{Addr: mr.Addr()}, log)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestConnect_Errors(t *testing.T) {
	log := logger.GetLogger("redis-test")

	_, err := Connect(Config{Addr: "localhost:6379"}, nil)
	assert.Error(t, err, "nil logger rejected")

	_, err = Connect(Config{}, log)
	assert.Error(t, err, "empty addr rejected")

	_, err = Connect(Config{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond}, log)
	assert.Error(t, err, "unreachable backend fails the ping")
}

func TestHealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	log := logger.GetLogger("redis-test")

	client, err := Connect(Config{Addr: mr.Addr()}, log)
	require.NoError(t, err)
	defer client.Close()

	probe := HealthCheck(client)
	assert.NoError(t, probe(context.Background()))

	mr.Close()
	assert.Error(t, probe(context.Background()))
}
