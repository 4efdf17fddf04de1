package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), testRedisConfig(t, mr), zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	opts := client.Options()
	assert.Equal(t, dialTimeout, opts.DialTimeout)
	assert.Equal(t, ioTimeout, opts.ReadTimeout)
	assert.Equal(t, ioTimeout, opts.WriteTimeout)
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testRedisConfig(t, mr)
	mr.Close()

	_, err := NewClient(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinging redis")
}

func TestHealthCheck_FollowsServer(t *testing.T) {
	client, mr := newTestClient(t)
	hc := NewHealthCheck(client)

	assert.Equal(t, "redis", hc.Name())
	require.NoError(t, hc.Ping(context.Background()))

	mr.Close()
	assert.Error(t, hc.Ping(context.Background()))
}
