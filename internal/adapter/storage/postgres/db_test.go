package postgres

import (
	"testing"
	"time"

	"b2b-wallet/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "testuser",
		Password:        "testpass",
		DBName:          "testdb",
		SSLMode:         "disable",
		MaxConns:        20,
		MinConns:        5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

func TestPoolConfig_AppliesPoolSettings(t *testing.T) {
	poolCfg, err := PoolConfig(testDatabaseConfig())
	require.NoError(t, err)

	assert.Equal(t, int32(20), poolCfg.MaxConns)
	assert.Equal(t, int32(5), poolCfg.MinConns)
	assert.Equal(t, 30*time.Minute, poolCfg.MaxConnLifetime)
	assert.Equal(t, "localhost", poolCfg.ConnConfig.Host)
	assert.Equal(t, "testdb", poolCfg.ConnConfig.Database)
}

func TestPoolConfig_LockTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    string
	}{
		{"unset waits indefinitely", 0, "0"},
		{"milliseconds", 750 * time.Millisecond, "750ms"},
		{"seconds", 2 * time.Second, "2000ms"},
		{"sub-millisecond rounds up", 10 * time.Microsecond, "1ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testDatabaseConfig()
			cfg.LockTimeout = tt.timeout

			poolCfg, err := PoolConfig(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, poolCfg.ConnConfig.RuntimeParams["lock_timeout"])
		})
	}
}

func TestPoolConfig_InvalidDSN(t *testing.T) {
	cfg := testDatabaseConfig()
	cfg.Port = -1

	_, err := PoolConfig(cfg)
	assert.Error(t, err)
}
