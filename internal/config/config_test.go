package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngressFromEnv_RequiresBackends(t *testing.T) {
	t.Setenv("BACKENDS", "")
	_, err := IngressFromEnv()
	assert.Error(t, err)
}

func TestIngressFromEnv_SplitsAndTrimsBackends(t *testing.T) {
	t.Setenv("BACKENDS", "/tmp/a.sock, /tmp/b.sock ,/tmp/c.sock")
	cfg, err := IngressFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/a.sock", "/tmp/b.sock", "/tmp/c.sock"}, cfg.Backends)
	assert.Equal(t, 9999, cfg.ListenPort)
}

func TestGatewayFromEnv_RequiresAllVars(t *testing.T) {
	t.Setenv("GATEWAY_LISTEN_SOCKET", "")
	t.Setenv("GATEWAY_PUBLISH_SOCKET", "")
	t.Setenv("POSTGRES_URL", "")
	_, err := GatewayFromEnv()
	assert.Error(t, err)

	t.Setenv("GATEWAY_LISTEN_SOCKET", "/tmp/listen.sock")
	t.Setenv("GATEWAY_PUBLISH_SOCKET", "/tmp/publish.sock")
	t.Setenv("POSTGRES_URL", "postgres://localhost/db")
	cfg, err := GatewayFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/listen.sock", cfg.ListenSocket)
}

func TestWorkerFromEnv_DefaultsNumWorkersAndValidatesOverride(t *testing.T) {
	t.Setenv("LISTEN_PATH", "/tmp/worker.sock")
	t.Setenv("POSTGRES_URL", "postgres://localhost/db")
	t.Setenv("DEFAULT_PROCESSOR_URL", "http://default")
	t.Setenv("FALLBACK_PROCESSOR_URL", "http://fallback")
	t.Setenv("NUM_WORKERS", "")

	cfg, err := WorkerFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.NumWorkers)

	t.Setenv("NUM_WORKERS", "not-a-number")
	_, err = WorkerFromEnv()
	assert.Error(t, err)

	t.Setenv("NUM_WORKERS", "8")
	cfg, err = WorkerFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.NumWorkers)
}
