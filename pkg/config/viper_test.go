package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutFile(t *testing.T) {
	v, err := Load(t.TempDir(), "config")
	require.NoError(t, err)

	v.SetDefault("server.port", 8080)
	assert.Equal(t, 8080, v.GetInt("server.port"))
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "server:\n  port: 9000\nauth:\n  cache:\n    ttl: 45s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("CHAT_AUTH_ADDR", "auth:50051")

	v, err := Load(dir, "config")
	require.NoError(t, err)
	require.NoError(t, BindEnvs(v, "auth.grpc_address=CHAT_AUTH_ADDR"))

	assert.Equal(t, 9100, v.GetInt("server.port"))
	assert.Equal(t, "auth:50051", v.GetString("auth.grpc_address"))
	assert.Equal(t, 45*time.Second, Duration(v, "auth.cache.ttl", time.Minute))
	assert.Equal(t, time.Minute, Duration(v, "auth.cache.missing", time.Minute))
}

func TestBindEnvsRejectsMalformedPair(t *testing.T) {
	v, err := Load(t.TempDir(), "config")
	require.NoError(t, err)
	assert.Error(t, BindEnvs(v, "no-equals-sign"))
}
