package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
app:
  name: quotaflow-test
  addr: ":9090"

logger:
  level: debug
  encoding: console

redis:
  addr: "localhost:6379"
  db: 2

admission:
  enabled: true
  store_type: redis
  namespace: api
  warning_threshold: 0.75
  base_slowdown_delay: 500ms
  whitelist:
    - "user:admin"
  default:
    requests_per_minute: 100
  endpoints:
    - pattern: /api/upload
      requests_per_minute: 10
      bytes_per_hour: 104857600
    - pattern: /api/search
      requests_per_minute: 30
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "quotaflow-test", cfg.App.Name)
	assert.Equal(t, ":9090", cfg.App.Addr)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)

	adm := cfg.Admission
	assert.True(t, adm.Enabled)
	assert.Equal(t, "redis", adm.StoreType)
	assert.Equal(t, "api", adm.Namespace)
	assert.Equal(t, 0.75, adm.WarningThreshold)
	assert.Equal(t, 500*time.Millisecond, adm.BaseSlowdownDelay)
	assert.Equal(t, []string{"user:admin"}, adm.Whitelist)
	assert.EqualValues(t, 100, adm.Default.RequestsPerMinute)

	require.Len(t, adm.Endpoints, 2)
	assert.Equal(t, "/api/upload", adm.Endpoints[0].Pattern)
	assert.EqualValues(t, 10, adm.Endpoints[0].Policy.RequestsPerMinute)
	assert.EqualValues(t, 104857600, adm.Endpoints[0].Policy.BytesPerHour)
	assert.Equal(t, "/api/search", adm.Endpoints[1].Pattern)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "quotaflow", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.App.Addr)
	assert.False(t, cfg.Admission.Enabled)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeTempConfig(t, "admission: [not: a: map"))
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "quotaflow", cfg.App.Name)
	assert.Equal(t, 0.8, cfg.Admission.WarningThreshold)
	assert.Equal(t, time.Second, cfg.Admission.BaseSlowdownDelay)
}
