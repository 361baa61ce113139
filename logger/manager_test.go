package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_GetLoggerCachesPerModule(t *testing.T) {
	m := NewManager(ManagerConfig{EnableConsole: true})

	first := m.GetLogger("admission")
	second := m.GetLogger("admission")
	other := m.GetLogger("redis")

	assert.Same(t, first, second, "same module returns the same instance")
	assert.NotSame(t, first, other)
}

func TestManager_FileOutput(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(ManagerConfig{
		Level:      "debug",
		AppName:    "quotaflow",
		EnableFile: true,
		BaseLogDir: dir,
	})

	log := m.GetLogger("admission")
	log.Info("counter store initialized", zap.String("store_type", "memory"))
	m.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "admission.log"))
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "counter store initialized")
	assert.Contains(t, content, `"module":"admission"`)
	assert.Contains(t, content, `"app_name":"quotaflow"`)
	assert.Contains(t, content, `"store_type":"memory"`)
}

func TestManager_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(ManagerConfig{
		Level:      "warn",
		EnableFile: true,
		BaseLogDir: dir,
	})

	log := m.GetLogger("admission")
	log.Debug("dropped")
	log.Info("dropped too")
	log.Warn("kept")
	m.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "admission.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestManager_NoSinksFallsBackToNop(t *testing.T) {
	m := NewManager(ManagerConfig{EnableConsole: false, EnableFile: false})
	log := m.GetLogger("admission")
	require.NotNil(t, log)
	log.Info("goes nowhere")
}

func TestCtxZapLogger_With(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(ManagerConfig{EnableFile: true, BaseLogDir: dir})

	log := m.GetLogger("guard").With(zap.String("identity", "u1"))
	log.Info("admitted")
	m.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "guard.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"identity":"u1"`)
}
