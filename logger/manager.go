package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager creates and caches one CtxZapLogger per module.
type Manager struct {
	baseConfig ManagerConfig
	loggers    map[string]*CtxZapLogger
	mu         sync.RWMutex
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// NewManager creates an independent Manager instance. Zero-valued config
// fields are filled with defaults.
func NewManager(cfg ManagerConfig) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		baseConfig: cfg,
		loggers:    make(map[string]*CtxZapLogger),
	}
}

// InitManager initializes the global manager (first call wins).
func InitManager(cfg ManagerConfig) {
	managerOnce.Do(func() {
		globalManager = NewManager(cfg)
	})
}

// GetLogger returns the module logger from the global manager, initializing
// the manager with defaults when needed.
func GetLogger(module string) *CtxZapLogger {
	InitManager(DefaultManagerConfig())
	return globalManager.GetLogger(module)
}

// GetLogger returns the CtxZapLogger for a module, creating it on demand.
// The returned logger already carries the module field.
func (m *Manager) GetLogger(module string) *CtxZapLogger {
	m.mu.RLock()
	if logger, exists := m.loggers[module]; exists {
		m.mu.RUnlock()
		return logger
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// double check
	if logger, exists := m.loggers[module]; exists {
		return logger
	}

	base := m.createLogger(module).With(zap.String("module", module))
	logger := &CtxZapLogger{
		base:    base.WithOptions(zap.AddCallerSkip(1)),
		module:  module,
		appName: m.baseConfig.AppName,
	}
	m.loggers[module] = logger

	return logger
}

// createLogger builds the underlying zap.Logger for a module.
func (m *Manager) createLogger(module string) *zap.Logger {
	level := zapcore.InfoLevel
	_ = level.Set(m.baseConfig.Level)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if m.baseConfig.Encoding == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	cores := make([]zapcore.Core, 0, 2)

	if m.baseConfig.EnableConsole {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	if m.baseConfig.EnableFile {
		writer := &lumberjack.Logger{
			Filename:   filepath.Join(m.baseConfig.BaseLogDir, module+".log"),
			MaxSize:    m.baseConfig.MaxSize,
			MaxBackups: m.baseConfig.MaxBackups,
			MaxAge:     m.baseConfig.MaxAge,
			Compress:   m.baseConfig.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(writer), level))
	}

	if len(cores) == 0 {
		return zap.NewNop()
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// Sync flushes all cached loggers.
func (m *Manager) Sync() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, logger := range m.loggers {
		_ = logger.base.Sync()
	}
}
