package logger

// ManagerConfig global logger configuration shared by all modules.
type ManagerConfig struct {
	// Level minimum level: debug, info, warn, error
	Level string `mapstructure:"level"`

	// AppName injected into every log line
	AppName string `mapstructure:"app_name"`

	// Encoding output encoding: json or console
	Encoding string `mapstructure:"encoding"`

	// EnableConsole write to stdout
	EnableConsole bool `mapstructure:"enable_console"`

	// EnableFile write per-module rotated files under BaseLogDir
	EnableFile bool `mapstructure:"enable_file"`

	// BaseLogDir log root directory
	BaseLogDir string `mapstructure:"base_log_dir"`

	// Rotation settings (lumberjack)
	MaxSize    int  `mapstructure:"max_size"`    // MB per file
	MaxBackups int  `mapstructure:"max_backups"` // old files kept
	MaxAge     int  `mapstructure:"max_age"`     // days kept
	Compress   bool `mapstructure:"compress"`
}

// DefaultManagerConfig returns the default logger configuration.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Level:         "info",
		Encoding:      "json",
		EnableConsole: true,
		EnableFile:    false,
		BaseLogDir:    "logs",
		MaxSize:       100,
		MaxBackups:    5,
		MaxAge:        14,
	}
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *ManagerConfig) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Encoding == "" {
		c.Encoding = "json"
	}
	if c.BaseLogDir == "" {
		c.BaseLogDir = "logs"
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 100
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 5
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 14
	}
}
