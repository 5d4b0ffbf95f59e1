package config

import "codeberg.org/mutker/measd/internal/logger"

// Option defines a configuration option that can be passed to Load
type Option func(*options)

// options holds internal configuration options
type options struct {
	configPath  string
	defaultPath string
	envPrefix   string
}

// WithConfigFile specifies an explicit configuration file path.
// The --config flag still takes precedence.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithDefaultConfigFile replaces the file read when no path is given.
// An empty path disables the fallback.
func WithDefaultConfigFile(path string) Option {
	return func(o *options) {
		o.defaultPath = path
	}
}

// WithEnvPrefix specifies a custom environment variable prefix
// Default is "MEASD"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	_, ok := logger.ParseLevel(string(l))
	return ok
}

// Level converts to the logger's level, defaulting to info.
func (l LogLevel) Level() logger.LogLevel {
	if level, ok := logger.ParseLevel(string(l)); ok {
		return level
	}
	return logger.InfoLevel
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}
