package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with engine context.
type Logger struct {
	logger zerolog.Logger
}

// New creates a new logger instance with configuration.
func New(cfg *Config) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" {
		zl = newConsoleLogger(cfg)
	} else {
		zl = zerolog.New(outputWriter(cfg.Output))
	}
	zl = zl.Level(level)

	if cfg.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}
	if cfg.Caller {
		zl = zl.With().Caller().Logger()
	}

	return &Logger{logger: zl}
}

// NewDefault creates a logger with default configuration.
func NewDefault() *Logger {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return New(cfg)
}

// NewFromEnv creates a logger configured from environment variables.
func NewFromEnv() *Logger {
	cfg := &Config{
		Level:   getEnvOrDefault("WIREKIT_LOG_LEVEL", "info"),
		Format:  getEnvOrDefault("WIREKIT_LOG_FORMAT", "console"),
		Output:  getEnvOrDefault("WIREKIT_LOG_OUTPUT", "stdout"),
		NoColor: getEnvOrDefault("WIREKIT_LOG_NO_COLOR", "false") == "true",
	}
	cfg.ApplyDefaults()
	return New(cfg)
}

// Nop returns a logger that discards everything. Engine components accept it
// when the caller wants no logging at all.
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{logger: l.logger.With().Str(FieldComponent, name).Logger()}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zc := l.logger.With()
	for k, v := range fields {
		zc = zc.Interface(k, v)
	}
	return &Logger{logger: zc.Logger()}
}

// WithError returns a logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// GetLogger returns the underlying zerolog.Logger.
func (l *Logger) GetLogger() zerolog.Logger {
	return l.logger
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	event := l.logger.Debug()
	addFields(event, fields...)
	event.Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	event := l.logger.Info()
	addFields(event, fields...)
	event.Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	event := l.logger.Warn()
	addFields(event, fields...)
	event.Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	event := l.logger.Error()
	addFields(event, fields...)
	event.Msg(msg)
}

// --- Global logger ---

var globalLogger *Logger

// SetGlobalLogger sets the global logger instance.
func SetGlobalLogger(l *Logger) { globalLogger = l }

// GetGlobalLogger returns the global logger, creating a default one if needed.
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewDefault()
	}
	return globalLogger
}

// Package-level convenience functions delegate to the global logger.

func Debug(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...map[string]interface{}) {
	GetGlobalLogger().Error(msg, fields...)
}

// WithComponent returns a component-tagged logger from the global logger.
func WithComponent(name string) *Logger {
	return GetGlobalLogger().WithComponent(name)
}

// --- internal helpers ---

func addFields(event *zerolog.Event, fields ...map[string]interface{}) {
	for _, fm := range fields {
		for k, v := range fm {
			event.Interface(k, v)
		}
	}
}

func outputWriter(output string) *os.File {
	switch strings.ToLower(output) {
	case "stderr":
		return os.Stderr
	default:
		return os.Stdout
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func newConsoleLogger(cfg *Config) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        outputWriter(cfg.Output),
		TimeFormat: "15:04:05",
		NoColor:    cfg.NoColor,
		FormatLevel: func(i interface{}) string {
			lvl := strings.ToUpper(fmt.Sprintf("%s", i))
			switch lvl {
			case "DEBUG":
				return "[DBG]"
			case "INFO":
				return "[INF]"
			case "WARN":
				return "[WRN]"
			case "ERROR":
				return "[ERR]"
			case "FATAL":
				return "[FTL]"
			default:
				return fmt.Sprintf("[%s]", lvl)
			}
		},
	})
}
