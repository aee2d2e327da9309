package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields type is an alias for logrus.Fields
type Fields = logrus.Fields

// Logger is a wrapper around logrus.Logger
type Logger struct {
	*logrus.Logger
	module string
	fields Fields
}

// Configuration for the logger
type Config struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Module     string `mapstructure:"module"`
	File       string `mapstructure:"file"`
	Console    bool   `mapstructure:"console"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultLogPath is used when Config.File is empty
const DefaultLogPath = "/var/log/etlctl.log"

// New builds a logger from the provided configuration. Log lines go to the
// rotated log file and, when Console is set, also to stderr. If the log file
// cannot be opened the logger falls back to stderr alone.
func New(config Config) (*Logger, error) {
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %v", err)
	}

	base := logrus.New()
	base.SetLevel(level)

	if config.Format == "json" {
		base.SetFormatter(&logrus.JSONFormatter{
			CallerPrettyfier: callerPrettyfier,
			TimestampFormat:  "2006-01-02 15:04:05",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:          true,
			CallerPrettyfier:       callerPrettyfier,
			DisableSorting:         true,
			DisableLevelTruncation: true,
			PadLevelText:           true,
			TimestampFormat:        "2006-01-02 15:04:05",
		})
	}

	logPath := config.File
	if logPath == "" {
		logPath = DefaultLogPath
	}

	var outputs []io.Writer
	if config.Console {
		outputs = append(outputs, os.Stderr)
	}

	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err == nil {
		rotateLogger := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    config.MaxSize,
			MaxAge:     config.MaxAge,
			MaxBackups: config.MaxBackups,
			Compress:   config.Compress,
		}

		// lumberjack opens lazily, so probe the file before trusting it
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			f.Close()
			outputs = append(outputs, rotateLogger)
		} else if !config.Console {
			outputs = append(outputs, os.Stderr)
		}
	} else if !config.Console {
		outputs = append(outputs, os.Stderr)
	}

	switch len(outputs) {
	case 0:
		base.SetOutput(io.Discard)
	case 1:
		base.SetOutput(outputs[0])
	default:
		base.SetOutput(io.MultiWriter(outputs...))
	}

	base.SetReportCaller(true)

	return &Logger{
		Logger: base,
		module: config.Module,
	}, nil
}

// NewNop returns a logger that discards everything. Tests use it.
func NewNop() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{Logger: base}
}

// NewWithWriter returns a text logger writing to w at debug level.
func NewWithWriter(w io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	return &Logger{Logger: base}
}

// callerPrettyfier is used to format the caller information
func callerPrettyfier(f *runtime.Frame) (string, string) {
	pcs := make([]uintptr, 15)
	n := runtime.Callers(4, pcs)
	if n == 0 {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		// Skip logrus and our logger package frames
		if !strings.Contains(frame.File, "pkg/logger") &&
			!strings.Contains(frame.File, "sirupsen/logrus") {
			return "", fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}
		if !more {
			break
		}
	}

	return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}

// WithModule returns a logger sharing the same output tagged with module
func (l *Logger) WithModule(module string) *Logger {
	return &Logger{
		Logger: l.Logger,
		module: module,
		fields: l.fields,
	}
}

// With returns a logger that attaches fields to every entry
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{
		Logger: l.Logger,
		module: l.module,
		fields: merged,
	}
}

// Module returns the module name attached to log entries
func (l *Logger) Module() string {
	return l.module
}

// entry adds the module and sticky fields to the entry
func (l *Logger) entry(fields Fields) *logrus.Entry {
	all := make(Fields, len(l.fields)+len(fields)+1)
	for k, v := range l.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	if l.module != "" {
		all["module"] = l.module
	}
	return l.Logger.WithFields(all)
}

// Debug logs a message at the debug level
func (l *Logger) Debug(args ...any) {
	l.entry(nil).Debug(args...)
}

// Debugf logs a formatted message at the debug level
func (l *Logger) Debugf(format string, args ...any) {
	l.entry(nil).Debugf(format, args...)
}

// Info logs a message at the info level
func (l *Logger) Info(args ...any) {
	l.entry(nil).Info(args...)
}

// Infof logs a formatted message at the info level
func (l *Logger) Infof(format string, args ...any) {
	l.entry(nil).Infof(format, args...)
}

// Warn logs a message at the warn level
func (l *Logger) Warn(args ...any) {
	l.entry(nil).Warn(args...)
}

// Warnf logs a formatted message at the warn level
func (l *Logger) Warnf(format string, args ...any) {
	l.entry(nil).Warnf(format, args...)
}

// Error logs a message at the error level
func (l *Logger) Error(args ...any) {
	l.entry(nil).Error(args...)
}

// Errorf logs a formatted message at the error level
func (l *Logger) Errorf(format string, args ...any) {
	l.entry(nil).Errorf(format, args...)
}

// Fatal logs a message at the fatal level and then exits
func (l *Logger) Fatal(args ...any) {
	l.entry(nil).Fatal(args...)
}

// Fatalf logs a formatted message at the fatal level and then exits
func (l *Logger) Fatalf(format string, args ...any) {
	l.entry(nil).Fatalf(format, args...)
}

// WithFields adds fields to the logger
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.entry(fields)
}

// WithField adds a single field to the logger
func (l *Logger) WithField(key string, value any) *logrus.Entry {
	return l.entry(Fields{key: value})
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.entry(Fields{"error": err})
}
