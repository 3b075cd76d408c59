// Package logger provides the process-wide log sink. Until Init is called
// every logger is a no-op.
package logger

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger = zap.NewNop()
	logFile      *lumberjack.Logger
	mu           sync.Mutex
)

// Rotation limits for the log file.
const (
	maxSizeMB  = 20
	maxBackups = 3
	maxAgeDays = 14
)

// Init initializes the global logger with the specified log file path at
// debug level.
func Init(logPath string) error {
	return InitWithLevel(logPath, "debug")
}

// InitWithLevel initializes the global logger writing JSON lines to logPath.
// Unknown levels fall back to info.
func InitWithLevel(logPath, level string) error {
	if logPath == "" {
		return fmt.Errorf("failed to create log file: empty path")
	}

	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.SetLevel(zap.InfoLevel)
	}

	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		_ = globalLogger.Sync()
		logFile.Close()
	}

	logFile = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(logFile), lvl)
	globalLogger = zap.New(core)

	return nil
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = globalLogger.Sync()
		logFile.Close()
		logFile = nil
	}
	globalLogger = zap.NewNop()
}

// Named returns a component logger. It is a no-op logger when Init has not
// been called.
func Named(name string) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger.Named(name)
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	sugar().Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	sugar().Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	sugar().Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	sugar().Warnf(format, v...)
}

// GetWriter returns the underlying writer for use by drivers.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}

func sugar() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger.Sugar()
}
