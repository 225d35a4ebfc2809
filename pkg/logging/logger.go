// Package logging is the concrete zap+lumberjack implementation of the
// node's log.Logger interface, adapted from the teacher's module-routing
// logger but collapsed to a single rotated stream: this node is one
// subsystem, not a multi-service platform, so per-module file routing
// would be ceremony without payoff.
package logging

import (
	"fmt"
	"os"
	"sync"

	logiface "github.com/sudo696/ring/pkg/interfaces/infrastructure/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level, destination, and rotation.
type Config struct {
	Level      logiface.Level
	FilePath   string // "stdout", "stderr", or a file path
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Caller     bool
}

func DefaultConfig() Config {
	return Config{
		Level:      logiface.InfoLevel,
		FilePath:   "stdout",
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Compress:   true,
		Caller:     true,
	}
}

func zapLevel(l logiface.Level) zapcore.Level {
	switch l {
	case logiface.DebugLevel:
		return zapcore.DebugLevel
	case logiface.WarnLevel:
		return zapcore.WarnLevel
	case logiface.ErrorLevel:
		return zapcore.ErrorLevel
	case logiface.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger implements log.Logger over a zap.SugaredLogger.
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

var _ logiface.Logger = (*Logger)(nil)

// New builds a Logger from Config.
func New(cfg Config) (*Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	var writer zapcore.WriteSyncer
	switch cfg.FilePath {
	case "", "stdout":
		writer = zapcore.AddSync(os.Stdout)
	case "stderr":
		writer = zapcore.AddSync(os.Stderr)
	default:
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}

	core := zapcore.NewCore(consoleEncoder, writer, zap.NewAtomicLevelAt(zapLevel(cfg.Level)))

	opts := []zap.Option{}
	if cfg.Caller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	zapLogger := zap.New(core, opts...)
	return &Logger{zapLogger: zapLogger, sugar: zapLogger.Sugar()}, nil
}

func (l *Logger) Debug(msg string)                           { l.sugar.Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{})  { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(msg string)                            { l.sugar.Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})   { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(msg string)                            { l.sugar.Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})   { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(msg string)                           { l.sugar.Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{})  { l.sugar.Errorf(format, args...) }
func (l *Logger) Fatal(msg string)                           { l.sugar.Fatal(msg) }
func (l *Logger) Fatalf(format string, args ...interface{})  { l.sugar.Fatalf(format, args...) }

func (l *Logger) With(args ...interface{}) logiface.Logger {
	return &Logger{
		zapLogger: l.zapLogger.With(toZapFields(args...)...),
		sugar:     l.sugar.With(args...),
	}
}

func (l *Logger) Sync() error { return l.zapLogger.Sync() }

func (l *Logger) GetZapLogger() *zap.Logger { return l.zapLogger }

func toZapFields(args ...interface{}) []zap.Field {
	if len(args)%2 != 0 {
		args = args[:len(args)-1]
	}
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

var (
	globalMu     sync.RWMutex
	globalLogger logiface.Logger
)

func SetGlobal(l logiface.Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Global returns the process-wide logger, falling back to a stdout logger
// at info level if none has been configured yet.
func Global() logiface.Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}
	fallback, err := New(DefaultConfig())
	if err != nil {
		// stdout encoding never fails; this path is unreachable in practice.
		panic(fmt.Sprintf("logging: failed to build fallback logger: %v", err))
	}
	return fallback
}
