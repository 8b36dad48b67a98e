package logger

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	conf "github.com/abcfe/abcfe-wallet/config"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
	stag   string
)

func InitLogger(cfg *conf.Config) error {
	now := time.Now()
	lPath := fmt.Sprintf("%s_%s.log", cfg.LogInfo.Path, now.Format("2006-01-02"))
	if err := os.MkdirAll(filepath.Dir(lPath), 0o700); err != nil {
		return err
	}

	// -debug forces "alpha" regardless of the config file
	for _, arg := range os.Args {
		if arg == "-debug" || arg == "--debug" {
			cfg.Common.Level = "alpha"
			break
		}
	}

	rotator, err := rotatelogs.New(
		lPath,
		rotatelogs.WithMaxAge(time.Duration(cfg.LogInfo.MaxAgeHour)*time.Hour),
		rotatelogs.WithRotationTime(time.Duration(cfg.LogInfo.RotateHour)*time.Hour))
	if err != nil {
		return err
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "date",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	w := zapcore.AddSync(rotator)
	cw := zapcore.AddSync(os.Stdout)
	var core zapcore.Core
	if cfg.Common.Level == "alpha" {
		core = zapcore.NewTee(
			zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, zap.DebugLevel),
			zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), cw, zap.DebugLevel),
		)
	} else {
		core = zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, zap.InfoLevel)
	}

	SetLogger(zap.New(core).With(zap.String("service", cfg.Common.ServiceName)))
	mu.Lock()
	stag = cfg.Common.Level
	mu.Unlock()

	Info("logging init file start")
	return nil
}

// SetLogger replaces the process logger. Tests use it with zaptest or zap.NewNop.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func join(ctx []interface{}) string {
	var b bytes.Buffer
	for _, str := range ctx {
		b.WriteString(fmt.Sprintf("%v", str))
	}
	return b.String()
}

func Debug(ctx ...interface{}) {
	current().Debug("debug", zap.String("Debug", join(ctx)))
}

func Info(ctx ...interface{}) {
	current().Info("info", zap.String("Info", join(ctx)))
}

func Warn(ctx ...interface{}) {
	current().Warn("warn", zap.String("Warn", join(ctx)))
}

func Error(ctx ...interface{}) {
	current().Error("error", zap.String("Err", join(ctx)))
}

func Crit(ctx ...interface{}) {
	current().Fatal("panic", zap.String("Crit", join(ctx)))
}

// Named returns a structured child logger for components that log fields
func Named(name string, fields ...zap.Field) *zap.Logger {
	return current().Named(name).With(fields...)
}

func IsDebug() bool {
	mu.RLock()
	defer mu.RUnlock()
	return stag == "alpha"
}

func Sync() {
	_ = current().Sync()
}

// Error handling
func HandleErr(err error) {
	if err != nil {
		Error(err)
	}
}
