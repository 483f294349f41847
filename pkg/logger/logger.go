package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L 进程级 logger，Init 之前为 no-op
var L = zap.NewNop()

// Init 初始化进程级 logger
// level: "debug", "info", "warn", "error" (默认: "info")
func Init(level string) error {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// 输出到标准输出，便于 Docker 和日志收集器捕获
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	l, err := config.Build()
	if err != nil {
		return err
	}
	L = l.With(zap.String("service_name", "wellness-erp"))
	return nil
}

// Sync 刷新缓冲日志
func Sync() {
	_ = L.Sync()
}
