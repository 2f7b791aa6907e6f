package common

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LogDir      = "./log/"
	ServiceName = "pulse-dashboard"
)

var Logger *zap.Logger

func init() {
	Logger = NewLogger(true)
}

func InitLogger(testEnv bool) {
	Logger = NewLogger(testEnv)
}

func NewLogger(testEnv bool) *zap.Logger {
	var core zapcore.Core
	if testEnv {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
		core = zapcore.NewCore(consoleEncoder, zapcore.AddSync(zapcore.Lock(os.Stdout)), zapcore.DebugLevel)
	} else {
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename: LogDir + "app.log",
			MaxSize:  100, // MB
			MaxAge:   7,   // days
			Compress: true,
		})
		core = zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			w,
			zapcore.InfoLevel,
		)
	}
	return withService(core)
}

func withService(core zapcore.Core, fields ...zap.Field) *zap.Logger {
	fields = append([]zap.Field{zap.String("service", ServiceName)}, fields...)
	return zap.New(core, zap.Fields(fields...))
}

// NewFileLogger writes JSON lines to LogDir/<name>/<name>.log, kept for age.
func NewFileLogger(name string, age time.Duration) *zap.Logger {
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename: LogDir + name + "/" + name + ".log",
		MaxSize:  100,                   // MB
		MaxAge:   int(age.Hours() / 24), // days
		Compress: true,
	})
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		w,
		zapcore.InfoLevel,
	)
	return withService(core, zap.String("log", name))
}
