package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RootLogger is the logger all other loggers in this application are derived from.
var RootLogger = newRootLogger()

// NodeID identifies this server instance in logs and events. Every process
// start yields a new value.
var NodeID = RandomID()

func newRootLogger() *zap.Logger {
	lvl := zapcore.InfoLevel
	switch os.Getenv(FnLogLevel) {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stdout"}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger.With(zap.String("node", NodeID))
}

// RandomID returns a short random hex identifier, used for session and node ids.
func RandomID() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
