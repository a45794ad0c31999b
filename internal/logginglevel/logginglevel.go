package logginglevel

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is shared by the root logger and the --debug flag.
var Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
