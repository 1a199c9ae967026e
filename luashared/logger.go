package luashared

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// SetLogger wires a logger for the whole bridge. nil is ignored. Call it
// before Import so discovery and resolution activity is captured.
func SetLogger(l *zap.Logger) {
	if l == nil {
		return
	}
	logger = l
}

// Logger returns the bridge's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}
