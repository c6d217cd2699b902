package logging

import "go.uber.org/zap"

// New builds the process logger. Debug selects the human-readable
// development config; otherwise JSON production output at info level.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// OrNop lets constructors accept a nil logger.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
