package helpers

import (
	"errors"
	"fmt"

	"sjsage522/portalevents/logger"
	apperrors "sjsage522/portalevents/pkg/errors"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(component string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger adapts the structured logger to LoggerInterface
type Logger struct {
	log *logger.Logger
}

// NewLogger creates a new logger instance; a nil log falls back to the default logger
func NewLogger(log *logger.Logger) *Logger {
	if log == nil {
		log = logger.ForWorker()
	}
	return &Logger{log: log}
}

// LogError logs an error with the component it came from. Extraction failures also carry
// their reason.
func (l *Logger) LogError(component string, err error) {
	ev := l.log.Error().Str("component", component).Err(err)
	var se *apperrors.ScrapeError
	if errors.As(err, &se) {
		ev = ev.Str("reason", apperrors.ReasonOf(err))
	}
	ev.Msg(component + " failed")
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	l.log.Info().Msg(fmt.Sprintf(format, args...))
}
