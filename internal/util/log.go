// Package util provides shared logging and session statistics helpers.
package util

import (
	"fmt"

	"github.com/pterm/pterm"
)

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "02 Jan 15:04:05"
	pterm.DefaultLogger.MaxWidth = 1000
}

// Leveled logging functions backed by pterm prefixed printers.
// All output goes to stderr by default (pterm's default).

func LogDebug(format string, args ...interface{}) {
	pterm.DefaultLogger.Debug(fmt.Sprintf(format, args...))
}

func LogInfo(format string, args ...interface{}) {
	pterm.DefaultLogger.Info(fmt.Sprintf(format, args...))
}

func LogSuccess(format string, args ...interface{}) {
	pterm.DefaultLogger.Info(fmt.Sprintf(format, args...))
}

func LogWarning(format string, args ...interface{}) {
	pterm.DefaultLogger.Warn(fmt.Sprintf(format, args...))
}

func LogError(format string, args ...interface{}) {
	pterm.DefaultLogger.Error(fmt.Sprintf(format, args...))
}

// EnableDebug configures the logger to show debug messages.
func EnableDebug() {
	pterm.DefaultLogger.Level = pterm.LogLevelDebug
}

// SessionLogger prefixes every line with a short session id, so the
// lifecycles of concurrent room sessions stay distinguishable in one
// log stream.
type SessionLogger struct {
	ID string
}

// NewSessionLogger creates a logger tagged with a fresh session id.
func NewSessionLogger() SessionLogger {
	return SessionLogger{ID: NewSessionID()}
}

func (l SessionLogger) Debugf(format string, args ...interface{}) {
	LogDebug("["+l.ID+"] "+format, args...)
}

func (l SessionLogger) Infof(format string, args ...interface{}) {
	LogInfo("["+l.ID+"] "+format, args...)
}

func (l SessionLogger) Warnf(format string, args ...interface{}) {
	LogWarning("["+l.ID+"] "+format, args...)
}

func (l SessionLogger) Errorf(format string, args ...interface{}) {
	LogError("["+l.ID+"] "+format, args...)
}
