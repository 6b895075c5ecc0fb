// Package evolog provides level-gated loggers shared across the driver,
// executor and broker, mirroring the teacher's neat/log.go facility.
package evolog

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
)

// Level is the logger output level.
type Level string

const (
	// LevelDebug is the most verbose level.
	LevelDebug Level = "debug"
	// LevelInfo logs high-level progress.
	LevelInfo Level = "info"
	// LevelWarn logs recoverable anomalies (stalls, lost children, fallbacks).
	LevelWarn Level = "warn"
	// LevelError logs fatal conditions.
	LevelError Level = "error"
)

var (
	// CurrentLevel gates which messages are emitted.
	CurrentLevel Level = LevelInfo

	loggerDebug = log.New(os.Stdout, "DEBUG: ", log.Ltime|log.Lshortfile)
	loggerInfo  = log.New(os.Stdout, "INFO: ", log.Ltime|log.Lshortfile)
	loggerWarn  = log.New(os.Stdout, "WARN: ", log.Ltime|log.Lshortfile)
	loggerError = log.New(os.Stderr, "ERROR: ", log.Ltime|log.Lshortfile)

	// Debug logs a message at debug level.
	Debug = func(message string) {
		if accept(CurrentLevel, LevelDebug) {
			_ = loggerDebug.Output(2, message)
		}
	}
	// Info logs a message at info level.
	Info = func(message string) {
		if accept(CurrentLevel, LevelInfo) {
			_ = loggerInfo.Output(2, message)
		}
	}
	// Warn logs a message at warn level.
	Warn = func(message string) {
		if accept(CurrentLevel, LevelWarn) {
			_ = loggerWarn.Output(2, message)
		}
	}
	// Error logs a message at error level.
	Error = func(message string) {
		if accept(CurrentLevel, LevelError) {
			_ = loggerError.Output(2, message)
		}
	}
)

// Init sets the current log level from its string representation.
func Init(level string) error {
	switch Level(level) {
	case LevelDebug:
		CurrentLevel = LevelDebug
	case LevelInfo:
		CurrentLevel = LevelInfo
	case LevelWarn:
		CurrentLevel = LevelWarn
	case LevelError:
		CurrentLevel = LevelError
	case "":
		CurrentLevel = LevelInfo
	default:
		return errors.Errorf("unsupported log level: [%s]", level)
	}
	return nil
}

func accept(current, target Level) bool {
	switch current {
	case LevelDebug:
		return true
	case LevelInfo:
		return target == LevelInfo || target == LevelWarn || target == LevelError
	case LevelWarn:
		return target == LevelWarn || target == LevelError
	case LevelError:
		return target == LevelError
	}
	_ = loggerError.Output(2, fmt.Sprintf(
		"unsupported log level set: %q; use one of debug, info, warn, error", current))
	return false
}
