package log

import (
	"strings"

	"github.com/YuminosukeSato/scigo-gbt/pkg/errors"
)

// ParseLevel converts a textual level ("debug", "info", "warn", "error")
// into a Level. Matching is case-insensitive.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewConfigError("log_level", "must be one of debug, info, warn, error", level)
	}
}
