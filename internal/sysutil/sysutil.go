// Package sysutil holds small process-level helpers shared by the entry points.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
)

// SetLogLevel applies the configured log level process-wide. Unknown or empty
// values fall back to info so a typo in LOG_LEVEL never silences the service.
func SetLogLevel(level string) {
	s := strings.ToLower(strings.TrimSpace(level))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
