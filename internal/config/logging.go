package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLogLevel accepts slog level names plus the WARNING and CRITICAL
// aliases common in LOG_LEVEL settings.
func ParseLogLevel(raw string) (slog.Level, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	switch name {
	case "":
		return slog.LevelInfo, nil
	case "WARNING":
		name = "WARN"
	case "CRITICAL", "FATAL":
		name = "ERROR"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}

// NewLogger builds the process logger. Callers pass stderr: stdout belongs
// to the stdio transport.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}
