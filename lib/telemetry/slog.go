package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LevelCritical sits above slog.LevelError, it is what "CRITICAL" in a
// config file maps to.
const LevelCritical = slog.Level(12)

// ParseLevel understands the level names accepted in the config file.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "INFO":
		return slog.LevelInfo, nil
	case "NOTSET", "DEBUG":
		return slog.LevelDebug, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "CRITICAL", "FATAL":
		return LevelCritical, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

type LogOptions struct {
	Level slog.Level
	// if set, log lines are appended to this file as well as stderr
	File string
}

// InitSlog replaces the default slog logger. The returned function closes
// the log file if one was opened.
func InitSlog(opts LogOptions) (func() error, error) {
	var out io.Writer = os.Stderr
	closer := func() error { return nil }

	if opts.File != "" {
		err := os.MkdirAll(filepath.Dir(opts.File), 0755)
		if err != nil {
			return closer, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return closer, err
		}
		out = io.MultiWriter(os.Stderr, f)
		closer = f.Close
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: opts.Level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key != slog.LevelKey || len(groups) > 0 {
				return a
			}
			level, ok := a.Value.Any().(slog.Level)
			if ok && level >= LevelCritical {
				a.Value = slog.StringValue("CRITICAL")
			}
			return a
		},
	})
	slog.SetDefault(slog.New(handler))

	return closer, nil
}
