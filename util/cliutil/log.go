package cliutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type LogOptions struct {
	// LOG_DEBUG: most verbose, wins over Info
	Debug bool

	// LOG_INFO: show startup and per-signature messages
	Info bool

	// text|json
	LogFormat string

	// defaults to stdout
	Output io.Writer
}

// Level resolves the two verbosity booleans into a single slog level. With
// neither set, only warnings and errors (which include moderation actions and
// spam alerts) are emitted.
func (o LogOptions) Level() slog.Level {
	switch {
	case o.Debug:
		return slog.LevelDebug
	case o.Info:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// SetupSlog builds the process logger from options, sets it as the slog
// default, and returns it. Components receive this logger explicitly; the
// default is only for library code which logs via the slog package functions.
//
// passing default cliutil.LogOptions{} is ok.
func SetupSlog(options LogOptions) (*slog.Logger, error) {
	hopts := slog.HandlerOptions{
		Level: options.Level(),
	}
	out := options.Output
	if out == nil {
		out = os.Stdout
	}

	format := strings.ToLower(options.LogFormat)
	if format == "" {
		format = "text"
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(out, &hopts)
	case "json":
		handler = slog.NewJSONHandler(out, &hopts)
	default:
		return nil, fmt.Errorf("unknown log format: %#v", options.LogFormat)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
