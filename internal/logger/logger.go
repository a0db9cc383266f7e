// Package logger configures structured JSON logging for AgentCanvas.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Strob0t/AgentCanvas/internal/config"
)

// Default buffer sizing for async mode.
const (
	defaultAsyncBuffer  = 10000
	defaultAsyncWorkers = 4
)

// New builds the process logger: JSON to stdout, a "service" attribute on
// every record, and request/task/agent ids lifted from the context. The
// Closer flushes the async buffer when cfg.Async is set.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg config.Logging) (*slog.Logger, Closer) {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	var closer Closer = nopCloser{}
	if cfg.Async {
		buf, workers := cfg.AsyncBuffer, cfg.AsyncWorkers
		if buf <= 0 {
			buf = defaultAsyncBuffer
		}
		if workers <= 0 {
			workers = defaultAsyncWorkers
		}
		ah := NewAsyncHandler(handler, buf, workers)
		handler, closer = ah, ah
	}

	l := slog.New(NewContextHandler(handler))
	if cfg.Service != "" {
		l = l.With("service", cfg.Service)
	}
	return l, closer
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
