package observability

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
	"github.com/willibrandon/mtlog/sinks"
)

// Logger is the structured logger used by the planner and executor.
// Message templates use named holes, e.g. "Installing {PackageId} {Version}".
type Logger interface {
	Verbose(messageTemplate string, args ...any)
	VerboseContext(ctx context.Context, messageTemplate string, args ...any)

	Debug(messageTemplate string, args ...any)
	DebugContext(ctx context.Context, messageTemplate string, args ...any)

	Info(messageTemplate string, args ...any)
	InfoContext(ctx context.Context, messageTemplate string, args ...any)

	Warn(messageTemplate string, args ...any)
	WarnContext(ctx context.Context, messageTemplate string, args ...any)

	Error(messageTemplate string, args ...any)
	ErrorContext(ctx context.Context, messageTemplate string, args ...any)

	// ForContext returns a child logger that attaches key=value to every event.
	ForContext(key string, value any) Logger
}

// LogLevel is the minimum level a logger emits.
type LogLevel int

const (
	// VerboseLevel emits everything, including per-dependency resolver traces.
	VerboseLevel LogLevel = iota
	// DebugLevel emits resolver decisions.
	DebugLevel
	// InfoLevel emits one line per planned or applied action.
	InfoLevel
	// WarnLevel emits warnings only.
	WarnLevel
	// ErrorLevel emits errors only.
	ErrorLevel
)

// ParseLogLevel maps a level name (case-insensitive) to a LogLevel.
func ParseLogLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "verbose", "trace":
		return VerboseLevel, nil
	case "debug":
		return DebugLevel, nil
	case "", "info", "information":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

type mtlogAdapter struct {
	logger core.Logger
}

// NewLogger writes to output through an mtlog console sink.
func NewLogger(output io.Writer, level LogLevel) Logger {
	opts := []mtlog.Option{
		mtlog.WithSink(sinks.NewConsoleSinkWithWriter(output)),
		mtlog.WithTimestamp(),
		mtlog.WithProcess(),
	}

	switch level {
	case VerboseLevel:
		opts = append(opts, mtlog.Verbose())
	case DebugLevel:
		opts = append(opts, mtlog.Debug())
	case InfoLevel:
		opts = append(opts, mtlog.Information())
	case WarnLevel:
		opts = append(opts, mtlog.Warning())
	case ErrorLevel:
		opts = append(opts, mtlog.Error())
	}

	return &mtlogAdapter{logger: mtlog.New(opts...)}
}

func (a *mtlogAdapter) Verbose(tmpl string, args ...any) { a.logger.Verbose(tmpl, args...) }
func (a *mtlogAdapter) VerboseContext(ctx context.Context, tmpl string, args ...any) {
	a.logger.VerboseContext(ctx, tmpl, args...)
}

func (a *mtlogAdapter) Debug(tmpl string, args ...any) { a.logger.Debug(tmpl, args...) }
func (a *mtlogAdapter) DebugContext(ctx context.Context, tmpl string, args ...any) {
	a.logger.DebugContext(ctx, tmpl, args...)
}

func (a *mtlogAdapter) Info(tmpl string, args ...any) { a.logger.Info(tmpl, args...) }
func (a *mtlogAdapter) InfoContext(ctx context.Context, tmpl string, args ...any) {
	a.logger.InfoContext(ctx, tmpl, args...)
}

func (a *mtlogAdapter) Warn(tmpl string, args ...any) { a.logger.Warn(tmpl, args...) }
func (a *mtlogAdapter) WarnContext(ctx context.Context, tmpl string, args ...any) {
	a.logger.WarnContext(ctx, tmpl, args...)
}

func (a *mtlogAdapter) Error(tmpl string, args ...any) { a.logger.Error(tmpl, args...) }
func (a *mtlogAdapter) ErrorContext(ctx context.Context, tmpl string, args ...any) {
	a.logger.ErrorContext(ctx, tmpl, args...)
}

func (a *mtlogAdapter) ForContext(key string, value any) Logger {
	return &mtlogAdapter{logger: a.logger.ForContext(key, value)}
}

type nullLogger struct{}

// NewNullLogger discards everything. Components fall back to it when no logger is configured.
func NewNullLogger() Logger {
	return nullLogger{}
}

func (nullLogger) Verbose(string, ...any)                         {}
func (nullLogger) VerboseContext(context.Context, string, ...any) {}
func (nullLogger) Debug(string, ...any)                           {}
func (nullLogger) DebugContext(context.Context, string, ...any)   {}
func (nullLogger) Info(string, ...any)                            {}
func (nullLogger) InfoContext(context.Context, string, ...any)    {}
func (nullLogger) Warn(string, ...any)                            {}
func (nullLogger) WarnContext(context.Context, string, ...any)    {}
func (nullLogger) Error(string, ...any)                           {}
func (nullLogger) ErrorContext(context.Context, string, ...any)   {}
func (n nullLogger) ForContext(string, any) Logger                { return n }
