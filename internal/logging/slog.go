package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Swapped in tests to capture console output.
var (
	osStdout = os.Stdout
	osPipe   = os.Pipe
)

// InstrumentationName is the OTel logger name used by the slog bridge.
const InstrumentationName = "bombtrucks"

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// Option configures extra outputs for Setup.
type Option func(*setupOptions)

type setupOptions struct {
	context ContextSource
	writers []io.Writer
}

// WithContextSource nests the source's attributes under SimGroup on every
// record.
func WithContextSource(src ContextSource) Option {
	return func(o *setupOptions) { o.context = src }
}

// WithJSONWriter also writes every record as JSON to w (for example a GELF writer).
func WithJSONWriter(w io.Writer) Option {
	return func(o *setupOptions) {
		if w != nil {
			o.writers = append(o.writers, w)
		}
	}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system with file and optional OTel output.
// Console output is used only when file is nil. If provider is nil, OTel
// logging is disabled.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, opts ...Option) {
	lvl := parseLevel(level)
	m.logProvider = provider

	var so setupOptions
	for _, opt := range opts {
		opt(&so)
	}

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	out := &fanout{}
	if file != nil {
		out.add("file", slog.NewTextHandler(file, handlerOpts))
	} else {
		out.add("console", slog.NewTextHandler(osStdout, handlerOpts))
	}
	for _, w := range so.writers {
		out.add("json", slog.NewJSONHandler(w, handlerOpts))
	}
	if provider != nil {
		out.add("otel", otelslog.NewHandler(InstrumentationName, otelslog.WithLoggerProvider(provider)))
	}

	var handler slog.Handler = out
	if so.context != nil {
		handler = NewContextHandler(handler, so.context)
	}

	m.logger = slog.New(handler)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m == nil || m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
