package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Session log streams.
const (
	MainStream = ""
	OTelStream = "otel"
)

// LogFilePath names a session log file: bombtrucks.<stamp>.log for the
// main stream and bombtrucks.<stream>.<stamp>.log otherwise. The stamp is
// the UTC session start.
func LogFilePath(logsDir, stream string, sessionStart time.Time) string {
	name := InstrumentationName
	if stream != "" {
		name += "." + stream
	}
	stamp := sessionStart.UTC().Format("20060102_150405")
	return filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", name, stamp))
}

// OpenLogFile creates logsDir if needed and opens the stream's file for
// appending.
func OpenLogFile(logsDir, stream string, sessionStart time.Time) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	path := LogFilePath(logsDir, stream, sessionStart)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s log: %w", streamName(stream), err)
	}
	return f, nil
}

func streamName(stream string) string {
	if stream == "" {
		return "main"
	}
	return stream
}
