package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bombtrucks/extension/internal/config"
	"github.com/bombtrucks/extension/internal/events"
	"github.com/bombtrucks/extension/internal/influx"
	"github.com/bombtrucks/extension/internal/logging"
	intOtel "github.com/bombtrucks/extension/internal/otel"
	"github.com/bombtrucks/extension/internal/stream"
	"github.com/bombtrucks/extension/internal/telemetry"
)

var SessionStartTime = time.Now()

func loadConfig(configDir string, stderr io.Writer) error {
	status, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if status != config.StatusLoaded {
		fmt.Fprintf(stderr, "config %s: %s\n", filepath.Join(configDir, config.FileName), status)
	}
	return nil
}

// runtime holds everything opened for a simulation that must be closed
// again, in reverse order.
type runtime struct {
	logs      *logging.SlogManager
	otel      *intOtel.Provider
	bus       *events.Bus
	telemetry *telemetry.Observer
	closers   []func() error
}

func (r *runtime) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

// setupRuntime opens the log file, the OTel pipeline, the optional GELF
// writer and every enabled bus sink.
func setupRuntime(src logging.ContextSource) (*runtime, error) {
	r := &runtime{logs: logging.NewSlogManager(), bus: events.NewBus()}

	logsDir := config.GetString("logsDir")
	logFile, err := logging.OpenLogFile(logsDir, logging.MainStream, SessionStartTime)
	if err != nil {
		return nil, err
	}
	r.onClose(logFile.Close)

	otelCfg := config.GetOTelConfig()
	var otelWriter io.Writer
	if otelCfg.Enabled {
		otelFile, err := logging.OpenLogFile(logsDir, logging.OTelStream, SessionStartTime)
		if err != nil {
			r.close()
			return nil, err
		}
		r.onClose(otelFile.Close)
		otelWriter = otelFile
	}
	r.otel, err = intOtel.New(intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    otelWriter,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		r.close()
		return nil, fmt.Errorf("setup otel: %w", err)
	}
	r.onClose(func() error { return r.otel.Shutdown(context.Background()) })

	var opts []logging.Option
	if src != nil {
		opts = append(opts, logging.WithContextSource(src))
	}
	var gelfErr error
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGelfWriter(gl.Address, ExtensionName)
		if err != nil {
			gelfErr = err
		} else {
			opts = append(opts, logging.WithJSONWriter(w))
			r.onClose(w.Close)
		}
	}
	r.logs.Setup(logFile, config.GetString("logLevel"), r.otel.LoggerProvider(), opts...)
	log := r.logs.Logger()
	slog.SetDefault(log)
	if gelfErr != nil {
		log.Warn("Graylog disabled", "error", gelfErr)
	}

	r.telemetry, err = telemetry.New(telemetry.WithMeter(r.otel.Meter(ExtensionName)))
	if err != nil {
		r.close()
		return nil, err
	}
	r.bus.Subscribe(r.telemetry)

	if err := r.openSinks(log, filepath.Join(logsDir, "influx_backup.log.gz")); err != nil {
		r.close()
		return nil, err
	}
	return r, nil
}

func (r *runtime) openSinks(log *slog.Logger, backupPath string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sink, err := influx.Open(ctx, config.GetInfluxConfig(), backupPath, log)
	switch {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		return fmt.Errorf("open influx sink: %w", err)
	default:
		r.bus.Subscribe(sink)
		r.onClose(sink.Close)
	}

	hello := stream.HelloPayload{Extension: ExtensionName, Version: CurrentExtensionVersion, StartedAt: SessionStartTime.UTC()}
	ws, err := stream.Open(config.GetStreamConfig(), hello, log)
	switch {
	case errors.Is(err, stream.ErrDisabled):
	case err != nil:
		log.Warn("Event stream unavailable", "error", err)
	default:
		r.bus.Subscribe(ws)
		r.onClose(ws.Close)
	}
	return nil
}

func (r *runtime) close() {
	if r.logs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = r.logs.Flush(ctx)
		cancel()
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i]()
	}
	r.closers = nil
}
