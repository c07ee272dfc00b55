// Package influx writes bus notifications to InfluxDB as time series points.
// When the server cannot be reached at startup the points go to a gzipped
// line protocol backup file instead.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bombtrucks/extension/internal/config"
	"github.com/bombtrucks/extension/internal/events"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	MeasurementDestroyed = "bomb_destroyed"
	MeasurementListener  = "rf_listener"
	MeasurementTrigger   = "rf_trigger"
)

// ErrDisabled is returned by Open when the sink is switched off in config.
var ErrDisabled = errors.New("influx sink is disabled")

// pointWriter is the part of api.WriteAPI the sink uses.
type pointWriter interface {
	WritePoint(point *influxdb2_write.Point)
	Flush()
}

// Sink is an events.Observer writing one point per notification.
type Sink struct {
	client influxdb2.Client
	writer pointWriter

	mu         sync.Mutex
	backup     *gzip.Writer
	backupFile io.Closer

	log *slog.Logger
}

var _ events.Observer = (*Sink)(nil)

// Open connects to the server described by cfg. If the server does not
// answer a ping, points are appended to backupPath.
func Open(ctx context.Context, cfg config.InfluxConfig, backupPath string, logger *slog.Logger) (*Sink, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := influxdb2.NewClientWithOptions(
		cfg.ServerURL(),
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := client.Ping(ctx)
	if err != nil || !running {
		client.Close()
		logger.Warn("InfluxDB unreachable, writing to backup file", "url", cfg.ServerURL(), "backupPath", backupPath, "error", err)
		return OpenBackup(backupPath, logger)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			logger.Error("Error sending data to InfluxDB", "error", writeErr, "bucket", cfg.Bucket)
		}
	}(writeAPI.Errors())

	logger.Info("InfluxDB sink initialized", "url", cfg.ServerURL(), "org", cfg.Org, "bucket", cfg.Bucket)
	return &Sink{client: client, writer: writeAPI, log: logger}, nil
}

// OpenBackup creates a sink that only writes the gzipped backup file.
func OpenBackup(path string, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("error creating backup file: %w", err)
	}
	return &Sink{backup: gzip.NewWriter(file), backupFile: file, log: logger}, nil
}

func newSink(w pointWriter, logger *slog.Logger) *Sink {
	return &Sink{writer: w, log: logger}
}

// Backup reports whether points go to the backup file.
func (s *Sink) Backup() bool {
	return s.writer == nil
}

func (s *Sink) write(point *influxdb2_write.Point) {
	if s.writer != nil {
		s.writer.WritePoint(point)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backup == nil {
		return
	}
	line := strings.TrimRight(influxdb2_write.PointToLineProtocol(point, time.Nanosecond), "\n")
	if _, err := s.backup.Write([]byte(line + "\n")); err != nil {
		s.log.Error("Error writing to InfluxDB backup file", "error", err)
	}
}

func (s *Sink) OnEntityDestroyed(e events.EntityDestroyed) {
	point := influxdb2_write.NewPointWithMeasurement(MeasurementDestroyed).
		AddTag("owner", string(e.OwnerID)).
		AddTag("profile", e.Record.ProfileName).
		AddTag("path", e.Path.String()).
		AddField("entityId", int64(e.Record.EntityID)).
		AddField("tracked", e.Record.Tracked).
		AddField("x", e.Position.X).
		AddField("y", e.Position.Y).
		AddField("z", e.Position.Z).
		SetTime(e.Timestamp)
	s.write(point)
}

func (s *Sink) OnListenerAdded(e events.ListenerAdded) {
	s.write(listenerPoint("added", e.Channel, int64(e.Handle), e.Timestamp))
}

func (s *Sink) OnListenerRemoved(e events.ListenerRemoved) {
	s.write(listenerPoint("removed", e.Channel, int64(e.Handle), e.Timestamp))
}

func listenerPoint(action string, channel int, handle int64, ts time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(MeasurementListener).
		AddTag("action", action).
		AddTag("channel", strconv.Itoa(channel)).
		AddField("handle", handle).
		SetTime(ts)
}

func (s *Sink) OnTriggerFired(e events.TriggerFired) {
	point := influxdb2_write.NewPointWithMeasurement(MeasurementTrigger).
		AddTag("channel", strconv.Itoa(e.Channel)).
		AddField("listeners", int64(e.Listeners)).
		AddField("resolved", int64(e.Resolved)).
		SetTime(e.Timestamp)
	s.write(point)
}

// Close flushes pending points and releases the client or backup file.
func (s *Sink) Close() error {
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.client != nil {
		s.client.Close()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backup == nil {
		return nil
	}
	err := s.backup.Close()
	if cerr := s.backupFile.Close(); err == nil {
		err = cerr
	}
	s.backup = nil
	return err
}
