// Package stream pushes bus notifications to a websocket server as JSON
// envelopes. Sends never block the simulation thread.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bombtrucks/extension/internal/config"
	"github.com/bombtrucks/extension/internal/events"
)

// ErrDisabled is returned by Open when the stream is switched off in config.
var ErrDisabled = errors.New("event stream is disabled")

// Sink is an events.Observer streaming every notification.
type Sink struct {
	conn    *connection
	dropped atomic.Int64
}

var _ events.Observer = (*Sink)(nil)

// Option configures a Sink.
type Option func(*connection)

// WithReconnectBackoff sets the delay before the first reconnect attempt.
func WithReconnectBackoff(d time.Duration) Option {
	return func(c *connection) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// Open dials cfg.URL and waits for the server to acknowledge the hello
// message.
func Open(cfg config.StreamConfig, hello HelloPayload, logger *slog.Logger, opts ...Option) (*Sink, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sink{conn: newConnection(logger)}
	for _, opt := range opts {
		opt(s.conn)
	}
	if err := s.conn.dial(cfg.URL, cfg.Secret); err != nil {
		return nil, err
	}

	data, err := marshalEnvelope(TypeHello, hello)
	if err != nil {
		_ = s.conn.close()
		return nil, err
	}
	s.conn.mu.Lock()
	s.conn.hello = data
	s.conn.mu.Unlock()

	if err := s.conn.sendAndWait(data, TypeHello, ackTimeout); err != nil {
		_ = s.conn.close()
		return nil, err
	}
	logger.Info("Event stream connected", "url", cfg.URL)
	return s, nil
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (s *Sink) sendEnvelope(msgType string, payload any) {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		s.conn.logger.Error("Dropping stream message", "type", msgType, "error", err)
		s.dropped.Add(1)
		return
	}
	if !s.conn.send(data) {
		s.dropped.Add(1)
	}
}

// Dropped returns how many messages never reached the send queue.
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Sink) OnEntityDestroyed(e events.EntityDestroyed) {
	s.sendEnvelope(TypeEntityDestroyed, EntityDestroyedPayload{
		OwnerID:   string(e.OwnerID),
		EntityID:  uint64(e.Record.EntityID),
		Profile:   e.Record.ProfileName,
		Tracked:   e.Record.Tracked,
		Path:      e.Path.String(),
		Position:  [3]float64{e.Position.X, e.Position.Y, e.Position.Z},
		Timestamp: e.Timestamp.UTC(),
	})
}

func (s *Sink) OnListenerAdded(e events.ListenerAdded) {
	s.sendEnvelope(TypeListenerAdded, ListenerPayload{Channel: e.Channel, Handle: uint64(e.Handle), Timestamp: e.Timestamp.UTC()})
}

func (s *Sink) OnListenerRemoved(e events.ListenerRemoved) {
	s.sendEnvelope(TypeListenerRemoved, ListenerPayload{Channel: e.Channel, Handle: uint64(e.Handle), Timestamp: e.Timestamp.UTC()})
}

func (s *Sink) OnTriggerFired(e events.TriggerFired) {
	s.sendEnvelope(TypeTriggerFired, TriggerPayload{
		Channel:   e.Channel,
		Listeners: e.Listeners,
		Resolved:  e.Resolved,
		Timestamp: e.Timestamp.UTC(),
	})
}

// Close sends a close frame and stops the connection goroutines.
func (s *Sink) Close() error {
	return s.conn.close()
}
