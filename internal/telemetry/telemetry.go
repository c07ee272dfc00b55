// Package telemetry counts bus notifications as OTel metrics.
package telemetry

import (
	"context"
	"fmt"

	"github.com/bombtrucks/extension/internal/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/bombtrucks/extension/internal/telemetry"

// Totals is a running count of everything the observer has seen.
type Totals struct {
	Destroyed        int64            `json:"destroyed"`
	DestroyedByPath  map[string]int64 `json:"destroyedByPath"`
	ListenersAdded   int64            `json:"listenersAdded"`
	ListenersRemoved int64            `json:"listenersRemoved"`
	Triggers         int64            `json:"triggers"`
	Resolved         int64            `json:"resolved"`
}

// Observer records bus notifications. It runs on the simulation thread
// like every other bus observer and keeps no locks.
type Observer struct {
	destroyed        metric.Int64Counter
	listenersAdded   metric.Int64Counter
	listenersRemoved metric.Int64Counter
	triggers         metric.Int64Counter
	resolved         metric.Int64Counter

	totals Totals
}

var _ events.Observer = (*Observer)(nil)

// Option configures an Observer.
type Option func(*options)

type options struct {
	meter metric.Meter
}

// WithMeter records into m instead of the global meter.
func WithMeter(m metric.Meter) Option {
	return func(o *options) {
		o.meter = m
	}
}

// New creates an observer. Uses the global OTel meter for metrics (no-op if
// not configured).
func New(opts ...Option) (*Observer, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.meter == nil {
		o.meter = otel.Meter(instrumentationName)
	}

	t := &Observer{totals: Totals{DestroyedByPath: map[string]int64{}}}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&t.destroyed, "bomb.entities.destroyed", "Tracked entities removed from the ledger"},
		{&t.listenersAdded, "rf.listeners.added", "Receivers registered on a channel"},
		{&t.listenersRemoved, "rf.listeners.removed", "Receivers unregistered from a channel"},
		{&t.triggers, "rf.triggers.fired", "Channel broadcasts"},
		{&t.resolved, "rf.triggers.resolved", "Vehicles resolved by channel broadcasts"},
	}
	for _, c := range counters {
		counter, err := o.meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
		*c.dst = counter
	}
	return t, nil
}

func (t *Observer) OnEntityDestroyed(e events.EntityDestroyed) {
	path := e.Path.String()
	t.destroyed.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("path", path),
		attribute.String("profile", e.Record.ProfileName),
	))
	t.totals.Destroyed++
	t.totals.DestroyedByPath[path]++
}

func (t *Observer) OnListenerAdded(e events.ListenerAdded) {
	t.listenersAdded.Add(context.Background(), 1)
	t.totals.ListenersAdded++
}

func (t *Observer) OnListenerRemoved(e events.ListenerRemoved) {
	t.listenersRemoved.Add(context.Background(), 1)
	t.totals.ListenersRemoved++
}

func (t *Observer) OnTriggerFired(e events.TriggerFired) {
	ctx := context.Background()
	t.triggers.Add(ctx, 1)
	t.resolved.Add(ctx, int64(e.Resolved))
	t.totals.Triggers++
	t.totals.Resolved += int64(e.Resolved)
}

// Totals returns a copy of the running counts.
func (t *Observer) Totals() Totals {
	out := t.totals
	out.DestroyedByPath = make(map[string]int64, len(t.totals.DestroyedByPath))
	for k, v := range t.totals.DestroyedByPath {
		out.DestroyedByPath[k] = v
	}
	return out
}
