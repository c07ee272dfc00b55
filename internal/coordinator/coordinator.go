// Package coordinator wires the ledger, the frequency registry, the
// lifecycle monitor and the detonation scheduler to the host. Every method
// runs on the simulation thread.
package coordinator

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/bombtrucks/extension/internal/config"
	"github.com/bombtrucks/extension/internal/detonation"
	"github.com/bombtrucks/extension/internal/events"
	"github.com/bombtrucks/extension/internal/frequency"
	"github.com/bombtrucks/extension/internal/ledger"
	"github.com/bombtrucks/extension/internal/lifecycle"
	"github.com/bombtrucks/extension/internal/queue"
	"github.com/bombtrucks/extension/internal/storage"
	"github.com/bombtrucks/extension/pkg/core"
	"github.com/bombtrucks/extension/pkg/host"
)

// Dependencies are the collaborators a Coordinator is built from.
// World, Projector and Storage are required.
type Dependencies struct {
	World     host.World
	Spawner   host.Spawner   // nil when the spawner add-on is missing
	AntiGrief host.AntiGrief // nil disables raid and combat checks
	Projector host.Projector
	Storage   storage.Backend

	Profiles []core.Profile
	NoEscape config.NoEscapeConfig
	// MinSpawnerVersion is a semantic version such as "v2.0.0". Empty
	// accepts any valid version.
	MinSpawnerVersion string
	Guards            []SpawnGuard

	Bus              *events.Bus
	Rand             *rand.Rand
	Logger           *slog.Logger
	Now              func() time.Time
	Version          string
	SchedulerOptions []detonation.Option
}

type pendingListener struct {
	channel int
	handle  core.EntityID
}

// Coordinator owns the core components.
type Coordinator struct {
	world     host.World
	spawner   host.Spawner
	antiGrief host.AntiGrief
	storage   storage.Backend

	profiles   []core.Profile
	noEscape   config.NoEscapeConfig
	minVersion string
	guards     []SpawnGuard

	bus       *events.Bus
	ledger    *ledger.Ledger
	registry  *frequency.Registry
	monitor   *lifecycle.Monitor
	scheduler *detonation.Scheduler
	pending   *queue.Queue[pendingListener]

	rand    *rand.Rand
	log     *slog.Logger
	now     func() time.Time
	version string

	started bool
	closed  bool
}

// New builds a coordinator. Nothing is loaded until Start.
func New(deps Dependencies) (*Coordinator, error) {
	switch {
	case deps.World == nil:
		return nil, errors.New("coordinator: world is required")
	case deps.Projector == nil:
		return nil, errors.New("coordinator: projector is required")
	case deps.Storage == nil:
		return nil, errors.New("coordinator: storage is required")
	}

	c := &Coordinator{
		world:      deps.World,
		spawner:    deps.Spawner,
		antiGrief:  deps.AntiGrief,
		storage:    deps.Storage,
		noEscape:   deps.NoEscape,
		minVersion: normalizeVersion(deps.MinSpawnerVersion),
		guards:     deps.Guards,
		bus:        deps.Bus,
		pending:    queue.New[pendingListener](),
		rand:       deps.Rand,
		log:        deps.Logger,
		now:        deps.Now,
		version:    deps.Version,
	}
	if c.bus == nil {
		c.bus = events.NewBus()
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.rand == nil {
		c.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	c.profiles = make([]core.Profile, 0, len(deps.Profiles))
	for _, p := range deps.Profiles {
		p = p.Clone()
		p.Normalize()
		c.profiles = append(c.profiles, p)
	}
	core.SortProfiles(c.profiles)

	opts := append([]detonation.Option{detonation.WithLogger(c.log)}, deps.SchedulerOptions...)
	scheduler, err := detonation.New(deps.Projector, opts...)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}
	c.scheduler = scheduler

	c.ledger = ledger.New(deps.Storage)
	c.registry = frequency.New(c.resolveListener, c.detonateVehicle, c.bus)
	c.monitor = lifecycle.New(c.ledger, c.registry, c.bus, c.log)
	c.bus.Subscribe(deathObserver{c: c})

	return c, nil
}

// Reconciliation reports what Reconcile changed.
type Reconciliation struct {
	Attached  int `json:"attached"`
	Listeners int `json:"listeners"`
	Swept     int `json:"swept"`
}

// Start loads the ledger and reconciles it with the live world. Calling
// Start again does nothing. A ledger that fails to load is returned as an
// error and left untouched in storage.
func (c *Coordinator) Start() (Reconciliation, error) {
	if c.started {
		return Reconciliation{}, nil
	}
	if err := c.storage.Init(); err != nil {
		return Reconciliation{}, fmt.Errorf("coordinator: init storage: %w", err)
	}
	if err := c.ledger.Load(); err != nil {
		return Reconciliation{}, fmt.Errorf("coordinator: %w", err)
	}
	if err := c.spawnerAvailable(); err != nil {
		c.log.Error("Vehicle spawner unavailable, spawning is disabled", "error", err)
	}

	rec, err := c.Reconcile()
	if err != nil {
		return rec, err
	}
	c.started = true
	c.log.Info("Coordinator started",
		"attached", rec.Attached,
		"listeners", rec.Listeners,
		"swept", rec.Swept,
		"profiles", len(c.profiles))
	return rec, nil
}

// Reconcile re-attaches observers to live tracked vehicles, re-registers
// the receivers mounted on them and removes records of vehicles that are
// gone. Running it twice changes nothing the second time.
func (c *Coordinator) Reconcile() (Reconciliation, error) {
	var rec Reconciliation

	owners := make(map[core.EntityID]core.OwnerID)
	for owner, records := range c.ledger.Records() {
		for _, r := range records {
			owners[r.EntityID] = owner
		}
	}

	for _, vehicle := range c.world.LiveEntities(host.KindVehicle) {
		owner, ok := owners[vehicle.ID()]
		if !ok {
			continue
		}
		if c.monitor.Attach(vehicle, owner, vehicle.ID()) {
			rec.Attached++
		}
	}

	for _, entity := range c.world.LiveEntities(host.KindReceiver) {
		receiver, ok := entity.(host.Receiver)
		if !ok {
			continue
		}
		vehicle, ok := receiver.Parent()
		if !ok || vehicle == nil || !vehicle.Alive() {
			continue
		}
		if _, ok := owners[vehicle.ID()]; !ok {
			continue
		}
		if c.registry.AddListener(receiver.Frequency(), receiver.ID()) {
			rec.Listeners++
		}
		c.monitor.Bind(vehicle.ID(), receiver.Frequency(), receiver.ID())
	}

	swept, err := c.ledger.Sweep(c.alive)
	rec.Swept = swept
	if err != nil {
		return rec, fmt.Errorf("coordinator: reconcile: %w", err)
	}
	return rec, nil
}

// alive reports whether id is a live vehicle. Records naming any other
// kind of entity are swept.
func (c *Coordinator) alive(id core.EntityID) bool {
	e, ok := c.world.FindEntity(id)
	return ok && e.Kind() == host.KindVehicle && e.Alive()
}

// Tick registers the listeners announced since the last tick and advances
// running detonations by dt.
func (c *Coordinator) Tick(dt time.Duration) {
	c.pending.Drain(c.registerListener)
	c.scheduler.Tick(dt)
}

// Shutdown cancels every detonation, detaches every destruction observer
// and closes storage. Later calls return nil.
func (c *Coordinator) Shutdown() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.scheduler.Shutdown()
	c.monitor.DetachAll()
	c.pending.Clear()

	if err := c.ledger.Close(); err != nil {
		return fmt.Errorf("coordinator: close storage: %w", err)
	}
	return nil
}

// HandleNewSave drops every record, cooldown and listener. The host calls
// it when a fresh world is generated.
func (c *Coordinator) HandleNewSave() error {
	c.monitor.DetachAll()
	c.pending.Clear()
	c.registry.Clear()
	if err := c.ledger.Clear(); err != nil {
		return fmt.Errorf("coordinator: clear ledger: %w", err)
	}
	c.log.Info("New save, ledger cleared")
	return nil
}

// IsTracked reports whether any ledger record references id. Host
// protection hooks (locks, lifts, unclaiming) deny actions on such vehicles.
func (c *Coordinator) IsTracked(id core.EntityID) bool {
	_, _, ok := c.ledger.Owner(id)
	return ok
}

// Profiles returns the configured profiles, default first.
func (c *Coordinator) Profiles() []core.Profile {
	out := make([]core.Profile, len(c.profiles))
	for i, p := range c.profiles {
		out[i] = p.Clone()
	}
	return out
}

// Ledger exposes the ownership ledger for status reporting.
func (c *Coordinator) Ledger() *ledger.Ledger {
	return c.ledger
}

// Bus returns the event bus sinks subscribe to.
func (c *Coordinator) Bus() *events.Bus {
	return c.bus
}

// Status is a point-in-time summary for operators.
type Status struct {
	Version    string `json:"version"`
	Started    bool   `json:"started"`
	Records    int    `json:"records"`
	Watched    int    `json:"watched"`
	Channels   int    `json:"channels"`
	Listeners  int    `json:"listeners"`
	ActiveRuns int    `json:"activeRuns"`
	Pending    int    `json:"pending"`
}

func (c *Coordinator) Status() Status {
	return Status{
		Version:    c.version,
		Started:    c.started,
		Records:    c.ledger.Document().RecordCount(),
		Watched:    c.monitor.Len(),
		Channels:   len(c.registry.Channels()),
		Listeners:  c.registry.Len(),
		ActiveRuns: c.scheduler.Active(),
		Pending:    c.pending.Len(),
	}
}

// LogContext returns attributes added to every log record.
func (c *Coordinator) LogContext() []slog.Attr {
	return []slog.Attr{
		slog.Int("activeRuns", c.scheduler.Active()),
		slog.Int("watched", c.monitor.Len()),
	}
}

func (c *Coordinator) profile(name string) (core.Profile, error) {
	if name == "" {
		name = core.DefaultProfileName
	}
	p, ok := core.FindProfile(c.profiles, name)
	if !ok {
		return core.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return p.Clone(), nil
}
