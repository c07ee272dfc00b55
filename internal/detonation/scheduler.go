// Package detonation turns an explosion spec into a staggered sequence of
// projectile launches. Runs are explicit state machines advanced by Tick on
// the simulation thread; nothing here starts a goroutine.
package detonation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/bombtrucks/extension/pkg/core"
	"github.com/bombtrucks/extension/pkg/host"
	"go.opentelemetry.io/otel/metric"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// State of a Run.
type State int

const (
	Idle State = iota
	Running
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// up is used when a random direction degenerates to zero length.
var up = core.Vec3{X: 0, Y: 1, Z: 0}

// Run is one detonation in progress.
type Run struct {
	id     uint64
	spec   core.ExplosionSpec
	origin core.Vec3
	state  State

	count      int
	step       int     // next step to fire
	start      float64 // scheduler clock at Start
	elapsed    float64 // offset of the next step
	prevTarget float64
	emitted    int
	cancel     bool
}

func (r *Run) ID() uint64 { return r.id }

func (r *Run) State() State { return r.state }

// Emitted counts fired projectiles, including the primary blast.
func (r *Run) Emitted() int { return r.emitted }

// Planned is the number of projectiles a run that is not cancelled fires.
func (r *Run) Planned() int { return r.count + 1 }

func (r *Run) Origin() core.Vec3 { return r.origin }

// Cancel stops the run at its next resume point. Nothing else is emitted.
func (r *Run) Cancel() { r.cancel = true }

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSource sets the random source used for distance jitter and
// directions. Runs are reproducible for a given seed.
func WithSource(src rand.Source) Option {
	return func(s *Scheduler) { s.src = src }
}

// WithLogger sets the logger for run lifecycle messages.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// Scheduler owns every active Run.
type Scheduler struct {
	projector host.Projector
	src       rand.Source
	log       *slog.Logger

	clock    float64
	runs     []*Run
	nextID   uint64
	shutdown bool

	started   metric.Int64Counter
	completed metric.Int64Counter
	cancelled metric.Int64Counter
	fired     metric.Int64Counter
}

// New creates a scheduler firing through projector.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(projector host.Projector, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		projector: projector,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.src == nil {
		s.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	m := meter()
	var err error

	s.started, err = m.Int64Counter("detonation.runs.started",
		metric.WithDescription("Detonation runs started"))
	if err != nil {
		return nil, fmt.Errorf("creating started counter: %w", err)
	}
	s.completed, err = m.Int64Counter("detonation.runs.completed",
		metric.WithDescription("Detonation runs that fired every planned projectile"))
	if err != nil {
		return nil, fmt.Errorf("creating completed counter: %w", err)
	}
	s.cancelled, err = m.Int64Counter("detonation.runs.cancelled",
		metric.WithDescription("Detonation runs stopped before completion"))
	if err != nil {
		return nil, fmt.Errorf("creating cancelled counter: %w", err)
	}
	s.fired, err = m.Int64Counter("detonation.projectiles.fired",
		metric.WithDescription("Sub-explosion projectiles launched"))
	if err != nil {
		return nil, fmt.Errorf("creating fired counter: %w", err)
	}

	return s, nil
}

// Start fires the primary blast at origin and schedules the rest of the
// sequence. Steps due immediately fire before Start returns. After
// Shutdown, Start returns a cancelled run and fires nothing.
func (s *Scheduler) Start(spec core.ExplosionSpec, origin core.Vec3) *Run {
	s.nextID++
	r := &Run{
		id:     s.nextID,
		spec:   spec,
		origin: origin,
		count:  spec.EventCount(),
		step:   1,
		start:  s.clock,
	}
	if s.shutdown {
		r.state = Cancelled
		return r
	}

	r.state = Running
	s.started.Add(context.Background(), 1)
	s.fire(r, core.FireCommand{
		Prefab:           core.PrefabExplosiveRocket,
		Position:         origin,
		Velocity:         core.Forward,
		TravelTime:       0,
		RadiusMultiplier: spec.BlastRadiusMult(),
		DamageMultiplier: spec.DamageMult(),
	})

	s.advance(r)
	if r.state == Running {
		s.runs = append(s.runs, r)
	}
	return r
}

// Tick advances the clock by dt and fires every step that became due.
func (s *Scheduler) Tick(dt time.Duration) {
	if dt > 0 {
		s.clock += dt.Seconds()
	}

	for i := 0; i < len(s.runs); i++ {
		s.advance(s.runs[i])
	}

	active := s.runs[:0]
	for _, r := range s.runs {
		if r.state == Running {
			active = append(active, r)
		}
	}
	clear(s.runs[len(active):])
	s.runs = active
}

// Shutdown cancels every run and makes later Starts no-ops.
func (s *Scheduler) Shutdown() {
	s.shutdown = true
	s.Tick(0)
}

// Active returns the number of running runs.
func (s *Scheduler) Active() int {
	return len(s.runs)
}

// Clock returns the scheduler time in seconds.
func (s *Scheduler) Clock() float64 {
	return s.clock
}

func (s *Scheduler) advance(r *Run) {
	for r.state == Running {
		if s.shutdown || r.cancel {
			r.state = Cancelled
			s.cancelled.Add(context.Background(), 1)
			s.log.Debug("Detonation cancelled", "run", r.id, "emitted", r.emitted, "planned", r.Planned())
			return
		}
		if r.step > r.count {
			r.state = Completed
			s.completed.Add(context.Background(), 1)
			s.log.Debug("Detonation complete", "run", r.id, "emitted", r.emitted)
			return
		}
		if r.start+r.elapsed > s.clock {
			return
		}
		s.fireStep(r)
	}
}

func (s *Scheduler) fireStep(r *Run) {
	target := targetDistance(r.spec, r.elapsed)
	actual := distuv.Uniform{Min: r.prevTarget, Max: target, Src: s.src}.Rand()
	speed := actual / TravelTime

	dir := s.domeVector()
	offset := r3.Scale(SkipDistance, dir)

	s.fire(r, core.FireCommand{
		Prefab:           core.PrefabExplosiveRocket,
		Position:         r3.Add(r.origin, offset),
		Velocity:         r3.Add(r3.Scale(speed, dir), offset),
		TravelTime:       TravelTime,
		RadiusMultiplier: r.spec.BlastRadiusMult(),
		DamageMultiplier: r.spec.DamageMult(),
	})

	r.elapsed += delayAfter(r.spec, r.step, r.elapsed)
	r.prevTarget = target
	r.step++
}

// domeVector returns a random unit vector on the upper hemisphere.
func (s *Scheduler) domeVector() core.Vec3 {
	horizontal := distuv.Uniform{Min: -1, Max: 1, Src: s.src}
	vertical := distuv.Uniform{Min: 0, Max: 1, Src: s.src}

	v := core.Vec3{X: horizontal.Rand(), Y: vertical.Rand(), Z: horizontal.Rand()}
	n := r3.Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return up
	}
	return r3.Scale(1/n, v)
}

func (s *Scheduler) fire(r *Run, cmd core.FireCommand) {
	s.projector.FireProjectile(cmd)
	r.emitted++
	s.fired.Add(context.Background(), 1)
}
