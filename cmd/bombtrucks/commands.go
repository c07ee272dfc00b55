package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/bombtrucks/extension/internal/config"
	"github.com/bombtrucks/extension/internal/coordinator"
	"github.com/bombtrucks/extension/internal/detonation"
	"github.com/bombtrucks/extension/internal/dispatcher"
	"github.com/bombtrucks/extension/internal/logging"
	"github.com/bombtrucks/extension/internal/simworld"
	"github.com/bombtrucks/extension/internal/storage"
	"github.com/bombtrucks/extension/internal/storage/memory"
	"github.com/bombtrucks/extension/internal/util"
	"github.com/bombtrucks/extension/pkg/core"
)

// demoOwner spawns every vehicle in a simulation.
const demoOwner = "76561190000000000"

var demoSpawn = core.Vec3{X: 120, Y: 0, Z: -40}

const (
	simTick  = 50 * time.Millisecond
	maxTicks = 10_000
)

func loadProfiles() ([]core.Profile, error) {
	profiles, err := config.GetProfiles()
	if err != nil {
		if len(profiles) == 0 {
			return nil, fmt.Errorf("read profiles: %w", err)
		}
		fmt.Fprintln(os.Stderr, "skipping profiles:", err)
	}
	for i := range profiles {
		profiles[i].Normalize()
	}
	core.SortProfiles(profiles)
	return profiles, nil
}

func printProfiles(w io.Writer) error {
	profiles, err := loadProfiles()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROFILE\tLIMIT\tCOOLDOWN\tRECEIVER\tRADIUS\tEVENTS\tDURATION")
	for _, p := range profiles {
		spec := p.Spec()
		fmt.Fprintf(tw, "%s\t%d\t%s\t%t\t%g\t%d\t%.2fs\n",
			p.Name,
			p.SpawnLimitPerPlayer,
			time.Duration(p.CooldownSeconds)*time.Second,
			p.AttachReceiver,
			spec.Radius(),
			spec.EventCount(),
			spec.TotalTime())
	}
	return tw.Flush()
}

func printPlan(w io.Writer, name string) error {
	profiles, err := loadProfiles()
	if err != nil {
		return err
	}
	p, ok := core.FindProfile(profiles, name)
	if !ok {
		return fmt.Errorf("%w: %s", coordinator.ErrProfileNotFound, name)
	}

	spec := p.Spec()
	fmt.Fprintf(w, "%s: %d sub-explosions over %.3fs, radius %g\n", p.Name, spec.EventCount(), spec.TotalTime(), spec.Radius())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "STEP\tOFFSET\tDISTANCE\t")
	for _, step := range detonation.Timeline(spec) {
		fmt.Fprintf(tw, "%d\t%.4f\t%.3f\t\n", step.Index, step.Offset, step.TargetDistance)
	}
	return tw.Flush()
}

func printLedger(w io.Writer) error {
	backend, err := storage.NewBackend(config.GetStorageConfig())
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer backend.Close()

	doc, err := backend.Load()
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	owners := make([]string, 0, len(doc.Owners))
	for id := range doc.Owners {
		owners = append(owners, string(id))
	}
	sort.Strings(owners)

	fmt.Fprintf(w, "%d owners, %d records\n", len(owners), doc.RecordCount())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OWNER\tENTITY\tPROFILE\tTRACKED")
	for _, id := range owners {
		entry := doc.Owners[core.OwnerID(id)]
		for _, rec := range entry.Records {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%t\n", id, rec.EntityID, rec.ProfileName, rec.Tracked)
		}
		for profile, ts := range entry.Cooldowns {
			fmt.Fprintf(tw, "%s\t-\t%s\tlast spawn %s\n", id, profile, time.Unix(ts, 0).UTC().Format(time.RFC3339))
		}
	}
	return tw.Flush()
}

// simulate spawns one vehicle of profile in a fresh in-memory world, sets it
// off and ticks until the detonation finishes.
func simulate(w io.Writer, profileName string) error {
	var sim logging.LateSource
	rt, err := setupRuntime(&sim)
	if err != nil {
		return err
	}
	defer rt.close()
	log := rt.logs.Logger()

	profiles, err := loadProfiles()
	if err != nil {
		return err
	}

	world := simworld.New()
	c, err := coordinator.New(coordinator.Dependencies{
		World:             world,
		Spawner:           world,
		AntiGrief:         world,
		Projector:         world,
		Storage:           memory.New(),
		Profiles:          profiles,
		NoEscape:          config.GetNoEscapeConfig(),
		MinSpawnerVersion: config.GetSpawnerMinVersion(),
		Bus:               rt.bus,
		Logger:            log,
		Version:           CurrentExtensionVersion,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Shutdown(); err != nil {
			log.Error("Shutdown failed", "error", err)
		}
	}()
	sim.Bind(c)
	defer sim.Bind(nil)
	if _, err := c.Start(); err != nil {
		return err
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(log))
	if err != nil {
		return err
	}
	c.RegisterHandlers(d)

	call := func(cmd string, args ...string) (any, error) {
		res, err := d.Dispatch(dispatcher.Event{Command: cmd, Args: args})
		fmt.Fprintln(w, dispatcher.FormatResponse(cmd, res, err))
		return res, err
	}

	res, err := call(":BOMB:SPAWN:", demoOwner, profileName, util.FormatVec3(demoSpawn))
	if err != nil {
		return err
	}
	reply := res.([]any)
	id, freq := reply[0].(uint64), reply[2].(int)

	if freq != 0 {
		_, err = call(":RF:BROADCAST:", strconv.Itoa(freq))
	} else {
		_, err = call(":BOMB:DETONATE:", strconv.FormatUint(id, 10))
	}
	if err != nil {
		return err
	}

	ticks := 0
	for ; ticks < maxTicks && c.Status().ActiveRuns > 0; ticks++ {
		c.Tick(simTick)
	}

	fired := world.Fired()
	fmt.Fprintf(w, "fired %d projectiles in %s (%d ticks)\n", len(fired), time.Duration(ticks)*simTick, ticks)
	fmt.Fprintf(w, "observers left on vehicle %d: %d\n", id, world.Observers(core.EntityID(id)))

	totals, err := json.Marshal(rt.telemetry.Totals())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "telemetry %s\n", totals)
	_, err = call(":STATUS:")
	return err
}
