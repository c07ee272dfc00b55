package coordinator

import (
	"errors"
	"time"

	"github.com/bombtrucks/extension/internal/dispatcher"
	"github.com/bombtrucks/extension/internal/util"
	"github.com/bombtrucks/extension/pkg/core"
)

// RegisterHandlers registers every host command with d.
func (c *Coordinator) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(":VERSION:", func(e dispatcher.Event) (any, error) {
		spawner := ""
		if c.spawner != nil {
			spawner = c.spawner.Version()
		}
		return []string{c.version, spawner}, nil
	})

	// [owner, profile?, position?]
	d.Register(":BOMB:SPAWN:", func(e dispatcher.Event) (any, error) {
		owner, profile, pos, err := parseSpawnArgs(e.Args)
		if err != nil {
			return nil, err
		}
		res, err := c.Spawn(owner, profile, pos)
		if err != nil {
			return nil, err
		}
		return spawnReply(res), nil
	}, dispatcher.Logged())

	// [target, profile?, position?]
	d.Register(":BOMB:GIVE:", func(e dispatcher.Event) (any, error) {
		owner, profile, pos, err := parseSpawnArgs(e.Args)
		if err != nil {
			return nil, err
		}
		res, err := c.Give(owner, profile, pos)
		if err != nil {
			return nil, err
		}
		return spawnReply(res), nil
	}, dispatcher.Logged())

	// [owner] -> [[profile, used, limit, remainingSeconds], ...]
	d.Register(":BOMB:HELP:", func(e dispatcher.Event) (any, error) {
		owner, err := util.Arg(e.Args, 0)
		if err != nil {
			return nil, err
		}
		entries := c.HelpEntries(core.OwnerID(owner))
		out := make([][]any, 0, len(entries))
		for _, h := range entries {
			out = append(out, []any{h.Profile, h.Used, h.Limit, int64(h.Remaining / time.Second)})
		}
		return out, nil
	})

	// [entityId]
	d.Register(":BOMB:DETONATE:", func(e dispatcher.Event) (any, error) {
		id, err := entityArg(e.Args, 0)
		if err != nil {
			return nil, err
		}
		return nil, c.Detonate(id)
	}, dispatcher.Logged())

	// [entityId] -> bool
	d.Register(":BOMB:TRACKED:", func(e dispatcher.Event) (any, error) {
		id, err := entityArg(e.Args, 0)
		if err != nil {
			return nil, err
		}
		return c.IsTracked(id), nil
	})

	// [frequency] -> detonated count
	d.Register(":RF:BROADCAST:", func(e dispatcher.Event) (any, error) {
		ch, err := intArg(e.Args, 0)
		if err != nil {
			return nil, err
		}
		return c.Broadcast(ch), nil
	}, dispatcher.Logged())

	// [receiverId, frequency]
	d.Register(":RF:LISTENER:ADDED:", func(e dispatcher.Event) (any, error) {
		handle, ch, err := listenerArgs(e.Args)
		if err != nil {
			return nil, err
		}
		c.ListenerAdded(handle, ch)
		return "queued", nil
	})

	d.Register(":RF:LISTENER:REMOVED:", func(e dispatcher.Event) (any, error) {
		handle, ch, err := listenerArgs(e.Args)
		if err != nil {
			return nil, err
		}
		c.ListenerRemoved(handle, ch)
		return nil, nil
	})

	// [dtSeconds?] -> active runs
	d.Register(":TICK:", func(e dispatcher.Event) (any, error) {
		var dt time.Duration
		if len(e.Args) > 0 {
			secs, err := util.ParseFloat(e.Args[0])
			if err != nil {
				return nil, err
			}
			dt = time.Duration(secs * float64(time.Second))
		}
		c.Tick(dt)
		return c.scheduler.Active(), nil
	})

	d.Register(":NEW:SAVE:", func(e dispatcher.Event) (any, error) {
		return nil, c.HandleNewSave()
	}, dispatcher.Logged())

	d.Register(":STATUS:", func(e dispatcher.Event) (any, error) {
		return c.Status(), nil
	})
}

func parseSpawnArgs(args []string) (core.OwnerID, string, core.Vec3, error) {
	owner, err := util.Arg(args, 0)
	if err != nil {
		return "", "", core.Vec3{}, err
	}
	if owner == "" {
		return "", "", core.Vec3{}, errors.New("owner is empty")
	}

	var profile string
	if len(args) > 1 {
		profile = util.Clean(args[1])
	}

	var pos core.Vec3
	if len(args) > 2 {
		pos, err = util.ParseVec3(args[2])
		if err != nil {
			return "", "", core.Vec3{}, err
		}
	}
	return core.OwnerID(owner), profile, pos, nil
}

func spawnReply(res SpawnResult) []any {
	return []any{uint64(res.Vehicle), res.Profile, res.Frequency}
}

func entityArg(args []string, i int) (core.EntityID, error) {
	s, err := util.Arg(args, i)
	if err != nil {
		return 0, err
	}
	return util.ParseEntityID(s)
}

func intArg(args []string, i int) (int, error) {
	s, err := util.Arg(args, i)
	if err != nil {
		return 0, err
	}
	return util.ParseInt(s)
}

func listenerArgs(args []string) (core.EntityID, int, error) {
	handle, err := entityArg(args, 0)
	if err != nil {
		return 0, 0, err
	}
	ch, err := intArg(args, 1)
	if err != nil {
		return 0, 0, err
	}
	return handle, ch, nil
}
