package arena

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/persistence/snapshot"
)

// ExportSnapshot captures the arena after nowTick has been simulated.
// Loop goroutine only.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	s := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			ArenaID: w.cfg.ID,
			Tick:    nowTick,
			Match:   w.match,
		},
		Seed:               w.cfg.Seed,
		TickRate:           w.cfg.TickRateHz,
		MatchTicks:         w.cfg.MatchTicks,
		SnapshotEveryTicks: w.cfg.SnapshotEveryTicks,
		HalfSize:           w.cfg.HalfSize,
		BaseHalfSize:       w.cfg.BaseHalfSize,
		TargetCount:        w.cfg.Targets,
		MoveSpeed:          w.cfg.MoveSpeed,
		TurnSpeedDeg:       w.cfg.TurnSpeedDeg,
		PickupRadius:       w.cfg.PickupRadius,
		LaserRange:         w.cfg.LaserRange,
		LaserConeDeg:       w.cfg.LaserConeDeg,
		FreezeTicks:        w.cfg.FreezeTicks,
		Rewards:            w.cfg.Rewards.Map(),
		MatchTick:          w.matchTick,
		Score:              w.Score(),
		NextAgentNum:       w.nextAgentNum.Load(),
	}
	if r := w.lastResult; r != nil {
		s.LastResult = &snapshot.MatchResultV1{
			Match:   r.Match,
			EndTick: r.EndTick,
			Score:   r.Score,
			Winner:  r.Winner,
			Rewards: r.Rewards,
		}
	}
	for _, id := range w.order {
		a := w.agents[id]
		av := snapshot.AgentV1{
			ID:          a.id,
			Name:        a.name,
			Team:        a.team,
			Pos:         vec3(a.pos),
			YawDeg:      a.yawDeg,
			Vel:         vec3(a.vel),
			FrozenTicks: a.frozenTicks,
			Carrying:    a.carrying,
			Laser:       a.laser,
			Cumulative:  a.cumulative,
			WasFrozen:   a.ctrl.EdgeState(),
			Zone:        a.zone,
			AnimActive:  a.anim.ActiveBools(),
		}
		for tid := range a.touching {
			av.Touching = append(av.Touching, tid)
		}
		sort.Strings(av.Touching)
		s.Agents = append(s.Agents, av)
	}
	for _, t := range w.targets {
		s.Targets = append(s.Targets, snapshot.TargetV1{
			ID:      t.id,
			Pos:     vec3(t.pos),
			Carried: t.carried,
			Carrier: t.carrier,
			InBase:  t.inBase,
		})
	}
	return s
}

// ConfigFromSnapshot rebuilds the config a snapshot was taken with.
func ConfigFromSnapshot(s snapshot.SnapshotV1) (Config, error) {
	rt, err := agent.NewRewardTable(s.Rewards)
	if err != nil {
		return Config{}, fmt.Errorf("snapshot rewards: %w", err)
	}
	return Config{
		ID:                 s.Header.ArenaID,
		TickRateHz:         s.TickRate,
		MatchTicks:         s.MatchTicks,
		Seed:               s.Seed,
		SnapshotEveryTicks: s.SnapshotEveryTicks,
		MaxAgents:          DefaultMaxAgents,
		HalfSize:           s.HalfSize,
		BaseHalfSize:       s.BaseHalfSize,
		Targets:            s.TargetCount,
		MoveSpeed:          s.MoveSpeed,
		TurnSpeedDeg:       s.TurnSpeedDeg,
		PickupRadius:       s.PickupRadius,
		LaserRange:         s.LaserRange,
		LaserConeDeg:       s.LaserConeDeg,
		FreezeTicks:        s.FreezeTicks,
		Rewards:            rt,
	}, nil
}

// ImportSnapshot replaces the in-memory arena with the snapshot and sets
// the tick to snapshotTick+1 (the next tick to simulate). Imported agents
// have no client until they are replaced by a fresh join.
//
// This must be called only when the arena is stopped or from the loop goroutine.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("snapshot version %d: unsupported", s.Header.Version)
	}
	w.match = s.Header.Match
	w.matchTick = s.MatchTick
	w.nextAgentNum.Store(s.NextAgentNum)
	w.lastResult = nil
	if r := s.LastResult; r != nil {
		w.lastResult = &MatchResult{
			Match:   r.Match,
			EndTick: r.EndTick,
			Score:   r.Score,
			Winner:  r.Winner,
			Rewards: r.Rewards,
		}
	}

	w.targets = w.targets[:0]
	for _, tv := range s.Targets {
		w.targets = append(w.targets, &target{
			id:      tv.ID,
			pos:     mgl64.Vec3(tv.Pos),
			carried: tv.Carried,
			carrier: tv.Carrier,
			inBase:  tv.InBase,
		})
	}

	w.agents = map[string]*agentState{}
	w.clients = map[string]*clientState{}
	for _, av := range s.Agents {
		var num uint64
		if _, err := fmt.Sscanf(av.ID, "A%d", &num); err != nil {
			return fmt.Errorf("snapshot agent id %q: %w", av.ID, err)
		}
		if av.Team < 1 || av.Team > 2 {
			return fmt.Errorf("snapshot agent %s: bad team %d", av.ID, av.Team)
		}
		a := w.newAgent(num, av.Name, av.Team)
		a.pos = mgl64.Vec3(av.Pos)
		a.yawDeg = av.YawDeg
		a.vel = mgl64.Vec3(av.Vel)
		a.frozenTicks = av.FrozenTicks
		a.carrying = av.Carrying
		a.laser = av.Laser
		a.cumulative = av.Cumulative
		a.zone = av.Zone
		for _, tid := range av.Touching {
			a.touching[tid] = true
		}
		a.anim.Restore(av.AnimActive)
		a.ctrl.RestoreEdgeState(av.WasFrozen)
		w.agents[a.id] = a
	}
	w.sortAgents()
	w.tick.Store(s.Header.Tick + 1)
	return nil
}
