package main

import (
	"fmt"

	persistlog "cogsarena.ai/internal/persistence/log"
	"cogsarena.ai/internal/protocol"
	"cogsarena.ai/internal/sim/arena"
)

type rewardTotal struct {
	Events int
	Sum    float64
}

type result struct {
	StartTick uint64
	Checked   uint64
	Matches   []arena.MatchResult
	Rewards   map[string]rewardTotal
}

// replay steps w through the tick log in dir and checks every digest from
// verifyFrom on. Entries before the arena's current tick are skipped.
func replay(w *arena.World, dir string, verifyFrom, toTick uint64) (result, error) {
	res := result{StartTick: w.CurrentTick(), Rewards: map[string]rewardTotal{}}
	if verifyFrom == 0 {
		verifyFrom = res.StartTick
	}

	err := persistlog.ScanTicks(dir, func(entry arena.TickLogEntry) error {
		if entry.Tick < res.StartTick {
			return nil
		}
		if toTick != 0 && entry.Tick > toTick {
			return persistlog.ErrStop
		}
		if entry.Tick != w.CurrentTick() {
			return fmt.Errorf("tick mismatch: want=%d got=%d", w.CurrentTick(), entry.Tick)
		}

		joins := make([]arena.JoinRequest, 0, len(entry.Joins))
		for _, j := range entry.Joins {
			joins = append(joins, arena.JoinRequest{Name: j.Name, Team: j.Team})
		}
		acts := make([]arena.ActionEnvelope, 0, len(entry.Actions))
		for _, ra := range entry.Actions {
			ra := ra // per-iteration copy: Action below slices ra's array
			acts = append(acts, arena.ActionEnvelope{
				AgentID: ra.AgentID,
				Act:     protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Tick: entry.Tick, Action: ra.Action[:]},
			})
		}

		tick, digest := w.StepOnce(joins, entry.Leaves, acts)
		if tick != entry.Tick {
			return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, entry.Tick)
		}
		if tick >= verifyFrom {
			res.Checked++
			if digest != entry.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, digest, entry.Digest)
			}
		}

		for _, r := range entry.Rewards {
			t := res.Rewards[r.AgentID]
			t.Events++
			t.Sum += r.Delta
			res.Rewards[r.AgentID] = t
		}
		if entry.MatchEnd != nil {
			res.Matches = append(res.Matches, *entry.MatchEnd)
		}
		return nil
	})
	return res, err
}
