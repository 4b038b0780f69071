package policy

import (
	"math"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/protocol"
)

// Scripted collects targets until it carries CarryGoal of them, then heads
// home. It fires whenever an unfrozen enemy is inside its shooting cone.
type Scripted struct {
	CarryGoal    int
	ShootRange   float64
	ShootConeDeg float64
}

func DefaultScripted() Scripted {
	return Scripted{CarryGoal: 2, ShootRange: 12, ShootConeDeg: 10}
}

func (s Scripted) Act(obs protocol.ObsMsg) agent.ActionVector {
	var a agent.ActionVector
	self := obs.Self
	if self.Frozen {
		return a
	}

	goal := s.CarryGoal
	if goal <= 0 {
		goal = 1
	}
	if self.Carrying >= goal || (self.Carrying > 0 && !s.anyFree(obs)) {
		a[agent.SlotSeekBase] = 1
	} else {
		a[agent.SlotSeekTarget] = 1
	}

	if s.enemyInCone(obs) {
		a[agent.SlotShoot] = 1
	}
	return a
}

// anyFree reports whether a target exists that this agent may pick up.
func (s Scripted) anyFree(obs protocol.ObsMsg) bool {
	for _, t := range obs.Targets {
		if t.Carried == 0 && t.InBase != obs.Self.Team {
			return true
		}
	}
	return false
}

func (s Scripted) enemyInCone(obs protocol.ObsMsg) bool {
	for _, o := range obs.Agents {
		if o.Team == obs.Self.Team || o.Frozen {
			continue
		}
		if s.ShootRange > 0 && planarDist(obs.Self.Pos, o.Pos) > s.ShootRange {
			continue
		}
		if math.Abs(bearing(obs.Self, o.Pos)) <= s.ShootConeDeg {
			return true
		}
	}
	return false
}
