package arena

import (
	"github.com/go-gl/mathgl/mgl64"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/protocol"
)

func vec3(v mgl64.Vec3) [3]float64 { return [3]float64{v.X(), v.Y(), v.Z()} }

func (w *World) buildObs(a *agentState, nowTick uint64, done bool, triggers []string, score [2]int) protocol.ObsMsg {
	obs := protocol.ObsMsg{
		Type:             protocol.TypeObs,
		ProtocolVersion:  protocol.Version,
		Tick:             nowTick,
		AgentID:          a.id,
		Match:            w.match,
		Features:         a.ctrl.Observe(),
		Reward:           a.pending,
		CumulativeReward: a.cumulative,
		Done:             done,
		TimeRemaining:    w.TimeRemaining(),
		Self: protocol.SelfObs{
			Pos:      vec3(a.pos),
			Yaw:      a.yawDeg,
			Team:     a.team,
			Carrying: a.carrying,
			Frozen:   a.Frozen(),
			Laser:    a.laser,
			HomeBase: vec3(w.HomeBase(a.team)),
		},
		Anim: protocol.AnimObs{
			Active:   a.anim.ActiveBools(),
			Triggers: triggers,
		},
		Score: score,
	}
	obs.Targets = make([]protocol.TargetObs, 0, len(w.targets))
	for _, t := range w.targets {
		obs.Targets = append(obs.Targets, protocol.TargetObs{ID: t.id, Pos: vec3(t.pos), Carried: t.carried, InBase: t.inBase})
	}
	for _, id := range w.order {
		if id == a.id {
			continue
		}
		o := w.agents[id]
		obs.Agents = append(obs.Agents, protocol.AgentObs{ID: o.id, Team: o.team, Pos: vec3(o.pos), Frozen: o.Frozen()})
	}
	return obs
}

// Observe returns the feature vector of one agent, or nil if it is unknown.
// Loop goroutine only.
func (w *World) Observe(agentID string) []float64 {
	a := w.agents[agentID]
	if a == nil {
		return nil
	}
	return a.ctrl.Observe()
}

// Controller exposes an agent's controller to in-process drivers and tests.
// Loop goroutine only.
func (w *World) Controller(agentID string) agent.Actuatable {
	a := w.agents[agentID]
	if a == nil {
		return nil
	}
	return a.ctrl
}
