package arena

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"cogsarena.ai/internal/agent"
)

// agentState is the host side of one agent: the physical body the
// controller reads, its weapon and its reward account.
type agentState struct {
	id   string
	num  uint64
	name string
	team int

	pos    mgl64.Vec3
	yawDeg float64
	vel    mgl64.Vec3

	frozenTicks int
	carrying    int
	laser       bool

	// pending is the reward since the last OBS; cumulative is per match.
	pending    float64
	cumulative float64

	// Contact edge memory.
	zone     int
	touching map[string]bool

	anim *agent.AnimState
	ctrl *agent.Controller
}

var (
	_ agent.Body       = (*agentState)(nil)
	_ agent.Weapon     = (*agentState)(nil)
	_ agent.RewardSink = (*agentState)(nil)
)

func (a *agentState) Transform() agent.Transform {
	return agent.Transform{Position: a.pos, Rotation: agent.YawRotation(a.yawDeg)}
}

func (a *agentState) Velocity() mgl64.Vec3 { return a.vel }
func (a *agentState) Frozen() bool         { return a.frozenTicks > 0 }
func (a *agentState) Carrying() int        { return a.carrying }
func (a *agentState) Team() int            { return a.team }

func (a *agentState) SetLaser(on bool) { a.laser = on }
func (a *agentState) LaserOn() bool    { return a.laser }

func (a *agentState) AddReward(delta float64) {
	a.pending += delta
	a.cumulative += delta
}

// award prices a named event from the agent's own table.
func (a *agentState) award(event string) {
	a.AddReward(a.ctrl.Rewards().MustReward(event))
}

// resetForMatch clears everything a new match must not inherit.
func (a *agentState) resetForMatch(pos mgl64.Vec3, yawDeg float64, zone int) {
	a.pos = pos
	a.yawDeg = yawDeg
	a.vel = mgl64.Vec3{}
	a.frozenTicks = 0
	a.carrying = 0
	a.laser = false
	a.pending = 0
	a.cumulative = 0
	a.zone = zone
	a.touching = map[string]bool{}
	a.anim.Restore(nil)
	a.ctrl.RestoreEdgeState(false)
}

func (w *World) newAgent(num uint64, name string, team int) *agentState {
	a := &agentState{
		id:       fmt.Sprintf("A%d", num),
		num:      num,
		name:     name,
		team:     team,
		touching: map[string]bool{},
		anim:     agent.NewAnimState(),
	}
	a.ctrl = agent.NewController(agent.Config{
		Body:    a,
		Arena:   w,
		Weapon:  a,
		Anim:    a.anim,
		Sink:    a,
		Rewards: w.cfg.Rewards,
	})
	return a
}
