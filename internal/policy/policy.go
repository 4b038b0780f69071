// Package policy holds client-side decision makers that turn an OBS into an
// action vector.
package policy

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/protocol"
)

// Policy chooses the next action from the latest observation.
type Policy interface {
	Act(obs protocol.ObsMsg) agent.ActionVector
}

// Func adapts a plain function to Policy.
type Func func(protocol.ObsMsg) agent.ActionVector

func (f Func) Act(obs protocol.ObsMsg) agent.ActionVector { return f(obs) }

// bearing returns the signed angle in degrees from the agent's heading to
// the point p on the XZ plane. Positive is to the right.
func bearing(self protocol.SelfObs, p [3]float64) float64 {
	tr := agent.Transform{
		Position: mgl64.Vec3{self.Pos[0], 0, self.Pos[2]},
		Rotation: agent.YawRotation(self.Yaw),
	}
	return agent.HeadingDelta(tr, mgl64.Vec3{p[0], 0, p[2]})
}

func planarDist(a, b [3]float64) float64 {
	return planar.Distance(orb.Point{a[0], a[2]}, orb.Point{b[0], b[2]})
}
