package agent

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// HeadingDeadband is the half-width, in degrees, of the cone in which
// TurnAndGo advances instead of turning.
const HeadingDeadband = 5.0

// MaxSeekDistance bounds NearestTarget; targets this far or farther are
// never chosen.
const MaxSeekDistance = 200.0

// NearestTarget returns the closest target on the ground plane that is free
// and not already sitting in team's base. Ties keep the earlier target.
func NearestTarget(from mgl64.Vec3, team int, targets []Target) (Target, bool) {
	var (
		best  Target
		found bool
		bestD = MaxSeekDistance
	)
	origin := planarPoint(from)
	for _, t := range targets {
		if t.Carried != 0 || t.InBase == team {
			continue
		}
		d := planar.Distance(origin, planarPoint(t.Position))
		if d < bestD {
			best, bestD, found = t, d, true
		}
	}
	return best, found
}

func planarPoint(v mgl64.Vec3) orb.Point { return orb.Point{v.X(), v.Z()} }

// HeadingDelta is the signed angle in degrees, in (-180,180], from the
// agent's forward axis to the direction of target, measured about WorldUp.
// Positive means the target is to the right.
func HeadingDelta(self Transform, target mgl64.Vec3) float64 {
	dir := target.Sub(self.Position)
	return signedAngle(self.Forward(), dir, WorldUp)
}

func signedAngle(from, to, axis mgl64.Vec3) float64 {
	cross := from.Cross(to)
	angle := mgl64.RadToDeg(math.Atan2(cross.Len(), from.Dot(to)))
	if axis.Dot(cross) < 0 {
		angle = -angle
	}
	return angle
}

// TurnAndGo is a bang-bang heading controller: outside the deadband it
// turns toward the target, inside it advances. It never does both.
func TurnAndGo(angle float64, self Transform) Intent {
	switch {
	case angle < -HeadingDeadband:
		return Intent{RotateDir: self.Up().Mul(-1)}
	case angle > HeadingDeadband:
		return Intent{RotateDir: self.Up()}
	default:
		return Intent{DirToGo: self.Forward()}
	}
}
