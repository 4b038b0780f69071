// Package agent turns a policy's per-tick action vector into movement,
// rotation, shooting and animation intents for one arena agent, and keeps the
// reward bookkeeping that training needs.
//
// The package never simulates anything itself. Everything it reads or writes
// goes through the small capability interfaces below, which the arena host
// (internal/sim/arena) implements.
package agent

import "github.com/go-gl/mathgl/mgl64"

// WorldUp is the fixed reference axis for yaw and heading signs.
var WorldUp = mgl64.Vec3{0, 1, 0}

var worldForward = mgl64.Vec3{0, 0, 1}

// Transform is an arena-local pose. Rotation is a pure yaw in practice but any
// unit quaternion works.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

func (t Transform) Forward() mgl64.Vec3 { return t.Rotation.Rotate(worldForward) }
func (t Transform) Up() mgl64.Vec3      { return t.Rotation.Rotate(WorldUp) }

// InverseTransformDirection maps a world direction into the agent's frame.
func (t Transform) InverseTransformDirection(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Inverse().Rotate(v)
}

// YawRotation builds a rotation of deg degrees about WorldUp. Positive yaw
// turns the forward axis from +Z toward +X.
func YawRotation(deg float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(deg), WorldUp)
}

// Target is a read-only view of a collectible.
type Target struct {
	ID       string
	Position mgl64.Vec3
	// Carried is 0 when free, else the carrier's team id.
	Carried int
	// InBase is 0 outside any base, else the owning team id.
	InBase int
}

// Body is the physical state of the agent as the host integrates it.
type Body interface {
	Transform() Transform
	Velocity() mgl64.Vec3
	Frozen() bool
	Carrying() int
	Team() int
}

// Arena is the world as one agent sees it. Targets must come back in the
// same order on every call so observation layouts stay stable.
type Arena interface {
	Targets() []Target
	HomeBase(team int) mgl64.Vec3
	TimeRemaining() float64
}

type Weapon interface {
	SetLaser(on bool)
	LaserOn() bool
}

type Animator interface {
	Bool(name string) bool
	SetBool(name string, v bool)
	SetTrigger(name string)
}

type RewardSink interface {
	AddReward(delta float64)
}

// Actuatable is what an external driver needs to run an agent: read
// features, hand over a decision, forward world events.
type Actuatable interface {
	Observe() []float64
	DecideAndAct(a ActionVector)
	OnCollision(ev Event)
}

// Intent is the navigation output of one decision. Both vectors are rebuilt
// from zero on every DecideAndAct.
type Intent struct {
	DirToGo   mgl64.Vec3
	RotateDir mgl64.Vec3
}

func (in Intent) Advancing() bool { return in.DirToGo.LenSqr() > 0 }
func (in Intent) Rotating() bool  { return in.RotateDir.LenSqr() > 0 }
