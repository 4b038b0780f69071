package agent

import "github.com/go-gl/mathgl/mgl64"

// CarryWalkThreshold: above this many carried targets the run animation
// switches from Moving to the slower Walking.
const CarryWalkThreshold = 3

type Config struct {
	Body    Body
	Arena   Arena
	Weapon  Weapon
	Anim    Animator
	Sink    RewardSink
	Rewards RewardTable
}

// Controller is the decision-to-actuation layer of a single agent. It is not
// safe for concurrent use; the host calls it from its tick goroutine only.
type Controller struct {
	body    Body
	arena   Arena
	weapon  Weapon
	anim    Animator
	sink    RewardSink
	rewards RewardTable

	intent Intent

	// wasFrozen is the frozen flag seen by the previous FixedUpdate. The
	// "hit" trigger fires only on the Active -> Frozen edge.
	wasFrozen bool
}

var _ Actuatable = (*Controller)(nil)

func NewController(cfg Config) *Controller {
	return &Controller{
		body:    cfg.Body,
		arena:   cfg.Arena,
		weapon:  cfg.Weapon,
		anim:    cfg.Anim,
		sink:    cfg.Sink,
		rewards: cfg.Rewards,
	}
}

// ObservationSize is the feature count Observe produces for n targets.
func ObservationSize(n int) int { return 11 + 5*n }

// Observe builds the feature vector. It only reads state.
func (c *Controller) Observe() []float64 {
	targets := c.arena.Targets()
	obs := make([]float64, 0, ObservationSize(len(targets)))

	tr := c.body.Transform()
	local := tr.InverseTransformDirection(c.body.Velocity())
	obs = append(obs, local.X(), local.Z())

	obs = append(obs, c.arena.TimeRemaining())
	obs = append(obs, tr.Rotation.Y())

	base := c.arena.HomeBase(c.body.Team())
	obs = appendVec(obs, tr.Position)
	obs = appendVec(obs, base)

	for _, t := range targets {
		obs = appendVec(obs, t.Position)
		obs = append(obs, float64(t.Carried), float64(t.InBase))
	}

	obs = append(obs, boolFloat(c.body.Frozen()))
	return obs
}

func appendVec(dst []float64, v mgl64.Vec3) []float64 {
	return append(dst, v.X(), v.Y(), v.Z())
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// DecideAndAct decodes one action vector into intents, weapon state and
// animation flags.
//
// When both seek bits are set only the base seek runs. A seek that finds
// somewhere to go replaces both manual axes, including the one TurnAndGo
// does not set: a manual rotate sent with a seek that decides to advance is
// dropped, and so is a manual forward when it decides to turn. The result
// turns or advances, never both.
func (c *Controller) DecideAndAct(a ActionVector) {
	a = a.Clamp()
	tr := c.body.Transform()

	var in Intent
	running := false

	switch a.Forward() {
	case ForwardAhead:
		in.DirToGo = tr.Forward()
		running = true
	case ForwardBackward:
		in.DirToGo = tr.Forward().Mul(-1)
		running = true
	}

	switch a.Rotate() {
	case RotateRight:
		in.RotateDir = tr.Up()
	case RotateLeft:
		in.RotateDir = tr.Up().Mul(-1)
	}

	if a.Shoot() {
		c.weapon.SetLaser(true)
		c.anim.SetBool(AnimAttacking, c.weapon.LaserOn() && !c.body.Frozen())
	} else {
		c.anim.SetBool(AnimAttacking, false)
		c.weapon.SetLaser(false)
	}

	switch {
	case a.SeekBase():
		in = c.goToBase(tr)
		running = true
	case a.SeekTarget():
		if nav, ok := c.goToNearestTarget(tr); ok {
			in = nav
		}
		running = true
	}

	c.intent = in
	c.runAnimation(running)
}

func (c *Controller) goToBase(tr Transform) Intent {
	home := c.arena.HomeBase(c.body.Team())
	return TurnAndGo(HeadingDelta(tr, home), tr)
}

func (c *Controller) goToNearestTarget(tr Transform) (Intent, bool) {
	t, ok := NearestTarget(tr.Position, c.body.Team(), c.arena.Targets())
	if !ok {
		return Intent{}, false
	}
	return TurnAndGo(HeadingDelta(tr, t.Position), tr), true
}

func (c *Controller) runAnimation(running bool) {
	switch {
	case !running:
		c.anim.SetBool(AnimMoving, false)
		c.anim.SetBool(AnimWalking, false)
	case c.body.Carrying() > CarryWalkThreshold:
		c.anim.SetBool(AnimMoving, false)
		c.anim.SetBool(AnimWalking, true)
	default:
		c.anim.SetBool(AnimMoving, true)
		c.anim.SetBool(AnimWalking, false)
	}
}

// FixedUpdate runs once per simulation step: it advances the frozen
// animation state machine and hands the current intent to the host.
//
//	prev    now     effect
//	Active  Frozen  trigger "hit", Frozen=true
//	Frozen  Frozen  Frozen=true
//	Frozen  Active  Frozen=false
//	Active  Active  Frozen=false
func (c *Controller) FixedUpdate() Intent {
	frozen := c.body.Frozen()
	if frozen && !c.wasFrozen {
		c.anim.SetTrigger(AnimHit)
	}
	c.anim.SetBool(AnimFrozen, frozen)
	c.wasFrozen = frozen
	return c.intent
}

// OnCollision applies rewards for deposit and pickup events. It runs before
// the host resolves the event, so Carrying is the pre-deposit count.
func (c *Controller) OnCollision(ev Event) {
	team := c.body.Team()
	switch {
	case ev.Kind == EventTrigger && ev.Tag == TagHomeBase && ev.Team == team:
		n := c.body.Carrying()
		c.sink.AddReward(c.rewards.MustReward(RewardOneBallInBase) * float64(n))
		if n > 0 {
			c.anim.SetTrigger(AnimPickUp)
		}
	case ev.Kind == EventCollision && ev.Tag == TagTarget && ev.InBase != team && ev.Carried == 0 && !c.body.Frozen():
		c.sink.AddReward(c.rewards.MustReward(RewardPickUpOneBall))
		c.anim.SetTrigger(AnimPickUp)
	}
}

// Intent returns the intent of the last DecideAndAct.
func (c *Controller) Intent() Intent { return c.intent }

// Rewards exposes the table so the host can price its own events.
func (c *Controller) Rewards() RewardTable { return c.rewards }

// EdgeState and RestoreEdgeState carry the frozen-edge memory across
// snapshots.
func (c *Controller) EdgeState() bool                 { return c.wasFrozen }
func (c *Controller) RestoreEdgeState(wasFrozen bool) { c.wasFrozen = wasFrozen }
