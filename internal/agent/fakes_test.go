package agent

import "github.com/go-gl/mathgl/mgl64"

type fakeBody struct {
	tr       Transform
	vel      mgl64.Vec3
	frozen   bool
	carrying int
	team     int
}

func (b *fakeBody) Transform() Transform { return b.tr }
func (b *fakeBody) Velocity() mgl64.Vec3 { return b.vel }
func (b *fakeBody) Frozen() bool         { return b.frozen }
func (b *fakeBody) Carrying() int        { return b.carrying }
func (b *fakeBody) Team() int            { return b.team }

type fakeArena struct {
	targets []Target
	bases   map[int]mgl64.Vec3
	left    float64
}

func (a *fakeArena) Targets() []Target            { return a.targets }
func (a *fakeArena) HomeBase(team int) mgl64.Vec3 { return a.bases[team] }
func (a *fakeArena) TimeRemaining() float64       { return a.left }

type fakeWeapon struct{ on bool }

func (w *fakeWeapon) SetLaser(on bool) { w.on = on }
func (w *fakeWeapon) LaserOn() bool    { return w.on }

type sumSink struct {
	total float64
	calls int
}

func (s *sumSink) AddReward(d float64) { s.total += d; s.calls++ }

type rig struct {
	body   *fakeBody
	arena  *fakeArena
	weapon *fakeWeapon
	anim   *AnimState
	sink   *sumSink
	c      *Controller
}

func newRig() *rig {
	r := &rig{
		body:   &fakeBody{tr: Transform{Rotation: mgl64.QuatIdent()}, team: 1},
		arena:  &fakeArena{bases: map[int]mgl64.Vec3{1: {0, 0, -20}, 2: {0, 0, 20}}, left: 90},
		weapon: &fakeWeapon{},
		anim:   NewAnimState(),
		sink:   &sumSink{},
	}
	rewards, err := NewRewardTable(DefaultRewards())
	if err != nil {
		panic(err)
	}
	r.c = NewController(Config{
		Body:    r.body,
		Arena:   r.arena,
		Weapon:  r.weapon,
		Anim:    r.anim,
		Sink:    r.sink,
		Rewards: rewards,
	})
	return r
}

func vecNear(a, b mgl64.Vec3) bool { return a.ApproxEqualThreshold(b, 1e-9) }
