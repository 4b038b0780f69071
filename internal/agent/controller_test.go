package agent

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestDecideAndAct_ForwardAxis(t *testing.T) {
	r := newRig()
	fwd := mgl64.Vec3{0, 0, 1}
	cases := []struct {
		forward int
		want    mgl64.Vec3
	}{
		{ForwardNone, mgl64.Vec3{}},
		{ForwardAhead, fwd},
		{ForwardBackward, fwd.Mul(-1)},
	}
	for _, tc := range cases {
		r.c.DecideAndAct(ActionVector{tc.forward, 0, 0, 0, 0})
		in := r.c.Intent()
		if !vecNear(in.DirToGo, tc.want) {
			t.Fatalf("forward=%d: DirToGo=%v want %v", tc.forward, in.DirToGo, tc.want)
		}
		if in.Rotating() {
			t.Fatalf("forward=%d: unexpected rotation %v", tc.forward, in.RotateDir)
		}
	}
}

func TestDecideAndAct_RotateAxis(t *testing.T) {
	r := newRig()
	up := mgl64.Vec3{0, 1, 0}
	cases := []struct {
		rotate int
		want   mgl64.Vec3
	}{
		{RotateNone, mgl64.Vec3{}},
		{RotateRight, up},
		{RotateLeft, up.Mul(-1)},
	}
	for _, tc := range cases {
		r.c.DecideAndAct(ActionVector{0, tc.rotate, 0, 0, 0})
		in := r.c.Intent()
		if !vecNear(in.RotateDir, tc.want) {
			t.Fatalf("rotate=%d: RotateDir=%v want %v", tc.rotate, in.RotateDir, tc.want)
		}
		if in.Advancing() {
			t.Fatalf("rotate=%d: unexpected advance %v", tc.rotate, in.DirToGo)
		}
	}
}

func TestDecideAndAct_ResetsIntentEachCall(t *testing.T) {
	r := newRig()
	r.c.DecideAndAct(ActionVector{1, 1, 0, 0, 0})
	r.c.DecideAndAct(ActionVector{})
	if in := r.c.Intent(); in.Advancing() || in.Rotating() {
		t.Fatalf("intent should be rebuilt from zero: %+v", in)
	}
}

func TestDecideAndAct_OutOfDomainIsNoop(t *testing.T) {
	r := newRig()
	r.c.DecideAndAct(ActionVector{7, -2, 3, 9, 4})
	if in := r.c.Intent(); in.Advancing() || in.Rotating() {
		t.Fatalf("out-of-domain action moved the agent: %+v", in)
	}
	if r.weapon.on {
		t.Fatalf("out-of-domain shoot value engaged the laser")
	}
}

func TestDecideAndAct_Shooting(t *testing.T) {
	r := newRig()
	r.c.DecideAndAct(ActionVector{0, 0, 1, 0, 0})
	if !r.weapon.on || !r.anim.Bool(AnimAttacking) {
		t.Fatalf("shoot: laser=%v attacking=%v", r.weapon.on, r.anim.Bool(AnimAttacking))
	}

	r.body.frozen = true
	r.c.DecideAndAct(ActionVector{0, 0, 1, 0, 0})
	if !r.weapon.on || r.anim.Bool(AnimAttacking) {
		t.Fatalf("frozen shoot: laser=%v attacking=%v", r.weapon.on, r.anim.Bool(AnimAttacking))
	}

	r.body.frozen = false
	r.c.DecideAndAct(ActionVector{})
	if r.weapon.on || r.anim.Bool(AnimAttacking) {
		t.Fatalf("release: laser=%v attacking=%v", r.weapon.on, r.anim.Bool(AnimAttacking))
	}
}

func TestDecideAndAct_SeekTarget(t *testing.T) {
	r := newRig()
	// Nearest eligible target is straight ahead: advance.
	r.arena.targets = []Target{
		{ID: "far", Position: mgl64.Vec3{30, 0, 0}},
		{ID: "near", Position: mgl64.Vec3{0, 0, 4}},
	}
	r.c.DecideAndAct(ActionVector{0, RotateLeft, 0, 1, 0})
	in := r.c.Intent()
	if !vecNear(in.DirToGo, mgl64.Vec3{0, 0, 1}) || in.Rotating() {
		t.Fatalf("seek ahead: %+v", in)
	}
	if !r.anim.Bool(AnimMoving) {
		t.Fatalf("seek should mark running")
	}

	// Nearest target to the right: turn right only.
	r.arena.targets = []Target{{ID: "right", Position: mgl64.Vec3{4, 0, 0}}}
	r.c.DecideAndAct(ActionVector{ForwardAhead, 0, 0, 1, 0})
	in = r.c.Intent()
	if in.Advancing() || !vecNear(in.RotateDir, mgl64.Vec3{0, 1, 0}) {
		t.Fatalf("seek right: %+v", in)
	}
}

func TestDecideAndAct_SeekTargetNoneKeepsManualAxes(t *testing.T) {
	r := newRig()
	r.arena.targets = []Target{{ID: "mine", Position: mgl64.Vec3{1, 0, 1}, InBase: 1}}
	r.c.DecideAndAct(ActionVector{0, RotateRight, 0, 1, 0})
	in := r.c.Intent()
	if in.Advancing() || !vecNear(in.RotateDir, mgl64.Vec3{0, 1, 0}) {
		t.Fatalf("no eligible target should leave manual axes: %+v", in)
	}
	if !r.anim.Bool(AnimMoving) {
		t.Fatalf("seek without target still counts as running")
	}
}

func TestDecideAndAct_SeekBaseWinsOverSeekTarget(t *testing.T) {
	r := newRig()
	// Target to the right, home base (0,0,-20) straight behind.
	r.arena.targets = []Target{{ID: "right", Position: mgl64.Vec3{4, 0, 0}}}
	r.c.DecideAndAct(ActionVector{0, 0, 0, 1, 1})
	in := r.c.Intent()
	// Behind is +180: outside the deadband, turn right.
	if in.Advancing() || !vecNear(in.RotateDir, mgl64.Vec3{0, 1, 0}) {
		t.Fatalf("base seek: %+v", in)
	}

	r.arena.bases[1] = mgl64.Vec3{0, 0, 20}
	r.c.DecideAndAct(ActionVector{0, 0, 0, 1, 1})
	in = r.c.Intent()
	if in.Rotating() || !vecNear(in.DirToGo, mgl64.Vec3{0, 0, 1}) {
		t.Fatalf("base ahead should advance even with a target to the right: %+v", in)
	}
}

func TestDecideAndAct_RunAnimation(t *testing.T) {
	r := newRig()
	r.c.DecideAndAct(ActionVector{ForwardAhead, 0, 0, 0, 0})
	if !r.anim.Bool(AnimMoving) || r.anim.Bool(AnimWalking) {
		t.Fatalf("running light: moving=%v walking=%v", r.anim.Bool(AnimMoving), r.anim.Bool(AnimWalking))
	}

	r.body.carrying = CarryWalkThreshold + 1
	r.c.DecideAndAct(ActionVector{ForwardBackward, 0, 0, 0, 0})
	if r.anim.Bool(AnimMoving) || !r.anim.Bool(AnimWalking) {
		t.Fatalf("running heavy: moving=%v walking=%v", r.anim.Bool(AnimMoving), r.anim.Bool(AnimWalking))
	}

	r.body.carrying = CarryWalkThreshold
	r.c.DecideAndAct(ActionVector{ForwardAhead, 0, 0, 0, 0})
	if !r.anim.Bool(AnimMoving) {
		t.Fatalf("threshold itself is still light")
	}

	// Rotation alone is not running.
	r.c.DecideAndAct(ActionVector{0, RotateRight, 0, 0, 0})
	if r.anim.Bool(AnimMoving) || r.anim.Bool(AnimWalking) {
		t.Fatalf("idle: moving=%v walking=%v", r.anim.Bool(AnimMoving), r.anim.Bool(AnimWalking))
	}
}

func TestFixedUpdate_FrozenEdgeFiresOnce(t *testing.T) {
	r := newRig()
	countHits := func() int {
		n := 0
		for _, tr := range r.anim.DrainTriggers() {
			if tr == AnimHit {
				n++
			}
		}
		return n
	}

	r.c.FixedUpdate()
	if countHits() != 0 || r.anim.Bool(AnimFrozen) {
		t.Fatalf("active tick should not fire")
	}

	r.body.frozen = true
	hits := 0
	for i := 0; i < 5; i++ {
		r.c.FixedUpdate()
		hits += countHits()
		if !r.anim.Bool(AnimFrozen) {
			t.Fatalf("tick %d: Frozen flag should stay set", i)
		}
	}
	if hits != 1 {
		t.Fatalf("hit fired %d times over one freeze, want 1", hits)
	}

	r.body.frozen = false
	r.c.FixedUpdate()
	if r.anim.Bool(AnimFrozen) || countHits() != 0 {
		t.Fatalf("thaw should clear Frozen without firing")
	}

	r.body.frozen = true
	r.c.FixedUpdate()
	if countHits() != 1 {
		t.Fatalf("second freeze should fire again")
	}
}

func TestFixedUpdate_ReturnsIntent(t *testing.T) {
	r := newRig()
	r.c.DecideAndAct(ActionVector{ForwardAhead, RotateRight, 0, 0, 0})
	in := r.c.FixedUpdate()
	if !in.Advancing() || !in.Rotating() {
		t.Fatalf("FixedUpdate intent=%+v", in)
	}
}

func TestOnCollision_DepositOwnBase(t *testing.T) {
	r := newRig()
	r.body.carrying = 3
	r.c.OnCollision(Event{Kind: EventTrigger, Tag: TagHomeBase, Team: 1})
	if math.Abs(r.sink.total-2.1) > 1e-9 {
		t.Fatalf("deposit reward=%v want 2.1", r.sink.total)
	}
	if trig := r.anim.DrainTriggers(); len(trig) != 1 || trig[0] != AnimPickUp {
		t.Fatalf("deposit triggers=%v", trig)
	}

	r.sink.total = 0
	r.c.OnCollision(Event{Kind: EventTrigger, Tag: TagHomeBase, Team: 2})
	if r.sink.total != 0 {
		t.Fatalf("enemy base should not pay: %v", r.sink.total)
	}

	r.body.carrying = 0
	r.c.OnCollision(Event{Kind: EventTrigger, Tag: TagHomeBase, Team: 1})
	if r.sink.total != 0 || len(r.anim.DrainTriggers()) != 0 {
		t.Fatalf("empty-handed deposit: reward=%v", r.sink.total)
	}
}

func TestOnCollision_Pickup(t *testing.T) {
	r := newRig()
	r.c.OnCollision(Event{Kind: EventCollision, Tag: TagTarget, TargetID: "t0"})
	if math.Abs(r.sink.total-0.7) > 1e-9 {
		t.Fatalf("pickup reward=%v want 0.7", r.sink.total)
	}

	cases := []struct {
		name   string
		ev     Event
		frozen bool
	}{
		{"carried", Event{Kind: EventCollision, Tag: TagTarget, Carried: 2}, false},
		{"own base", Event{Kind: EventCollision, Tag: TagTarget, InBase: 1}, false},
		{"frozen", Event{Kind: EventCollision, Tag: TagTarget}, true},
		{"wall", Event{Kind: EventCollision, Tag: TagWall}, false},
	}
	for _, tc := range cases {
		r.sink.total = 0
		r.body.frozen = tc.frozen
		r.c.OnCollision(tc.ev)
		if r.sink.total != 0 {
			t.Fatalf("%s: reward=%v want 0", tc.name, r.sink.total)
		}
	}

	r.sink.total = 0
	r.body.frozen = false
	r.c.OnCollision(Event{Kind: EventCollision, Tag: TagTarget, InBase: 2})
	if math.Abs(r.sink.total-0.7) > 1e-9 {
		t.Fatalf("stealing from enemy base should pay, got %v", r.sink.total)
	}
}

func TestRewardTable_MissingKeyIsFatal(t *testing.T) {
	m := DefaultRewards()
	delete(m, RewardHitEnemy)
	if _, err := NewRewardTable(m); !errors.Is(err, ErrUnknownReward) {
		t.Fatalf("NewRewardTable err=%v", err)
	}

	tbl, err := NewRewardTable(DefaultRewards())
	if err != nil {
		t.Fatalf("NewRewardTable: %v", err)
	}
	if _, err := tbl.Lookup("no-such-event"); !errors.Is(err, ErrUnknownReward) {
		t.Fatalf("Lookup err=%v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("MustReward should panic on unknown event")
		}
	}()
	tbl.MustReward("no-such-event")
}

func TestRewardTable_IsACopy(t *testing.T) {
	m := DefaultRewards()
	tbl, _ := NewRewardTable(m)
	m[RewardPickUpOneBall] = 100
	if got := tbl.MustReward(RewardPickUpOneBall); got != 0.7 {
		t.Fatalf("table aliased caller map: %v", got)
	}
}

func TestObserve_Layout(t *testing.T) {
	r := newRig()
	r.body.tr = Transform{Position: mgl64.Vec3{1, 2, 3}, Rotation: YawRotation(90)}
	// Moving along +X while facing +X: local forward velocity.
	r.body.vel = mgl64.Vec3{4, 0, 0}
	r.arena.targets = []Target{
		{ID: "a", Position: mgl64.Vec3{5, 0, 6}, Carried: 2},
		{ID: "b", Position: mgl64.Vec3{7, 0, 8}, InBase: 1},
	}
	r.body.frozen = true

	obs := r.c.Observe()
	if len(obs) != ObservationSize(2) {
		t.Fatalf("len=%d want %d", len(obs), ObservationSize(2))
	}
	want := []float64{
		0, 4, // local velocity x,z
		90,                    // time remaining
		math.Sin(math.Pi / 4), // quaternion y for a 90 degree yaw
		1, 2, 3, 0, 0, -20,    // self + base
		5, 0, 6, 2, 0, 7, 0, 8, 0, 1, // targets
		1, // frozen
	}
	for i := range want {
		if math.Abs(obs[i]-want[i]) > 1e-9 {
			t.Fatalf("obs[%d]=%v want %v (obs=%v)", i, obs[i], want[i], obs)
		}
	}

	again := r.c.Observe()
	for i := range obs {
		if obs[i] != again[i] {
			t.Fatalf("Observe is not stable at %d", i)
		}
	}
}
