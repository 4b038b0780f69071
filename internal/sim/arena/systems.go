package arena

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb/planar"

	"cogsarena.ai/internal/agent"
)

// systemMovement hands every controller its fixed step and integrates the
// resulting intent kinematically. Frozen agents stand still.
func (w *World) systemMovement() {
	dt := 1 / float64(w.cfg.TickRateHz)
	for _, id := range w.order {
		a := w.agents[id]
		in := a.ctrl.FixedUpdate()
		if a.Frozen() {
			a.vel = mgl64.Vec3{}
			a.frozenTicks--
			continue
		}
		prev := a.pos
		if in.Rotating() {
			sign := 1.0
			if in.RotateDir.Dot(agent.WorldUp) < 0 {
				sign = -1
			}
			a.yawDeg = normalizeYaw(a.yawDeg + sign*w.cfg.TurnSpeedDeg*dt)
		}
		if in.Advancing() {
			next := a.pos.Add(in.DirToGo.Normalize().Mul(w.cfg.MoveSpeed * dt))
			next[1] = 0
			clamped, hit := w.clamp(next)
			if hit {
				a.ctrl.OnCollision(agent.Event{Kind: agent.EventCollision, Tag: agent.TagWall})
				w.record(RecordedEvent{AgentID: id, Kind: EventWall})
			}
			a.pos = clamped
		}
		a.vel = a.pos.Sub(prev).Mul(1 / dt)
	}
}

// normalizeYaw keeps yaw in (-180,180].
func normalizeYaw(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}

// clamp pulls p back inside the arena bound.
func (w *World) clamp(p mgl64.Vec3) (mgl64.Vec3, bool) {
	if w.bounds.Contains(groundPoint(p)) {
		return p, false
	}
	x := math.Max(w.bounds.Min.X(), math.Min(w.bounds.Max.X(), p.X()))
	z := math.Max(w.bounds.Min.Y(), math.Min(w.bounds.Max.Y(), p.Z()))
	return mgl64.Vec3{x, p.Y(), z}, true
}

// systemLaser lets every active shooter freeze the closest enemy inside
// its range and cone. Shooters run in join order, so an agent frozen
// earlier in the pass does not fire.
func (w *World) systemLaser() {
	freeze := w.cfg.FreezeTicks
	if freeze < 1 {
		freeze = 1
	}
	for _, id := range w.order {
		s := w.agents[id]
		if !s.laser || s.Frozen() {
			continue
		}
		v := w.laserTarget(s)
		if v == nil {
			continue
		}
		v.frozenTicks = freeze
		s.award(agent.RewardHitEnemy)
		v.award(agent.RewardFrozen)
		w.record(RecordedEvent{AgentID: id, Kind: EventFreeze, Other: v.id})

		if n := v.carrying; n > 0 {
			w.dropAll(v)
			if n == 1 {
				v.award(agent.RewardDroppedOneTarget)
			} else {
				v.award(agent.RewardDroppedTargets)
			}
			w.record(RecordedEvent{AgentID: v.id, Kind: EventDrop, Count: n})
		}
	}
}

func (w *World) laserTarget(s *agentState) *agentState {
	tr := s.Transform()
	from := groundPoint(s.pos)
	var (
		best  *agentState
		bestD float64
	)
	for _, id := range w.order {
		v := w.agents[id]
		if v.team == s.team || v.Frozen() {
			continue
		}
		d := planar.Distance(from, groundPoint(v.pos))
		if d > w.cfg.LaserRange {
			continue
		}
		if math.Abs(agent.HeadingDelta(tr, v.pos)) > w.cfg.LaserConeDeg {
			continue
		}
		if best == nil || d < bestD {
			best, bestD = v, d
		}
	}
	return best
}

// dropAll scatters a's targets on a ring just outside pickup reach.
func (w *World) dropAll(a *agentState) {
	var carried []*target
	for _, t := range w.targets {
		if t.carrier == a.id {
			carried = append(carried, t)
		}
	}
	r := w.cfg.PickupRadius + 0.5
	for k, t := range carried {
		ang := 2 * math.Pi * float64(k) / float64(len(carried))
		p, _ := w.clamp(mgl64.Vec3{a.pos.X() + r*math.Sin(ang), 0, a.pos.Z() + r*math.Cos(ang)})
		t.pos = p
		t.carried = 0
		t.carrier = ""
		t.inBase = w.zoneAt(p)
	}
	a.carrying = 0
}

// systemContacts raises enter edges: base zones as triggers, free targets
// as collisions. The controller prices the event first, then the host
// resolves it.
func (w *World) systemContacts() {
	for _, id := range w.order {
		a := w.agents[id]

		zone := w.zoneAt(a.pos)
		if zone != 0 && zone != a.zone {
			n := a.carrying
			a.ctrl.OnCollision(agent.Event{Kind: agent.EventTrigger, Tag: agent.TagHomeBase, Team: zone})
			w.record(RecordedEvent{AgentID: id, Kind: EventBaseEnter, Team: zone})
			if zone == a.team && n > 0 {
				w.deposit(a)
				w.record(RecordedEvent{AgentID: id, Kind: EventDeposit, Team: zone, Count: n})
			}
		}
		a.zone = zone

		here := groundPoint(a.pos)
		now := map[string]bool{}
		for _, t := range w.targets {
			if t.carried != 0 {
				continue
			}
			if planar.Distance(here, groundPoint(t.pos)) > w.cfg.PickupRadius {
				continue
			}
			now[t.id] = true
			if a.touching[t.id] {
				continue
			}
			a.ctrl.OnCollision(agent.Event{
				Kind:     agent.EventCollision,
				Tag:      agent.TagTarget,
				TargetID: t.id,
				Carried:  t.carried,
				InBase:   t.inBase,
			})
			if t.inBase != a.team && !a.Frozen() {
				t.carried = a.team
				t.carrier = a.id
				t.inBase = 0
				a.carrying++
				w.record(RecordedEvent{AgentID: id, Kind: EventPickup, Other: t.id})
			}
		}
		a.touching = now
	}
}

// deposit moves everything a carries into its team's base.
func (w *World) deposit(a *agentState) {
	b := w.bases[a.team-1]
	for _, t := range w.targets {
		if t.carrier != a.id {
			continue
		}
		m := 0
		for _, o := range w.targets {
			if o.inBase == a.team {
				m++
			}
		}
		t.pos = baseSlot(b.center, m)
		t.carried = 0
		t.carrier = ""
		t.inBase = a.team
	}
	a.carrying = 0
}

func baseSlot(center mgl64.Vec3, m int) mgl64.Vec3 {
	const spacing = 1.2
	dx := float64(m%3-1) * spacing
	dz := float64((m/3)%3-1) * spacing
	return mgl64.Vec3{center.X() + dx, 0, center.Z() + dz}
}

// systemCarry stacks carried targets above their carrier.
func (w *World) systemCarry() {
	stack := map[string]int{}
	for _, t := range w.targets {
		if t.carrier == "" {
			continue
		}
		a := w.agents[t.carrier]
		if a == nil {
			t.carrier = ""
			t.carried = 0
			t.inBase = w.zoneAt(t.pos)
			continue
		}
		k := stack[a.id]
		stack[a.id]++
		t.pos = a.pos.Add(mgl64.Vec3{0, 1 + 0.5*float64(k), 0})
	}
}
