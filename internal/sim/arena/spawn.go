package arena

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash3(seed int64, a, b, c int) uint64 {
	ua := uint64(uint32(int32(a)))
	ub := uint64(uint32(int32(b)))
	uc := uint64(uint32(int32(c)))
	v := uint64(seed) ^ (ua * 0x9e3779b97f4a7c15) ^ (ub * 0xc2b2ae3d27d4eb4f) ^ (uc * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// unit maps a hash to [0,1).
func unit(h uint64) float64 { return float64(h>>11) / float64(uint64(1)<<53) }

const (
	saltTargetX = iota + 1
	saltTargetZ
	saltAgentX
)

// spawnTargets places the match's targets in the neutral band between the
// two bases. Positions depend only on seed, match and index.
func (w *World) spawnTargets() {
	xr := w.cfg.HalfSize - 1
	zr := w.cfg.HalfSize - 2*w.cfg.BaseHalfSize - 1
	if zr < 0 {
		zr = 0
	}
	w.targets = w.targets[:0]
	for i := 0; i < w.cfg.Targets; i++ {
		x := (unit(hash3(w.cfg.Seed, w.match, i, saltTargetX))*2 - 1) * xr
		z := (unit(hash3(w.cfg.Seed, w.match, i, saltTargetZ))*2 - 1) * zr
		pos := mgl64.Vec3{x, 0, z}
		w.targets = append(w.targets, &target{
			id:     fmt.Sprintf("T%d", i),
			pos:    pos,
			inBase: w.zoneAt(pos),
		})
	}
}

// spawnPose puts an agent on its base line facing the arena center.
func (w *World) spawnPose(num uint64, team int) (mgl64.Vec3, float64) {
	b := w.bases[team-1]
	span := w.cfg.BaseHalfSize - 0.5
	x := (unit(hash3(w.cfg.Seed, w.match, int(num), saltAgentX))*2 - 1) * span
	pos := mgl64.Vec3{b.center.X() + x, 0, b.center.Z()}
	yaw := 0.0
	if b.center.Z() > 0 {
		yaw = 180
	}
	return pos, yaw
}

// resetMatch starts the next match in place. Agents stay connected.
func (w *World) resetMatch() {
	w.match++
	w.matchTick = 0
	w.spawnTargets()
	for _, id := range w.order {
		a := w.agents[id]
		pos, yaw := w.spawnPose(a.num, a.team)
		a.resetForMatch(pos, yaw, w.zoneAt(pos))
	}
}
