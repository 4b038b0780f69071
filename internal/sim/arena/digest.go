package arena

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteI64(h, &tmp, int64(w.match))
	digestWriteI64(h, &tmp, int64(w.matchTick))

	for _, t := range w.targets {
		h.Write([]byte(t.id))
		digestWriteVec(h, &tmp, t.pos)
		digestWriteI64(h, &tmp, int64(t.carried))
		digestWriteI64(h, &tmp, int64(t.inBase))
		h.Write([]byte(t.carrier))
		h.Write([]byte{0})
	}
	for _, id := range w.order {
		a := w.agents[id]
		h.Write([]byte(a.id))
		digestWriteI64(h, &tmp, int64(a.team))
		digestWriteVec(h, &tmp, a.pos)
		digestWriteF64(h, &tmp, a.yawDeg)
		digestWriteI64(h, &tmp, int64(a.frozenTicks))
		digestWriteI64(h, &tmp, int64(a.carrying))
		digestWriteF64(h, &tmp, a.cumulative)
		h.Write([]byte{boolByte(a.laser), boolByte(a.ctrl.EdgeState())})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func digestWriteVec(h hashWriter, tmp *[8]byte, v mgl64.Vec3) {
	for _, c := range v {
		digestWriteF64(h, tmp, c)
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
