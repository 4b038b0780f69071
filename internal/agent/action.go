package agent

// Action vector slots.
const (
	SlotForward = iota
	SlotRotate
	SlotShoot
	SlotSeekTarget
	SlotSeekBase

	ActionSize
)

const (
	ForwardNone     = 0
	ForwardAhead    = 1
	ForwardBackward = 2

	RotateNone  = 0
	RotateRight = 1
	RotateLeft  = 2
)

// ActionVector is one policy decision. See the Slot* constants for layout.
type ActionVector [ActionSize]int

// domain holds the exclusive upper bound of every slot.
var domain = [ActionSize]int{3, 3, 2, 2, 2}

// SlotSize is the number of choices of one action slot.
func SlotSize(slot int) int { return domain[slot] }

// Clamp maps every out-of-domain slot to 0, which decodes as "do nothing".
func (a ActionVector) Clamp() ActionVector {
	for i, v := range a {
		if v < 0 || v >= domain[i] {
			a[i] = 0
		}
	}
	return a
}

func (a ActionVector) Forward() int     { return a[SlotForward] }
func (a ActionVector) Rotate() int      { return a[SlotRotate] }
func (a ActionVector) Shoot() bool      { return a[SlotShoot] == 1 }
func (a ActionVector) SeekTarget() bool { return a[SlotSeekTarget] == 1 }
func (a ActionVector) SeekBase() bool   { return a[SlotSeekBase] == 1 }

// ActionFromFloats truncates raw network outputs toward zero. Missing slots
// stay 0 and extra values are ignored.
func ActionFromFloats(raw []float64) ActionVector {
	var a ActionVector
	for i := 0; i < len(raw) && i < ActionSize; i++ {
		a[i] = int(raw[i])
	}
	return a.Clamp()
}

// ActionFromInts is ActionFromFloats for integer payloads.
func ActionFromInts(raw []int) ActionVector {
	var a ActionVector
	copy(a[:], raw)
	return a.Clamp()
}
