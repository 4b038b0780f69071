package agent

// KeyState is the set of keys held this tick.
type KeyState struct {
	Up, Down, Left, Right bool
	Space                 bool
	A, Z                  bool
}

// Heuristic maps held keys to an action vector for manual play. Later keys
// win: Down over Up, Left over Right.
func Heuristic(k KeyState) ActionVector {
	var a ActionVector
	if k.Up {
		a[SlotForward] = ForwardAhead
	}
	if k.Down {
		a[SlotForward] = ForwardBackward
	}
	if k.Right {
		a[SlotRotate] = RotateRight
	}
	if k.Left {
		a[SlotRotate] = RotateLeft
	}
	if k.Space {
		a[SlotShoot] = 1
	}
	if k.A {
		a[SlotSeekTarget] = 1
	}
	if k.Z {
		a[SlotSeekBase] = 1
	}
	return a
}
