package agent

import "sort"

// Animation parameters written by the controller.
const (
	AnimFrozen    = "Frozen"
	AnimHit       = "hit"
	AnimAttacking = "Attacking"
	AnimMoving    = "Moving"
	AnimWalking   = "Walking"
	AnimPickUp    = "pickUp"
)

// AnimState is an Animator that only records parameters. Triggers are kept
// until the host drains them once per tick.
type AnimState struct {
	bools    map[string]bool
	triggers []string
}

func NewAnimState() *AnimState {
	return &AnimState{bools: map[string]bool{}}
}

func (s *AnimState) Bool(name string) bool { return s.bools[name] }

func (s *AnimState) SetBool(name string, v bool) { s.bools[name] = v }

func (s *AnimState) SetTrigger(name string) { s.triggers = append(s.triggers, name) }

// DrainTriggers returns and clears the triggers fired since the last call.
func (s *AnimState) DrainTriggers() []string {
	out := s.triggers
	s.triggers = nil
	return out
}

// ActiveBools lists the parameters currently set to true, sorted.
func (s *AnimState) ActiveBools() []string {
	var out []string
	for k, v := range s.bools {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Restore replaces the bool set, used when resuming from a snapshot.
func (s *AnimState) Restore(active []string) {
	s.bools = make(map[string]bool, len(active))
	for _, k := range active {
		s.bools[k] = true
	}
	s.triggers = nil
}
