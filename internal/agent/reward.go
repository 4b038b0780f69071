package agent

import (
	"errors"
	"fmt"
	"sort"
)

// Reward event names.
const (
	RewardFrozen           = "frozen"
	RewardShootingLaser    = "shooting-laser"
	RewardHitEnemy         = "hit-enemy"
	RewardDroppedOneTarget = "dropped-one-target"
	RewardDroppedTargets   = "dropped-targets"
	RewardOneBallInBase    = "one-ball-in-base"
	RewardPickUpOneBall    = "pick-up-one-ball"
)

// RequiredRewards lists every event the agent and the arena look up.
var RequiredRewards = []string{
	RewardFrozen,
	RewardShootingLaser,
	RewardHitEnemy,
	RewardDroppedOneTarget,
	RewardDroppedTargets,
	RewardOneBallInBase,
	RewardPickUpOneBall,
}

var ErrUnknownReward = errors.New("unknown reward event")

func DefaultRewards() map[string]float64 {
	return map[string]float64{
		RewardFrozen:           -0.5,
		RewardShootingLaser:    0,
		RewardHitEnemy:         0.5,
		RewardDroppedOneTarget: -0.3,
		RewardDroppedTargets:   -0.5,
		RewardOneBallInBase:    0.7,
		RewardPickUpOneBall:    0.7,
	}
}

// RewardTable is an immutable event -> magnitude mapping.
type RewardTable struct {
	m map[string]float64
}

// NewRewardTable copies m and rejects it unless every RequiredRewards entry
// is present.
func NewRewardTable(m map[string]float64) (RewardTable, error) {
	var missing []string
	for _, name := range RequiredRewards {
		if _, ok := m[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return RewardTable{}, fmt.Errorf("reward table: missing %v: %w", missing, ErrUnknownReward)
	}
	cp := make(map[string]float64, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return RewardTable{m: cp}, nil
}

func (t RewardTable) Lookup(event string) (float64, error) {
	v, ok := t.m[event]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownReward, event)
	}
	return v, nil
}

// MustReward panics on an unknown event. A miss here is a configuration
// bug, never a reason to hand out zero.
func (t RewardTable) MustReward(event string) float64 {
	v, err := t.Lookup(event)
	if err != nil {
		panic(err)
	}
	return v
}

// Names returns the table's events in sorted order.
func (t RewardTable) Names() []string {
	out := make([]string, 0, len(t.m))
	for k := range t.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Map returns a copy of the table.
func (t RewardTable) Map() map[string]float64 {
	cp := make(map[string]float64, len(t.m))
	for k, v := range t.m {
		cp[k] = v
	}
	return cp
}
