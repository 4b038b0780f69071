package arena

import (
	"fmt"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/sim/tuning"
)

const DefaultMaxAgents = 16

type Config struct {
	ID                 string
	TickRateHz         int
	MatchTicks         int
	Seed               int64
	SnapshotEveryTicks int
	MaxAgents          int

	HalfSize     float64
	BaseHalfSize float64
	Targets      int

	MoveSpeed    float64
	TurnSpeedDeg float64
	PickupRadius float64

	LaserRange   float64
	LaserConeDeg float64
	FreezeTicks  int

	Rewards agent.RewardTable
}

// ConfigFromTuning resolves a validated tuning file into an arena config.
func ConfigFromTuning(id string, seed int64, t tuning.Tuning) (Config, error) {
	if err := t.Validate(); err != nil {
		return Config{}, err
	}
	rt, err := t.RewardTable()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ID:                 id,
		TickRateHz:         t.TickRateHz,
		MatchTicks:         t.MatchTicks(),
		Seed:               seed,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
		MaxAgents:          DefaultMaxAgents,
		HalfSize:           t.Arena.HalfSize,
		BaseHalfSize:       t.Arena.BaseHalfSize,
		Targets:            t.Targets,
		MoveSpeed:          t.MoveSpeed,
		TurnSpeedDeg:       t.TurnSpeedDeg,
		PickupRadius:       t.PickupRadius,
		LaserRange:         t.Laser.Range,
		LaserConeDeg:       t.Laser.ConeDeg,
		FreezeTicks:        t.Laser.FreezeTicks,
		Rewards:            rt,
	}, nil
}

func (c Config) validate() error {
	switch {
	case c.TickRateHz <= 0:
		return fmt.Errorf("arena: tick rate must be > 0")
	case c.MatchTicks <= 0:
		return fmt.Errorf("arena: match ticks must be > 0")
	case c.HalfSize <= 0 || c.BaseHalfSize <= 0 || c.BaseHalfSize*2 >= c.HalfSize:
		return fmt.Errorf("arena: bad geometry half=%v base=%v", c.HalfSize, c.BaseHalfSize)
	case c.Targets < 0:
		return fmt.Errorf("arena: negative target count")
	case c.MoveSpeed <= 0 || c.TurnSpeedDeg <= 0 || c.PickupRadius <= 0:
		return fmt.Errorf("arena: move speed, turn speed and pickup radius must be > 0")
	case c.TurnSpeedDeg/float64(c.TickRateHz) >= 2*agent.HeadingDeadband:
		return fmt.Errorf("arena: turn step %v deg/tick skips the %v deg advance cone", c.TurnSpeedDeg/float64(c.TickRateHz), 2*agent.HeadingDeadband)
	}
	if len(c.Rewards.Names()) == 0 {
		return fmt.Errorf("arena: %w: empty reward table", agent.ErrUnknownReward)
	}
	return nil
}
