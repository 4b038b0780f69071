package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cogsarena.ai/internal/agent"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz" json:"tick_rate_hz"`
	MatchSeconds       int `yaml:"match_seconds" json:"match_seconds"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks" json:"snapshot_every_ticks"`

	Arena   ArenaTuning `yaml:"arena" json:"arena"`
	Targets int         `yaml:"targets" json:"targets"`

	MoveSpeed    float64 `yaml:"move_speed" json:"move_speed"`
	TurnSpeedDeg float64 `yaml:"turn_speed_deg" json:"turn_speed_deg"`
	PickupRadius float64 `yaml:"pickup_radius" json:"pickup_radius"`

	Laser LaserTuning `yaml:"laser" json:"laser"`

	// Rewards overrides the default reward table. A partial table is an
	// error, not a merge.
	Rewards map[string]float64 `yaml:"rewards,omitempty" json:"rewards,omitempty"`
}

type ArenaTuning struct {
	HalfSize     float64 `yaml:"half_size" json:"half_size"`
	BaseHalfSize float64 `yaml:"base_half_size" json:"base_half_size"`
}

type LaserTuning struct {
	Range       float64 `yaml:"range" json:"range"`
	ConeDeg     float64 `yaml:"cone_deg" json:"cone_deg"`
	FreezeTicks int     `yaml:"freeze_ticks" json:"freeze_ticks"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         20,
		MatchSeconds:       120,
		SnapshotEveryTicks: 1200,
		Arena: ArenaTuning{
			HalfSize:     25,
			BaseHalfSize: 4,
		},
		Targets:      9,
		MoveSpeed:    6,
		TurnSpeedDeg: 180,
		PickupRadius: 1,
		Laser: LaserTuning{
			Range:       12,
			ConeDeg:     10,
			FreezeTicks: 60,
		},
	}
}

// Load reads a tuning file on top of Defaults, so omitted keys keep their
// default values.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0")
	case t.MatchSeconds <= 0:
		return fmt.Errorf("match_seconds must be > 0")
	case t.Arena.HalfSize <= 0:
		return fmt.Errorf("arena.half_size must be > 0")
	case t.Arena.BaseHalfSize <= 0 || t.Arena.BaseHalfSize*2 >= t.Arena.HalfSize:
		return fmt.Errorf("arena.base_half_size must be in (0, half_size/2)")
	case t.Targets < 0:
		return fmt.Errorf("targets must be >= 0")
	case t.Laser.FreezeTicks < 0:
		return fmt.Errorf("laser.freeze_ticks must be >= 0")
	case t.MoveSpeed <= 0:
		return fmt.Errorf("move_speed must be > 0")
	case t.TurnSpeedDeg <= 0:
		return fmt.Errorf("turn_speed_deg must be > 0")
	case t.PickupRadius <= 0:
		return fmt.Errorf("pickup_radius must be > 0")
	case t.TurnSpeedDeg/float64(t.TickRateHz) >= 2*agent.HeadingDeadband:
		// A larger step can jump over the advance cone and oscillate forever.
		return fmt.Errorf("turn_speed_deg/tick_rate_hz must be < %v degrees per tick", 2*agent.HeadingDeadband)
	}
	_, err := t.RewardTable()
	return err
}

// RewardTable builds the immutable table agents are created with.
func (t Tuning) RewardTable() (agent.RewardTable, error) {
	if len(t.Rewards) == 0 {
		return agent.NewRewardTable(agent.DefaultRewards())
	}
	return agent.NewRewardTable(t.Rewards)
}

func (t Tuning) MatchTicks() int { return t.MatchSeconds * t.TickRateHz }
