package protocol

type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	AgentID         string `json:"agent_id"`
	Match           int    `json:"match"`

	// Features is the fixed-layout vector a learned policy consumes.
	Features []float64 `json:"features"`

	// Reward accrued since the previous OBS; CumulativeReward over the match.
	Reward           float64 `json:"reward"`
	CumulativeReward float64 `json:"cumulative_reward"`
	// Done marks the last OBS of a match. The arena resets right after.
	Done bool `json:"done,omitempty"`

	TimeRemaining float64     `json:"time_remaining"`
	Self          SelfObs     `json:"self"`
	Targets       []TargetObs `json:"targets"`
	Agents        []AgentObs  `json:"agents"`
	Anim          AnimObs     `json:"anim"`
	Score         [2]int      `json:"score"`
}

type SelfObs struct {
	Pos      [3]float64 `json:"pos"`
	Yaw      float64    `json:"yaw"`
	Team     int        `json:"team"`
	Carrying int        `json:"carrying"`
	Frozen   bool       `json:"frozen"`
	Laser    bool       `json:"laser"`
	HomeBase [3]float64 `json:"home_base"`
}

type TargetObs struct {
	ID      string     `json:"id"`
	Pos     [3]float64 `json:"pos"`
	Carried int        `json:"carried"`
	InBase  int        `json:"in_base"`
}

// AgentObs describes another agent in the arena.
type AgentObs struct {
	ID     string     `json:"id"`
	Team   int        `json:"team"`
	Pos    [3]float64 `json:"pos"`
	Frozen bool       `json:"frozen"`
}

type AnimObs struct {
	Active   []string `json:"active,omitempty"`
	Triggers []string `json:"triggers,omitempty"`
}

// ACT (client -> server)
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	AgentID         string `json:"agent_id"`
	// Action is {forward, rotate, shoot, seek_target, seek_base}.
	Action []int `json:"action"`
}
