package observerproto

// Version is the spectator protocol version (separate from the agent WS protocol).
const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeTick      = "TICK"
)

// Client -> Server. First message on the spectator WS connection, and can be
// re-sent to change the stride.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// EveryTicks sends one frame per N arena ticks. Frames that end a match
	// are always sent.
	EveryTicks int `json:"every_ticks,omitempty"`
	// Events includes the per-tick event list in frames.
	Events bool `json:"events,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	ArenaID         string      `json:"arena_id"`
	Tick            uint64      `json:"tick"`
	ArenaParams     ArenaParams `json:"arena_params"`
}

type ArenaParams struct {
	TickRateHz   int           `json:"tick_rate_hz"`
	MatchTicks   int           `json:"match_ticks"`
	HalfSize     float64       `json:"half_size"`
	BaseHalfSize float64       `json:"base_half_size"`
	Bases        [2][3]float64 `json:"bases"`
	Targets      int           `json:"targets"`
	Seed         int64         `json:"seed"`
}

// Server -> Client. The whole arena as of the end of one tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Match           int    `json:"match"`
	MatchTick       int    `json:"match_tick"`

	TimeRemaining float64 `json:"time_remaining"`
	Score         [2]int  `json:"score"`

	Agents  []AgentState  `json:"agents"`
	Targets []TargetState `json:"targets"`

	Joins    []JoinInfo    `json:"joins,omitempty"`
	Leaves   []string      `json:"leaves,omitempty"`
	Events   []EventInfo   `json:"events,omitempty"`
	MatchEnd *MatchEndInfo `json:"match_end,omitempty"`
}

type JoinInfo struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
	Team    int    `json:"team"`
}

type AgentState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Team      int    `json:"team"`
	Connected bool   `json:"connected"`

	Pos    [3]float64 `json:"pos"`
	Yaw    float64    `json:"yaw"`
	Frozen bool       `json:"frozen"`
	Laser  bool       `json:"laser"`

	Carrying   int     `json:"carrying"`
	Cumulative float64 `json:"cumulative"`
}

type TargetState struct {
	ID      string     `json:"id"`
	Pos     [3]float64 `json:"pos"`
	Carried int        `json:"carried"`
	Carrier string     `json:"carrier,omitempty"`
	InBase  int        `json:"in_base"`
}

type EventInfo struct {
	AgentID string `json:"agent_id"`
	Kind    string `json:"kind"`
	Other   string `json:"other,omitempty"`
	Team    int    `json:"team,omitempty"`
	Count   int    `json:"count,omitempty"`
}

type MatchEndInfo struct {
	Match   int                `json:"match"`
	Score   [2]int             `json:"score"`
	Winner  int                `json:"winner"`
	Rewards map[string]float64 `json:"rewards"`
}
