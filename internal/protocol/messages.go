package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	AgentName       string            `json:"agent_name"`
	Team            int               `json:"team,omitempty"` // 0 = any
	Capabilities    HelloCapabilities `json:"capabilities"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	SessionID       string             `json:"session_id,omitempty"`
	AgentID         string             `json:"agent_id"`
	Team            int                `json:"team"`
	ArenaParams     ArenaParams        `json:"arena_params"`
	Rewards         map[string]float64 `json:"rewards"`
}

type ArenaParams struct {
	ArenaID    string  `json:"arena_id"`
	TickRateHz int     `json:"tick_rate_hz"`
	MatchTicks int     `json:"match_ticks"`
	HalfSize   float64 `json:"half_size"`
	Targets    int     `json:"targets"`
	ObsSize    int     `json:"obs_size"`
	ActionSize int     `json:"action_size"`
	Seed       int64   `json:"seed"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}
