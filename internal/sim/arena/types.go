package arena

import (
	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/protocol"
)

type JoinRequest struct {
	Name string
	// Team is the preferred team; 0 lets the arena balance.
	Team int
	Out  chan []byte
	Resp chan JoinResponse
}

// JoinResponse carries either a WELCOME or a rejection code.
type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	Code    string
	Message string
}

type ActionEnvelope struct {
	AgentID string
	Act     protocol.ActMsg
}

type RecordedJoin struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
	Team    int    `json:"team"`
}

type RecordedAction struct {
	AgentID string             `json:"agent_id"`
	Action  agent.ActionVector `json:"action"`
}

type RecordedReward struct {
	AgentID string  `json:"agent_id"`
	Delta   float64 `json:"delta"`
	Total   float64 `json:"total"`
}

// Event kinds recorded in the tick log.
const (
	EventFreeze    = "FREEZE"
	EventDrop      = "DROP"
	EventPickup    = "PICKUP"
	EventDeposit   = "DEPOSIT"
	EventBaseEnter = "BASE_ENTER"
	EventWall      = "WALL"
)

type RecordedEvent struct {
	AgentID string `json:"agent_id"`
	Kind    string `json:"kind"`
	// Other is the victim for FREEZE and the target for PICKUP.
	Other string `json:"other,omitempty"`
	Team  int    `json:"team,omitempty"`
	Count int    `json:"count,omitempty"`
}

type MatchResult struct {
	Match   int                `json:"match"`
	EndTick uint64             `json:"end_tick"`
	Score   [2]int             `json:"score"`
	Winner  int                `json:"winner"` // 0 = draw
	Rewards map[string]float64 `json:"rewards"`
}

type TickLogEntry struct {
	Tick     uint64           `json:"tick"`
	Match    int              `json:"match"`
	Joins    []RecordedJoin   `json:"joins,omitempty"`
	Leaves   []string         `json:"leaves,omitempty"`
	Actions  []RecordedAction `json:"actions,omitempty"`
	Rewards  []RecordedReward `json:"rewards,omitempty"`
	Events   []RecordedEvent  `json:"events,omitempty"`
	MatchEnd *MatchResult     `json:"match_end,omitempty"`
	Digest   string           `json:"digest"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}
