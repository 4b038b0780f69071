package protocol_test

import (
	"encoding/json"
	"testing"

	"cogsarena.ai/internal/protocol"
	"cogsarena.ai/schemas"
)

func decodeAny(t *testing.T, raw []byte) any {
	t.Helper()
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}

func TestSchemas_ValidateSamples(t *testing.T) {
	cases := []struct {
		schema string
		raw    string
	}{
		{"hello.schema.json", `{"type":"HELLO","protocol_version":"1.0","agent_name":"bot1","team":2,"capabilities":{"max_queue":8}}`},
		{"welcome.schema.json", `{
		  "type":"WELCOME","protocol_version":"1.0","session_id":"s","agent_id":"A1","team":1,
		  "arena_params":{"arena_id":"arena","tick_rate_hz":20,"match_ticks":2400,"half_size":25,"targets":9,"obs_size":56,"action_size":5,"seed":1337},
		  "rewards":{"PickUpOneBall":0.1}
		}`},
		{"obs.schema.json", `{
		  "type":"OBS","protocol_version":"1.0","tick":3,"agent_id":"A1","match":0,
		  "features":[0,0,0,0,0,0,0,0,0,0,0],
		  "reward":0,"cumulative_reward":0,"time_remaining":120,
		  "self":{"pos":[0,0,0],"yaw":0,"team":1,"carrying":0,"frozen":false,"laser":false,"home_base":[0,0,-20]},
		  "targets":[{"id":"T0","pos":[1,0,1],"carried":0,"in_base":0}],
		  "agents":null,"anim":{},"score":[0,0]
		}`},
		{"act.schema.json", `{"type":"ACT","protocol_version":"1.0","tick":0,"agent_id":"A1","action":[1,0,0,1,0]}`},
	}
	for _, tc := range cases {
		s, err := schemas.Compile(tc.schema)
		if err != nil {
			t.Fatalf("compile %s: %v", tc.schema, err)
		}
		if err := s.Validate(decodeAny(t, []byte(tc.raw))); err != nil {
			t.Fatalf("%s: %v", tc.schema, err)
		}
	}
}

func TestSchemas_RejectMalformedAct(t *testing.T) {
	s := schemas.MustCompile("act.schema.json")
	bad := []string{
		`{"type":"ACT","protocol_version":"1.0","action":[1,0,0]}`,
		`{"type":"ACT","protocol_version":"1.0","action":[1,0,0,0,0,0]}`,
		`{"type":"ACT","protocol_version":"1.0","action":[1.5,0,0,0,0]}`,
		`{"type":"OBS","protocol_version":"1.0","action":[0,0,0,0,0]}`,
		`{"type":"ACT","action":[0,0,0,0,0]}`,
	}
	for _, raw := range bad {
		if err := s.Validate(decodeAny(t, []byte(raw))); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
	// Out-of-domain slot values are a decode concern, not a schema one.
	ok := `{"type":"ACT","protocol_version":"1.0","action":[7,-1,9,0,0]}`
	if err := s.Validate(decodeAny(t, []byte(ok))); err != nil {
		t.Fatalf("out-of-domain values should pass shape check: %v", err)
	}
}

func TestSchemas_EncodedMessagesValidate(t *testing.T) {
	obs := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            1,
		AgentID:         "A1",
		Features:        make([]float64, 16),
		TimeRemaining:   42,
		Self:            protocol.SelfObs{Team: 1},
		Targets:         []protocol.TargetObs{{ID: "T0"}},
	}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		AgentID:         "A1",
		Team:            2,
		ArenaParams:     protocol.ArenaParams{TickRateHz: 20, MatchTicks: 100, ObsSize: 16, ActionSize: 5},
		Rewards:         map[string]float64{"PickUpOneBall": 0.1},
	}
	for name, msg := range map[string]any{"obs.schema.json": obs, "welcome.schema.json": welcome} {
		b, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if err := schemas.MustCompile(name).Validate(decodeAny(t, b)); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}
