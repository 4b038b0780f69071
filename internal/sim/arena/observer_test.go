package arena

import (
	"encoding/json"
	"testing"

	"cogsarena.ai/internal/observerproto"
)

func readFrame(t *testing.T, ch chan []byte) observerproto.TickMsg {
	t.Helper()
	select {
	case b := <-ch:
		var m observerproto.TickMsg
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return m
	default:
		t.Fatalf("no frame")
	}
	return observerproto.TickMsg{}
}

func TestObserver_FrameCarriesJoinsAgentsAndTargets(t *testing.T) {
	w := newTestWorld(t, 5, nil)
	out := make(chan []byte, 4)
	w.addObserver(ObserverJoinRequest{SessionID: "O1", Out: out})

	join(t, w, "alice", 2, nil)
	m := readFrame(t, out)
	if m.Type != observerproto.TypeTick || m.Tick != 0 {
		t.Fatalf("frame header: %+v", m)
	}
	if len(m.Joins) != 1 || m.Joins[0].Name != "alice" || m.Joins[0].Team != 2 {
		t.Fatalf("joins=%+v", m.Joins)
	}
	if len(m.Agents) != 1 || m.Agents[0].ID != "A1" || m.Agents[0].Connected {
		t.Fatalf("agents=%+v", m.Agents)
	}
	if len(m.Targets) != len(w.targets) {
		t.Fatalf("targets=%d want %d", len(m.Targets), len(w.targets))
	}

	w.removeObserver("O1")
	w.StepOnce(nil, nil, nil)
	if len(out) != 0 {
		t.Fatalf("removed observer still receives frames")
	}
}

func TestObserver_StrideAndMatchEnd(t *testing.T) {
	w := newTestWorld(t, 5, func(c *Config) { c.MatchTicks = 5 })
	out := make(chan []byte, 16)
	w.addObserver(ObserverJoinRequest{SessionID: "O1", Out: out, EveryTicks: 3})

	for i := 0; i < 5; i++ {
		w.StepOnce(nil, nil, nil)
	}
	// Ticks 0 and 3 by stride, tick 4 because it ends the match.
	var ticks []uint64
	for len(out) > 0 {
		m := readFrame(t, out)
		ticks = append(ticks, m.Tick)
		if m.Tick == 4 && (m.MatchEnd == nil || m.MatchEnd.Match != 0) {
			t.Fatalf("match end frame=%+v", m.MatchEnd)
		}
	}
	if len(ticks) != 3 || ticks[0] != 0 || ticks[1] != 3 || ticks[2] != 4 {
		t.Fatalf("ticks=%v", ticks)
	}

	w.updateObserver(ObserverSubscribeRequest{SessionID: "O1", EveryTicks: 1})
	w.StepOnce(nil, nil, nil)
	if len(out) != 1 {
		t.Fatalf("frames after resubscribe=%d", len(out))
	}
}

func TestObserver_EventsOnlyWhenRequested(t *testing.T) {
	w := newTestWorld(t, 5, nil)
	bare := make(chan []byte, 8)
	full := make(chan []byte, 8)
	w.addObserver(ObserverJoinRequest{SessionID: "bare", Out: bare})
	w.addObserver(ObserverJoinRequest{SessionID: "full", Out: full, Events: true})

	join(t, w, "a", 1, nil)
	a := w.agents["A1"]
	a.pos = w.HomeBase(2)
	w.StepOnce(nil, nil, nil)

	_ = readFrame(t, bare)
	_ = readFrame(t, full)
	if m := readFrame(t, bare); len(m.Events) != 0 {
		t.Fatalf("bare observer got events: %+v", m.Events)
	}
	m := readFrame(t, full)
	found := false
	for _, ev := range m.Events {
		if ev.Kind == EventBaseEnter && ev.Team == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("events=%+v", m.Events)
	}
}

func TestObserver_SlowConsumerKeepsLatest(t *testing.T) {
	w := newTestWorld(t, 5, nil)
	out := make(chan []byte, 1)
	w.addObserver(ObserverJoinRequest{SessionID: "O1", Out: out})
	for i := 0; i < 4; i++ {
		w.StepOnce(nil, nil, nil)
	}
	if m := readFrame(t, out); m.Tick != 3 {
		t.Fatalf("tick=%d want 3", m.Tick)
	}
}
