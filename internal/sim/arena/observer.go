package arena

import (
	"encoding/json"

	"cogsarena.ai/internal/observerproto"
)

type ObserverJoinRequest struct {
	SessionID  string
	Out        chan []byte
	EveryTicks int
	Events     bool
}

type ObserverSubscribeRequest struct {
	SessionID  string
	EveryTicks int
	Events     bool
}

type observerClient struct {
	out    chan []byte
	every  uint64
	events bool
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest           { return w.observerJoin }
func (w *World) ObserverLeave() chan<- string                       { return w.observerLeave }
func (w *World) ObserverSubscribe() chan<- ObserverSubscribeRequest { return w.observerSub }

// Spectators never touch simulation state, so they are attached and detached
// as soon as the loop sees the request instead of at a tick boundary.
func (w *World) addObserver(req ObserverJoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		return
	}
	w.observers[req.SessionID] = &observerClient{out: req.Out, every: stride(req.EveryTicks), events: req.Events}
}

func (w *World) updateObserver(req ObserverSubscribeRequest) {
	if o := w.observers[req.SessionID]; o != nil {
		o.every = stride(req.EveryTicks)
		o.events = req.Events
	}
}

func (w *World) removeObserver(id string) { delete(w.observers, id) }

func stride(n int) uint64 {
	if n <= 1 {
		return 1
	}
	return uint64(n)
}

func (w *World) observerFrame(nowTick uint64, score [2]int, joins []RecordedJoin, leaves []string) observerproto.TickMsg {
	msg := observerproto.TickMsg{
		Type:            observerproto.TypeTick,
		ProtocolVersion: observerproto.Version,
		Tick:            nowTick,
		Match:           w.match,
		MatchTick:       w.matchTick,
		TimeRemaining:   w.TimeRemaining(),
		Score:           score,
		Agents:          make([]observerproto.AgentState, 0, len(w.order)),
		Targets:         make([]observerproto.TargetState, 0, len(w.targets)),
		Leaves:          leaves,
	}
	for _, id := range w.order {
		a := w.agents[id]
		msg.Agents = append(msg.Agents, observerproto.AgentState{
			ID:         a.id,
			Name:       a.name,
			Team:       a.team,
			Connected:  w.clients[id] != nil,
			Pos:        vec3(a.pos),
			Yaw:        a.yawDeg,
			Frozen:     a.Frozen(),
			Laser:      a.laser,
			Carrying:   a.carrying,
			Cumulative: a.cumulative,
		})
	}
	for _, t := range w.targets {
		msg.Targets = append(msg.Targets, observerproto.TargetState{
			ID:      t.id,
			Pos:     vec3(t.pos),
			Carried: t.carried,
			Carrier: t.carrier,
			InBase:  t.inBase,
		})
	}
	for _, j := range joins {
		msg.Joins = append(msg.Joins, observerproto.JoinInfo{AgentID: j.AgentID, Name: j.Name, Team: j.Team})
	}
	for _, ev := range w.events {
		msg.Events = append(msg.Events, observerproto.EventInfo{
			AgentID: ev.AgentID,
			Kind:    ev.Kind,
			Other:   ev.Other,
			Team:    ev.Team,
			Count:   ev.Count,
		})
	}
	return msg
}

func (w *World) broadcastObservers(msg observerproto.TickMsg) {
	var full, bare []byte
	for _, o := range w.observers {
		if msg.MatchEnd == nil && msg.Tick%o.every != 0 {
			continue
		}
		if o.events {
			if full == nil {
				full, _ = json.Marshal(msg)
			}
			sendLatest(o.out, full)
			continue
		}
		if bare == nil {
			m := msg
			m.Events = nil
			bare, _ = json.Marshal(m)
		}
		sendLatest(o.out, bare)
	}
}
