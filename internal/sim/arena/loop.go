package arena

import (
	"context"
	"fmt"
	"time"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/persistence/snapshot"
	"cogsarena.ai/internal/protocol"
)

func (w *World) Run(ctx context.Context) error {
	defer close(w.done)
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case req := <-w.observerJoin:
			w.addObserver(req)
		case id := <-w.observerLeave:
			w.removeObserver(id)
		case req := <-w.observerSub:
			w.updateObserver(req)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// Done is closed once Run has returned. Nothing reads the arena channels
// after that.
func (w *World) Done() <-chan struct{} { return w.done }

// StepOnce advances the arena by a single tick using the same ordering
// semantics as Run. It is meant for deterministic replays and tests.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, actions []ActionEnvelope) (tick uint64, digest string) {
	tick = w.tick.Load()
	w.step(joins, leaves, actions)
	return tick, w.stateDigest(tick)
}

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) chooseTeam(pref int) int {
	if pref == 1 || pref == 2 {
		return pref
	}
	c := w.teamCounts()
	if c[1] < c[0] {
		return 2
	}
	return 1
}

func (w *World) joinAgent(req JoinRequest) (JoinResponse, bool) {
	if len(w.agents) >= w.cfg.MaxAgents {
		return JoinResponse{Code: protocol.ErrArenaFull, Message: fmt.Sprintf("arena holds %d agents", w.cfg.MaxAgents)}, false
	}
	num := w.nextAgentNum.Add(1)
	team := w.chooseTeam(req.Team)
	a := w.newAgent(num, req.Name, team)
	a.pos, a.yawDeg = w.spawnPose(num, team)
	a.zone = w.zoneAt(a.pos)

	w.agents[a.id] = a
	w.sortAgents()
	if req.Out != nil {
		w.clients[a.id] = &clientState{Out: req.Out}
	}
	return JoinResponse{Welcome: w.welcome(a)}, true
}

func (w *World) welcome(a *agentState) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		AgentID:         a.id,
		Team:            a.team,
		ArenaParams: protocol.ArenaParams{
			ArenaID:    w.cfg.ID,
			TickRateHz: w.cfg.TickRateHz,
			MatchTicks: w.cfg.MatchTicks,
			HalfSize:   w.cfg.HalfSize,
			Targets:    len(w.targets),
			ObsSize:    agent.ObservationSize(len(w.targets)),
			ActionSize: agent.ActionSize,
			Seed:       w.cfg.Seed,
		},
		Rewards: w.cfg.Rewards.Map(),
	}
}

// handleLeave removes the agent and drops whatever it carried where it stood.
func (w *World) handleLeave(agentID string) bool {
	a := w.agents[agentID]
	if a == nil {
		return false
	}
	for _, t := range w.targets {
		if t.carrier == agentID {
			t.carrier = ""
			t.carried = 0
			t.pos = a.pos
			t.inBase = w.zoneAt(t.pos)
		}
	}
	delete(w.agents, agentID)
	delete(w.clients, agentID)
	w.sortAgents()
	return true
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
