package arena

import (
	"encoding/json"
	"time"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/observerproto"
)

func (w *World) step(joins []JoinRequest, leaves []string, actions []ActionEnvelope) {
	stepStart := time.Now()
	nowTick := w.tick.Load()
	w.events = w.events[:0]

	// Apply leaves and joins deterministically at tick boundary.
	recordedLeaves := make([]string, 0, len(leaves))
	for _, id := range leaves {
		if w.handleLeave(id) {
			recordedLeaves = append(recordedLeaves, id)
		}
	}
	recordedJoins := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		resp, ok := w.joinAgent(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
		if ok {
			recordedJoins = append(recordedJoins, RecordedJoin{AgentID: resp.Welcome.AgentID, Name: req.Name, Team: resp.Welcome.Team})
		}
	}

	// The last ACT received for an agent this tick wins. An agent with no
	// ACT decides on the zero vector.
	latest := map[string]agent.ActionVector{}
	for _, env := range actions {
		if w.agents[env.AgentID] == nil {
			continue
		}
		latest[env.AgentID] = agent.ActionFromInts(env.Act.Action)
	}
	recorded := make([]RecordedAction, 0, len(latest))
	for _, id := range w.order {
		a := w.agents[id]
		act, ok := latest[id]
		if ok {
			recorded = append(recorded, RecordedAction{AgentID: id, Action: act})
		}
		a.ctrl.DecideAndAct(act)
		if a.laser && !a.Frozen() {
			a.award(agent.RewardShootingLaser)
		}
	}

	// Systems: movement -> laser -> contacts -> carried targets.
	w.systemMovement()
	w.systemLaser()
	w.systemContacts()
	w.systemCarry()

	w.matchTick++
	done := w.matchTick >= w.cfg.MatchTicks
	score := w.Score()

	// Build + send OBS for each agent; settle per-tick rewards.
	var rewards []RecordedReward
	for _, id := range w.order {
		a := w.agents[id]
		triggers := a.anim.DrainTriggers()
		if cl := w.clients[id]; cl != nil {
			obs := w.buildObs(a, nowTick, done, triggers, score)
			if b, err := json.Marshal(obs); err == nil {
				sendLatest(cl.Out, b)
			}
		}
		if a.pending != 0 {
			rewards = append(rewards, RecordedReward{AgentID: id, Delta: a.pending, Total: a.cumulative})
		}
		a.pending = 0
	}

	match := w.match
	var frame *observerproto.TickMsg
	if len(w.observers) > 0 {
		f := w.observerFrame(nowTick, score, recordedJoins, recordedLeaves)
		frame = &f
	}
	var result *MatchResult
	if done {
		result = w.matchResult(nowTick, score)
		w.lastResult = result
		w.matchesTotal++
		w.resetMatch()
	}
	if frame != nil {
		if result != nil {
			frame.MatchEnd = &observerproto.MatchEndInfo{Match: result.Match, Score: result.Score, Winner: result.Winner, Rewards: result.Rewards}
		}
		w.broadcastObservers(*frame)
	}

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:     nowTick,
			Match:    match,
			Joins:    recordedJoins,
			Leaves:   recordedLeaves,
			Actions:  recorded,
			Rewards:  rewards,
			Events:   append([]RecordedEvent(nil), w.events...),
			MatchEnd: result,
			Digest:   digest,
		})
	}

	// Snapshot every N ticks, starting after tick 0, and at every match
	// boundary.
	if w.snapshotSink != nil {
		periodic := nowTick != 0 && w.cfg.SnapshotEveryTicks > 0 && nowTick%uint64(w.cfg.SnapshotEveryTicks) == 0
		if periodic || done {
			snap := w.ExportSnapshot(nowTick)
			select {
			case w.snapshotSink <- snap:
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)
	w.metrics.Store(Metrics{
		Tick:         nextTick,
		Match:        w.match,
		MatchTick:    w.matchTick,
		Agents:       len(w.agents),
		Clients:      len(w.clients),
		Observers:    len(w.observers),
		Score:        w.Score(),
		MatchesTotal: w.matchesTotal,
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
		StepMS: stepMS,
	})
}

func (w *World) matchResult(nowTick uint64, score [2]int) *MatchResult {
	r := &MatchResult{
		Match:   w.match,
		EndTick: nowTick,
		Score:   score,
		Rewards: make(map[string]float64, len(w.agents)),
	}
	switch {
	case score[0] > score[1]:
		r.Winner = 1
	case score[1] > score[0]:
		r.Winner = 2
	}
	for _, id := range w.order {
		r.Rewards[id] = w.agents[id].cumulative
	}
	return r
}

func (w *World) record(ev RecordedEvent) { w.events = append(w.events, ev) }
