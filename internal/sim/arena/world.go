package arena

import (
	"sort"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/persistence/snapshot"
)

// base is a team's deposit zone on the ground plane.
type base struct {
	team   int
	center mgl64.Vec3
	zone   orb.Ring
}

type target struct {
	id      string
	pos     mgl64.Vec3
	carried int
	carrier string
	inBase  int
}

type clientState struct {
	Out chan []byte
}

// World is a single-threaded authoritative arena.
// All state must be accessed only from the arena loop goroutine.
type World struct {
	cfg Config

	tick      atomic.Uint64
	match     int
	matchTick int

	bounds orb.Bound
	bases  [2]base

	agents  map[string]*agentState
	order   []string
	targets []*target
	clients map[string]*clientState

	observers map[string]*observerClient

	inbox chan ActionEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}
	done  chan struct{}

	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	observerSub   chan ObserverSubscribeRequest

	nextAgentNum atomic.Uint64
	matchesTotal uint64
	lastResult   *MatchResult

	// Per-tick event buffer (filled by the systems).
	events []RecordedEvent

	// Optional sinks (may be nil).
	tickLogger   TickLogger
	snapshotSink chan<- snapshot.SnapshotV1

	metrics atomic.Value
}

var _ agent.Arena = (*World)(nil)

func New(cfg Config) (*World, error) {
	if cfg.MaxAgents <= 0 {
		cfg.MaxAgents = DefaultMaxAgents
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	h := cfg.HalfSize
	w := &World{
		cfg:     cfg,
		bounds:  orb.Bound{Min: orb.Point{-h, -h}, Max: orb.Point{h, h}},
		agents:  map[string]*agentState{},
		clients: map[string]*clientState{},
		inbox:   make(chan ActionEnvelope, 1024),
		join:    make(chan JoinRequest, 64),
		leave:   make(chan string, 64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),

		observers:     map[string]*observerClient{},
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerLeave: make(chan string, 16),
		observerSub:   make(chan ObserverSubscribeRequest, 16),
	}
	offset := cfg.HalfSize - cfg.BaseHalfSize
	w.bases[0] = newBase(1, mgl64.Vec3{0, 0, -offset}, cfg.BaseHalfSize)
	w.bases[1] = newBase(2, mgl64.Vec3{0, 0, offset}, cfg.BaseHalfSize)
	w.spawnTargets()
	w.metrics.Store(Metrics{})
	return w, nil
}

func newBase(team int, center mgl64.Vec3, half float64) base {
	b := orb.Bound{
		Min: orb.Point{center.X() - half, center.Z() - half},
		Max: orb.Point{center.X() + half, center.Z() + half},
	}
	return base{team: team, center: center, zone: b.ToRing()}
}

func groundPoint(v mgl64.Vec3) orb.Point { return orb.Point{v.X(), v.Z()} }

// zoneAt returns the team whose base contains p, or 0.
func (w *World) zoneAt(p mgl64.Vec3) int {
	gp := groundPoint(p)
	for _, b := range w.bases {
		if planar.RingContains(b.zone, gp) {
			return b.team
		}
	}
	return 0
}

// Targets implements agent.Arena. Order is spawn order and never changes.
func (w *World) Targets() []agent.Target {
	out := make([]agent.Target, 0, len(w.targets))
	for _, t := range w.targets {
		out = append(out, agent.Target{ID: t.id, Position: t.pos, Carried: t.carried, InBase: t.inBase})
	}
	return out
}

func (w *World) HomeBase(team int) mgl64.Vec3 {
	if team < 1 || team > len(w.bases) {
		return mgl64.Vec3{}
	}
	return w.bases[team-1].center
}

// TimeRemaining is the match clock in seconds.
func (w *World) TimeRemaining() float64 {
	left := w.cfg.MatchTicks - w.matchTick
	if left < 0 {
		left = 0
	}
	return float64(left) / float64(w.cfg.TickRateHz)
}

// Score counts the targets resting in each team's base.
func (w *World) Score() [2]int {
	var s [2]int
	for _, t := range w.targets {
		if t.inBase >= 1 && t.inBase <= 2 {
			s[t.inBase-1]++
		}
	}
	return s
}

func (w *World) ID() string { return w.cfg.ID }

func (w *World) Config() Config { return w.cfg }

func (w *World) sortAgents() {
	w.order = w.order[:0]
	for id := range w.agents {
		w.order = append(w.order, id)
	}
	sort.Slice(w.order, func(i, j int) bool {
		return w.agents[w.order[i]].num < w.agents[w.order[j]].num
	})
}

func (w *World) teamCounts() [2]int {
	var c [2]int
	for _, a := range w.agents {
		c[a.team-1]++
	}
	return c
}
