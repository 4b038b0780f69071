package arena

import (
	"testing"

	"cogsarena.ai/internal/persistence/snapshot"
)

// script drives two agents with a fixed action pattern.
func script(tick int) []ActionEnvelope {
	return []ActionEnvelope{
		act("A1", tick%3, (tick/7)%3, tick%2, (tick/5)%2, 0),
		act("A2", 1, 0, 1, 1, (tick/40)%2),
	}
}

func runScripted(t *testing.T, w *World, ticks int) []string {
	t.Helper()
	join(t, w, "a", 0, nil)
	join(t, w, "b", 0, nil)
	var digests []string
	for i := 0; i < ticks; i++ {
		_, d := w.StepOnce(nil, nil, script(i))
		digests = append(digests, d)
	}
	return digests
}

func TestStepOnce_Deterministic(t *testing.T) {
	a := runScripted(t, newTestWorld(t, 42, nil), 300)
	b := runScripted(t, newTestWorld(t, 42, nil), 300)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("digest mismatch at step %d", i)
		}
	}
	c := runScripted(t, newTestWorld(t, 43, nil), 1)
	if c[0] == a[0] {
		t.Fatalf("different seeds should give different arenas")
	}
}

func TestSnapshot_ImportContinuesIdentically(t *testing.T) {
	w := newTestWorld(t, 9, nil)
	runScripted(t, w, 120)

	last := w.CurrentTick() - 1
	snap := w.ExportSnapshot(last)

	cfg, err := ConfigFromSnapshot(snap)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := r.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if r.CurrentTick() != w.CurrentTick() {
		t.Fatalf("tick: %d vs %d", r.CurrentTick(), w.CurrentTick())
	}
	if got, want := r.stateDigest(last), w.stateDigest(last); got != want {
		t.Fatalf("digest after import differs")
	}
	for i := 120; i < 200; i++ {
		_, a := w.StepOnce(nil, nil, script(i))
		_, b := r.StepOnce(nil, nil, script(i))
		if a != b {
			t.Fatalf("diverged at step %d", i)
		}
	}
}

func TestSnapshot_SinkReceivesEveryN(t *testing.T) {
	w := newTestWorld(t, 1, func(c *Config) { c.SnapshotEveryTicks = 5 })
	ch := make(chan snapshot.SnapshotV1, 4)
	w.SetSnapshotSink(ch)
	for i := 0; i < 11; i++ {
		w.StepOnce(nil, nil, nil)
	}
	if len(ch) != 2 {
		t.Fatalf("snapshots=%d want 2", len(ch))
	}
	s := <-ch
	if s.Header.Tick != 5 || s.Header.ArenaID != "test" {
		t.Fatalf("header: %+v", s.Header)
	}
}

func TestSnapshot_MatchBoundaryCarriesResult(t *testing.T) {
	w := newTestWorld(t, 1, func(c *Config) {
		c.SnapshotEveryTicks = 0
		c.MatchTicks = 4
	})
	ch := make(chan snapshot.SnapshotV1, 4)
	w.SetSnapshotSink(ch)
	join(t, w, "a", 0, nil)
	for i := 0; i < 3; i++ {
		w.StepOnce(nil, nil, nil)
	}
	if len(ch) != 1 {
		t.Fatalf("snapshots=%d want 1", len(ch))
	}
	s := <-ch
	if s.Header.Tick != 3 || s.MatchTick != 0 || s.Header.Match != 1 {
		t.Fatalf("boundary snapshot header=%+v match_tick=%d", s.Header, s.MatchTick)
	}
	if s.LastResult == nil || s.LastResult.Match != 0 || s.LastResult.EndTick != 3 {
		t.Fatalf("last result=%+v", s.LastResult)
	}

	cfg, err := ConfigFromSnapshot(s)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := r.ImportSnapshot(s); err != nil {
		t.Fatalf("import: %v", err)
	}
	if again := r.ExportSnapshot(3); again.LastResult == nil || again.LastResult.EndTick != 3 {
		t.Fatalf("last result lost on import: %+v", again.LastResult)
	}
}
