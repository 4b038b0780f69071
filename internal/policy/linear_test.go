package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/protocol"
)

func TestLinear_ZeroWeightsDoNothing(t *testing.T) {
	l := NewLinear(4)
	a := l.Act(protocol.ObsMsg{Features: []float64{1, 2, 3, 4}})
	if a != (agent.ActionVector{}) {
		t.Fatalf("action=%v want zero", a)
	}
}

func TestLinear_ArgmaxPerHead(t *testing.T) {
	l := NewLinear(2)
	w := l.Weights()
	// forward: bias favours choice 1.
	w["forward"].Set(1, 2, 1)
	// rotate: choice 2 grows with feature 0.
	w["rotate"].Set(2, 0, 1)
	// shoot: choice 1 when feature 1 is negative.
	w["shoot"].Set(1, 1, -1)
	if err := l.SetWeights(w); err != nil {
		t.Fatalf("SetWeights: %v", err)
	}

	a := l.Act(protocol.ObsMsg{Features: []float64{3, -2}})
	want := agent.ActionVector{1, 2, 1, 0, 0}
	if a != want {
		t.Fatalf("action=%v want %v", a, want)
	}

	a = l.Act(protocol.ObsMsg{Features: []float64{-3, 2}})
	want = agent.ActionVector{1, 0, 0, 0, 0}
	if a != want {
		t.Fatalf("action=%v want %v", a, want)
	}
}

func TestLinear_ShortFeaturesArePadded(t *testing.T) {
	l := NewLinear(3)
	w := l.Weights()
	w["seek_base"].Set(1, 2, 1)
	w["seek_base"].Set(0, 3, 0.5)
	if err := l.SetWeights(w); err != nil {
		t.Fatalf("SetWeights: %v", err)
	}
	// Feature 2 missing reads as 0, so the bias of choice 0 wins.
	if a := l.Act(protocol.ObsMsg{Features: []float64{1}}); a.SeekBase() {
		t.Fatalf("action=%v want seek_base off", a)
	}
	if a := l.Act(protocol.ObsMsg{Features: []float64{0, 0, 1, 99}}); !a.SeekBase() {
		t.Fatalf("action=%v want seek_base on", a)
	}
}

func TestLinear_SetWeightsRejectsBadShapes(t *testing.T) {
	l := NewLinear(2)
	w := l.Weights()
	w["rotate"] = mat.NewDense(2, 3, nil)
	if err := l.SetWeights(w); err == nil {
		t.Fatalf("expected shape error")
	}
	w = l.Weights()
	delete(w, "shoot")
	if err := l.SetWeights(w); err == nil {
		t.Fatalf("expected missing head error")
	}
}

func TestLinear_SaveLoad(t *testing.T) {
	l := NewLinear(2)
	w := l.Weights()
	w["forward"].Set(2, 0, 1.5)
	if err := l.SetWeights(w); err != nil {
		t.Fatalf("SetWeights: %v", err)
	}
	path := filepath.Join(t.TempDir(), "weights.yaml")
	if err := SaveLinear(path, l); err != nil {
		t.Fatalf("SaveLinear: %v", err)
	}
	got, err := LoadLinear(path)
	if err != nil {
		t.Fatalf("LoadLinear: %v", err)
	}
	if got.ObsSize() != 2 {
		t.Fatalf("obs_size=%d", got.ObsSize())
	}
	if a := got.Act(protocol.ObsMsg{Features: []float64{1, 0}}); a.Forward() != agent.ForwardBackward {
		t.Fatalf("action=%v want forward=2", a)
	}
}

func TestLoadLinear_Errors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"no_size.yaml": "heads: {}\n",
		"ragged.yaml":  "obs_size: 1\nheads:\n  forward: [[1, 2], [1]]\n",
		"partial.yaml": "obs_size: 1\nheads:\n  forward: [[0, 0], [0, 0], [0, 0]]\n",
		"empty.yaml":   "obs_size: 2\nheads:\n  forward: [[]]\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		_, err := LoadLinear(path)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("%s: error %q does not name the file", name, err)
		}
	}
}
