package policy

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"cogsarena.ai/internal/agent"
	"cogsarena.ai/internal/protocol"
)

// HeadNames names the weight matrix of each action slot.
var HeadNames = [agent.ActionSize]string{"forward", "rotate", "shoot", "seek_target", "seek_base"}

// Linear scores every choice of every action slot with an affine function of
// the feature vector and picks the highest. Head i is a
// SlotSize(i) x (obsSize+1) matrix; the last column is the bias.
type Linear struct {
	obsSize int
	heads   [agent.ActionSize]*mat.Dense
}

// NewLinear returns a policy with all weights zero, which always picks
// choice 0 ("do nothing").
func NewLinear(obsSize int) *Linear {
	l := &Linear{obsSize: obsSize}
	for i := range l.heads {
		l.heads[i] = mat.NewDense(agent.SlotSize(i), obsSize+1, nil)
	}
	return l
}

func (l *Linear) ObsSize() int { return l.obsSize }

func (l *Linear) Weights() map[string]*mat.Dense {
	out := make(map[string]*mat.Dense, len(HeadNames))
	for i, name := range HeadNames {
		out[name] = mat.DenseCopyOf(l.heads[i])
	}
	return out
}

func (l *Linear) SetWeights(w map[string]*mat.Dense) error {
	if len(w) != len(HeadNames) {
		return fmt.Errorf("linear policy: want %d heads, got %d", len(HeadNames), len(w))
	}
	var next [agent.ActionSize]*mat.Dense
	for i, name := range HeadNames {
		m, ok := w[name]
		if !ok || m == nil {
			return fmt.Errorf("linear policy: missing head %q", name)
		}
		r, c := m.Dims()
		if r != agent.SlotSize(i) || c != l.obsSize+1 {
			return fmt.Errorf("linear policy: head %q is %dx%d, want %dx%d", name, r, c, agent.SlotSize(i), l.obsSize+1)
		}
		next[i] = mat.DenseCopyOf(m)
	}
	l.heads = next
	return nil
}

func (l *Linear) Act(obs protocol.ObsMsg) agent.ActionVector {
	x := mat.NewVecDense(l.obsSize+1, nil)
	for i := 0; i < l.obsSize && i < len(obs.Features); i++ {
		x.SetVec(i, obs.Features[i])
	}
	x.SetVec(l.obsSize, 1)

	var a agent.ActionVector
	for i, w := range l.heads {
		var logits mat.VecDense
		logits.MulVec(w, x)
		a[i] = argmax(&logits)
	}
	return a
}

func argmax(v mat.Vector) int {
	best := 0
	for i := 1; i < v.Len(); i++ {
		if v.AtVec(i) > v.AtVec(best) {
			best = i
		}
	}
	return best
}

type linearFile struct {
	ObsSize int                    `yaml:"obs_size"`
	Heads   map[string][][]float64 `yaml:"heads"`
}

// LoadLinear reads weights from a yaml file of the form
//
//	obs_size: 56
//	heads:
//	  forward: [[...], [...], [...]]
//	  ...
func LoadLinear(path string) (*Linear, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f linearFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.ObsSize <= 0 {
		return nil, fmt.Errorf("%s: obs_size must be > 0", path)
	}
	l := NewLinear(f.ObsSize)
	w := make(map[string]*mat.Dense, len(f.Heads))
	for name, rows := range f.Heads {
		if len(rows) == 0 {
			return nil, fmt.Errorf("%s: head %q has no rows", path, name)
		}
		cols := len(rows[0])
		if cols == 0 {
			return nil, fmt.Errorf("%s: head %q has empty rows", path, name)
		}
		data := make([]float64, 0, len(rows)*cols)
		for _, r := range rows {
			if len(r) != cols {
				return nil, fmt.Errorf("%s: head %q is ragged", path, name)
			}
			data = append(data, r...)
		}
		w[name] = mat.NewDense(len(rows), cols, data)
	}
	if err := l.SetWeights(w); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// SaveLinear writes weights in the LoadLinear format.
func SaveLinear(path string, l *Linear) error {
	f := linearFile{ObsSize: l.obsSize, Heads: map[string][][]float64{}}
	for i, name := range HeadNames {
		m := l.heads[i]
		r, _ := m.Dims()
		rows := make([][]float64, r)
		for j := 0; j < r; j++ {
			rows[j] = mat.Row(nil, j, m)
		}
		f.Heads[name] = rows
	}
	b, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
