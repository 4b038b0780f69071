package input

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"cogsarena.ai/internal/agent"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestKeyboard() (*Keyboard, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	k := NewKeyboard(100 * time.Millisecond)
	k.now = clk.now
	return k, clk
}

func TestKeyboard_HoldWindow(t *testing.T) {
	k, clk := newTestKeyboard()
	k.press(tcell.KeyUp, 0)

	if s := k.State(); !s.Up {
		t.Fatalf("up not held right after press: %+v", s)
	}
	clk.t = clk.t.Add(99 * time.Millisecond)
	if s := k.State(); !s.Up {
		t.Fatalf("up released early: %+v", s)
	}
	clk.t = clk.t.Add(time.Millisecond)
	if s := k.State(); s.Up {
		t.Fatalf("up still held after window: %+v", s)
	}
}

func TestKeyboard_RepeatExtendsHold(t *testing.T) {
	k, clk := newTestKeyboard()
	k.press(tcell.KeyLeft, 0)
	clk.t = clk.t.Add(80 * time.Millisecond)
	k.press(tcell.KeyLeft, 0)
	clk.t = clk.t.Add(80 * time.Millisecond)
	if s := k.State(); !s.Left {
		t.Fatalf("autorepeat did not extend hold: %+v", s)
	}
}

func TestKeyboard_Mapping(t *testing.T) {
	cases := []struct {
		name string
		code tcell.Key
		r    rune
		want agent.ActionVector
	}{
		{"up", tcell.KeyUp, 0, agent.ActionVector{1, 0, 0, 0, 0}},
		{"down", tcell.KeyDown, 0, agent.ActionVector{2, 0, 0, 0, 0}},
		{"right", tcell.KeyRight, 0, agent.ActionVector{0, 1, 0, 0, 0}},
		{"left", tcell.KeyLeft, 0, agent.ActionVector{0, 2, 0, 0, 0}},
		{"space", tcell.KeyRune, ' ', agent.ActionVector{0, 0, 1, 0, 0}},
		{"a", tcell.KeyRune, 'a', agent.ActionVector{0, 0, 0, 1, 0}},
		{"Z", tcell.KeyRune, 'Z', agent.ActionVector{0, 0, 0, 0, 1}},
		{"unbound", tcell.KeyRune, 'x', agent.ActionVector{}},
	}
	for _, tc := range cases {
		k, _ := newTestKeyboard()
		if quit := k.press(tc.code, tc.r); quit {
			t.Fatalf("%s: unexpected quit", tc.name)
		}
		if got := k.Action(); got != tc.want {
			t.Fatalf("%s: action=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestKeyboard_ChordsFollowHeuristic(t *testing.T) {
	k, _ := newTestKeyboard()
	k.press(tcell.KeyUp, 0)
	k.press(tcell.KeyDown, 0)
	k.press(tcell.KeyRight, 0)
	k.press(tcell.KeyLeft, 0)
	k.press(tcell.KeyRune, 'a')
	want := agent.ActionVector{2, 2, 0, 1, 0}
	if got := k.Action(); got != want {
		t.Fatalf("action=%v want %v", got, want)
	}
}

func TestKeyboard_Quit(t *testing.T) {
	k, _ := newTestKeyboard()
	for _, tc := range []struct {
		code tcell.Key
		r    rune
	}{{tcell.KeyEscape, 0}, {tcell.KeyCtrlC, 0}, {tcell.KeyRune, 'q'}} {
		if !k.press(tc.code, tc.r) {
			t.Fatalf("key %v/%q did not quit", tc.code, tc.r)
		}
	}
}

func TestKeyboard_IgnoresNonKeyEvents(t *testing.T) {
	k, _ := newTestKeyboard()
	if k.Handle(tcell.NewEventResize(80, 24)) {
		t.Fatalf("resize treated as quit")
	}
	if s := k.State(); s != (agent.KeyState{}) {
		t.Fatalf("state=%+v want empty", s)
	}
}
