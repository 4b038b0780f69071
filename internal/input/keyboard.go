// Package input turns terminal key events into the held-key state used by
// manual play.
package input

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"cogsarena.ai/internal/agent"
)

// DefaultHold is how long a key counts as held after its last press event.
// Terminals report presses and autorepeat, never releases.
const DefaultHold = 150 * time.Millisecond

type key int

const (
	keyUp key = iota
	keyDown
	keyLeft
	keyRight
	keySpace
	keyA
	keyZ
	numKeys
)

type Keyboard struct {
	hold time.Duration
	now  func() time.Time
	last [numKeys]time.Time
}

func NewKeyboard(hold time.Duration) *Keyboard {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Keyboard{hold: hold, now: time.Now}
}

// Handle records one terminal event. It returns true when the user asked to
// quit (Esc, Ctrl-C or q).
func (k *Keyboard) Handle(ev tcell.Event) (quit bool) {
	kev, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	return k.press(kev.Key(), kev.Rune())
}

func (k *Keyboard) press(code tcell.Key, r rune) bool {
	switch code {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		k.mark(keyUp)
	case tcell.KeyDown:
		k.mark(keyDown)
	case tcell.KeyLeft:
		k.mark(keyLeft)
	case tcell.KeyRight:
		k.mark(keyRight)
	case tcell.KeyRune:
		switch r {
		case 'q', 'Q':
			return true
		case ' ':
			k.mark(keySpace)
		case 'a', 'A':
			k.mark(keyA)
		case 'z', 'Z':
			k.mark(keyZ)
		}
	}
	return false
}

func (k *Keyboard) mark(c key) { k.last[c] = k.now() }

func (k *Keyboard) held(c key, now time.Time) bool {
	t := k.last[c]
	return !t.IsZero() && now.Sub(t) < k.hold
}

// State reports the keys pressed within the hold window.
func (k *Keyboard) State() agent.KeyState {
	now := k.now()
	return agent.KeyState{
		Up:    k.held(keyUp, now),
		Down:  k.held(keyDown, now),
		Left:  k.held(keyLeft, now),
		Right: k.held(keyRight, now),
		Space: k.held(keySpace, now),
		A:     k.held(keyA, now),
		Z:     k.held(keyZ, now),
	}
}

// Action is agent.Heuristic over the current State.
func (k *Keyboard) Action() agent.ActionVector { return agent.Heuristic(k.State()) }
