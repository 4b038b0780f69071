package agent

import "testing"

func TestActionVector_ClampOutOfDomain(t *testing.T) {
	cases := []struct {
		in   ActionVector
		want ActionVector
	}{
		{ActionVector{1, 2, 1, 1, 1}, ActionVector{1, 2, 1, 1, 1}},
		{ActionVector{3, -1, 2, 5, 1}, ActionVector{0, 0, 0, 0, 1}},
		{ActionVector{-7, 9, 1, 0, 2}, ActionVector{0, 0, 1, 0, 0}},
	}
	for _, tc := range cases {
		if got := tc.in.Clamp(); got != tc.want {
			t.Fatalf("Clamp(%v)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestActionFromFloats(t *testing.T) {
	got := ActionFromFloats([]float64{1.9, 2.0, 0.4, 1, 7, 99})
	want := ActionVector{1, 2, 0, 1, 0}
	if got != want {
		t.Fatalf("ActionFromFloats=%v want %v", got, want)
	}
	if got := ActionFromInts([]int{2}); got != (ActionVector{2, 0, 0, 0, 0}) {
		t.Fatalf("short ActionFromInts=%v", got)
	}
}

func TestHeuristic_KeyPrecedence(t *testing.T) {
	a := Heuristic(KeyState{Up: true, Down: true, Right: true, Left: true, Space: true, A: true, Z: true})
	want := ActionVector{ForwardBackward, RotateLeft, 1, 1, 1}
	if a != want {
		t.Fatalf("Heuristic=%v want %v", a, want)
	}
	if a := Heuristic(KeyState{Up: true, Right: true}); a != (ActionVector{ForwardAhead, RotateRight, 0, 0, 0}) {
		t.Fatalf("Heuristic up/right=%v", a)
	}
	if a := Heuristic(KeyState{}); a != (ActionVector{}) {
		t.Fatalf("Heuristic idle=%v", a)
	}
}
