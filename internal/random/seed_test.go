package random

import "testing"

func TestResolve(t *testing.T) {
	got, err := Resolve(42)
	if err != nil || got != 42 {
		t.Fatalf("got %d, %v", got, err)
	}

	a, err := Resolve(0)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	b, err := NewSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	if a == b {
		t.Fatalf("two crypto seeds collided: %d", a)
	}
}

func TestForTick(t *testing.T) {
	a, err := ForTick(2, 10)
	if err != nil {
		t.Fatalf("for tick: %v", err)
	}
	b, _ := ForTick(2, 10)
	if a != b {
		t.Fatalf("same base and tick gave %d and %d", a, b)
	}

	seen := map[int64]bool{}
	for tick := int64(1); tick <= 52; tick++ {
		s, _ := ForTick(2, tick)
		if seen[s] {
			t.Fatalf("tick %d repeated seed %d", tick, s)
		}
		seen[s] = true
	}

	x, _ := ForTick(0, 10)
	y, _ := ForTick(0, 10)
	if x == y {
		t.Fatalf("zero base should draw fresh seeds, got %d twice", x)
	}
}
