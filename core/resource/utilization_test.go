package resource

import (
	"errors"
	"testing"
)

func TestAddAndGet(t *testing.T) {
	u := New([]int{12, 13, 4, 12}, 0)
	if u.Horizon() != DefaultHorizon {
		t.Fatalf("horizon %d", u.Horizon())
	}
	u.Add([]int{4, 0, 0, 0}, 0, 8)
	if got := u.Get(0, 0); got != 4 {
		t.Fatalf("get(0,0)=%d", got)
	}
	if got := u.Get(0, 7); got != 4 {
		t.Fatalf("get(0,7)=%d", got)
	}
	if got := u.Get(0, 8); got != 0 {
		t.Fatalf("get(0,8)=%d", got)
	}
	if got := u.Remaining(0, 3); got != 8 {
		t.Fatalf("remaining(0,3)=%d", got)
	}
	if got := u.Get(1, 100); got != 0 {
		t.Fatalf("beyond horizon: %d", got)
	}
}

func TestHorizonGrowth(t *testing.T) {
	u := New([]int{12, 13, 4, 12}, 16)
	u.Add([]int{4, 0, 0, 0}, 0, 8)
	u.Add([]int{4, 0, 0, 0}, 16, 18)
	if u.Horizon() < 18 {
		t.Fatalf("horizon %d", u.Horizon())
	}
	if u.Horizon() != 32 {
		t.Fatalf("expected one chunk of 16, horizon %d", u.Horizon())
	}
	if u.Get(0, 0) != 4 || u.Get(0, 17) != 4 || u.Get(0, 18) != 0 {
		t.Fatalf("cells changed by growth")
	}
	u.ExtendMakespan(10)
	if u.Horizon() != 32 {
		t.Fatalf("extend must not shrink: %d", u.Horizon())
	}
	u.ExtendMakespan(70)
	if u.Horizon() != 96 {
		t.Fatalf("horizon after extend to 70: %d", u.Horizon())
	}
}

func TestIsFree(t *testing.T) {
	u := New([]int{4}, 8)
	u.Add([]int{3}, 2, 5)
	if u.IsFree([]int{2}, 0, 4) {
		t.Fatalf("overlap should exceed capacity")
	}
	if !u.IsFree([]int{1}, 0, 10) {
		t.Fatalf("one unit should fit everywhere")
	}
	if !u.IsFree([]int{4}, 5, 40) {
		t.Fatalf("free region beyond horizon")
	}
	if u.IsFree([]int{5}, 20, 21) {
		t.Fatalf("demand above capacity")
	}
}

func TestRemove(t *testing.T) {
	u := New([]int{4, 4}, 8)
	u.Add([]int{2, 1}, 1, 3)
	if err := u.Remove([]int{2, 1}, 1, 3); err != nil {
		t.Fatalf("remove: %v", err)
	}
	for r := 0; r < 2; r++ {
		for ts := 0; ts < 8; ts++ {
			if u.Get(r, ts) != 0 {
				t.Fatalf("cell (%d,%d) not restored", r, ts)
			}
		}
	}
}

func TestRemoveUnderflow(t *testing.T) {
	u := New([]int{4, 4}, 8)
	u.Add([]int{1, 1}, 0, 2)
	err := u.Remove([]int{1, 2}, 0, 2)
	if !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	if u.Get(0, 0) != 1 || u.Get(1, 1) != 1 {
		t.Fatalf("failed remove must not mutate")
	}
	if err := u.Remove([]int{1, 0}, 20, 22); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expected underflow beyond horizon, got %v", err)
	}
}

func TestClone(t *testing.T) {
	u := New([]int{4}, 4)
	u.Add([]int{1}, 0, 2)
	c := u.Clone()
	c.Add([]int{2}, 0, 2)
	if u.Get(0, 0) != 1 || c.Get(0, 0) != 3 {
		t.Fatalf("clone shares cells")
	}
}
