package eventbus

import "testing"

type progress struct {
	Generation int
	Best       int
}

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[progress]()
	ch := bus.Subscribe()
	bus.Publish(progress{Generation: 1, Best: 58})
	v := <-ch
	if v.Generation != 1 || v.Best != 58 {
		t.Fatalf("unexpected event %+v", v)
	}
	if bus.Len() != 1 {
		t.Fatalf("expected one subscriber, got %d", bus.Len())
	}
	bus.Unsubscribe(ch)
	if bus.Len() != 0 {
		t.Fatalf("subscriber not removed")
	}
}

func TestTypedBusDropsWhenFull(t *testing.T) {
	bus := NewTypedBuffered[int](1)
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	if got := <-ch; got != 1 {
		t.Fatalf("expected first event, got %d", got)
	}
	if bus.Dropped() != 1 {
		t.Fatalf("expected one drop, got %d", bus.Dropped())
	}
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	bus.Publish(3)
	if _, ok := <-bus.Subscribe(); ok {
		t.Fatalf("subscribe after close must return a closed channel")
	}
}

func TestTypedBusUnsubscribeAfterClose(t *testing.T) {
	bus := NewTyped[float64]()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
