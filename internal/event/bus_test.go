package event

import "testing"

func TestBusDeliversInOrder(t *testing.T) {
	b := NewBus()
	_, ch := b.Subscribe(16)

	for i := 0; i < 5; i++ {
		b.Publish(i)
	}

	for want := 0; want < 5; want++ {
		got := <-ch
		if got != want {
			t.Fatalf("received %v, want %v", got, want)
		}
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	b := NewBus()
	_, a := b.Subscribe(4)
	_, c := b.Subscribe(4)

	b.Publish("x")

	if got := <-a; got != "x" {
		t.Errorf("subscriber a received %v, want x", got)
	}
	if got := <-c; got != "x" {
		t.Errorf("subscriber c received %v, want x", got)
	}
}

func TestBusDropsOldestWhenFull(t *testing.T) {
	b := NewBus()
	_, ch := b.Subscribe(2)

	b.Publish(1)
	b.Publish(2)
	b.Publish(3) // buffer full: 1 is discarded

	if got := <-ch; got != 2 {
		t.Errorf("first received %v, want 2 (oldest dropped)", got)
	}
	if got := <-ch; got != 3 {
		t.Errorf("second received %v, want 3", got)
	}
	select {
	case got := <-ch:
		t.Errorf("unexpected extra event %v", got)
	default:
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe(1)

	b.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	if n := b.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", n)
	}

	// Publishing with no subscribers must not panic.
	b.Publish("orphan")
}

func TestBusClose(t *testing.T) {
	b := NewBus()
	_, ch := b.Subscribe(1)

	b.Close()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Close")
	}
	// Publish after Close is a no-op.
	b.Publish("late")
}
