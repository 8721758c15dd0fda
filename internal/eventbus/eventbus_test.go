package eventbus

import (
	"testing"
	"time"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	b := New()
	defer b.Close()
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish("hello")
	for _, sub := range []<-chan Event{a, c} {
		select {
		case e := <-sub:
			if e != "hello" {
				t.Fatalf("got %v, want hello", e)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber never received the event")
		}
	}
}

func TestBus_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := New()
	defer b.Close()
	_ = b.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New()
	defer b.Close()
	sub := b.Subscribe()
	b.Unsubscribe(sub)

	if _, ok := <-sub; ok {
		t.Fatal("unsubscribed channel must be closed")
	}
	b.Publish("after") // must not panic
}

func TestBus_CloseStopsDelivery(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Close()
	if _, ok := <-sub; ok {
		t.Fatal("closed bus must close subscriber channels")
	}
	b.Publish("late") // must not panic
	if late := b.Subscribe(); late == nil {
		t.Fatal("subscribe after close must return a closed channel, not nil")
	}
}

type modeChanged struct{ mode string }

func TestTyped_FiltersByType(t *testing.T) {
	b := New()
	defer b.Close()
	events, cancel := Typed[modeChanged](b)
	defer cancel()

	b.Publish("noise")
	b.Publish(modeChanged{mode: "degraded"})

	select {
	case e := <-events:
		if e.mode != "degraded" {
			t.Fatalf("got %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("typed event never delivered")
	}
	select {
	case e := <-events:
		t.Fatalf("unexpected extra event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}
