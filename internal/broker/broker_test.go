package broker

import (
	"testing"
	"time"
)

func TestMemoryPublishSubscribe(t *testing.T) {
	b := NewMemory()
	ch := b.Subscribe(Topic)

	evt := Event{Type: "instance.generated", Data: map[string]any{"id": "x"}}
	b.Publish(Topic, evt)
	b.Publish("other", Event{Type: "ignored"})

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["id"] != "x" {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(Topic, ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	// second unsubscribe and publish without subscribers are no-ops
	b.Unsubscribe(Topic, ch)
	b.Publish(Topic, evt)
}

func TestMemoryDropsWhenFull(t *testing.T) {
	b := NewMemory()
	ch := b.Subscribe(Topic)
	defer b.Unsubscribe(Topic, ch)
	for i := 0; i < 20; i++ {
		b.Publish(Topic, Event{Type: "e"})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffer holds %d, want %d", len(ch), cap(ch))
	}
}

func TestChannelName(t *testing.T) {
	if got := channelName(Topic); got != "petrovrp:instances" {
		t.Fatalf("channelName = %s", got)
	}
}
