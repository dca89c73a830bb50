package orchestrator

import (
	"sync"
	"testing"
	"time"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := NewBus(4)
	ch, cancel := bus.Subscribe(EventOverrideSet)
	defer cancel()

	bus.Publish(Event{Name: EventOverrideSet, TaskID: "t1"})

	select {
	case evt := <-ch:
		if evt.TaskID != "t1" {
			t.Errorf("unexpected event: %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBusFansOutToAllSubscribers(t *testing.T) {
	bus := NewBus(4)
	ch1, cancel1 := bus.Subscribe(EventReprocessRequested)
	defer cancel1()
	ch2, cancel2 := bus.Subscribe(EventReprocessRequested)
	defer cancel2()

	bus.Publish(Event{Name: EventReprocessRequested, TaskID: "t1"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.TaskID != "t1" {
				t.Errorf("subscriber %d got unexpected event: %+v", i, evt)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the event", i)
		}
	}
}

func TestBusIgnoresOtherEventNames(t *testing.T) {
	bus := NewBus(4)
	ch, cancel := bus.Subscribe(EventOverrideSet)
	defer cancel()

	bus.Publish(Event{Name: EventReprocessRequested, TaskID: "t1"})

	select {
	case evt := <-ch:
		t.Errorf("received event for wrong name: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := NewBus(4)
	ch, cancel := bus.Subscribe(EventOverrideSet)
	cancel()

	// channel is closed on cancel
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after cancel")
	}

	// publishing after cancel must not panic or count drops
	bus.Publish(Event{Name: EventOverrideSet, TaskID: "t1"})
	if bus.DroppedCount() != 0 {
		t.Errorf("expected no drops, got %d", bus.DroppedCount())
	}
}

func TestBusCancelDuringParkedPublish(t *testing.T) {
	bus := NewBus(1)
	ch, cancel := bus.Subscribe(EventOverrideSet)

	// Fill the buffer so the next publish parks in the grace-period send.
	bus.Publish(Event{Name: EventOverrideSet, TaskID: "t1"})

	published := make(chan struct{})
	go func() {
		defer close(published)
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("Publish panicked after concurrent cancel: %v", r)
			}
		}()
		bus.Publish(Event{Name: EventOverrideSet, TaskID: "t2"})
	}()

	// Let the publisher reach the grace-period send before cancelling.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("Publish did not return after cancel")
	}

	// The buffered event drains, then the channel reports closed.
	if evt, ok := <-ch; !ok || evt.TaskID != "t1" {
		t.Errorf("expected buffered event before close, got %+v ok=%v", evt, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after cancel")
	}
}

func TestBusDropsWhenSubscriberStalls(t *testing.T) {
	bus := NewBus(1)
	_, cancel := bus.Subscribe(EventOverrideSet)
	defer cancel()

	// fill the buffer, then exceed it; nobody is draining
	bus.Publish(Event{Name: EventOverrideSet, TaskID: "t1"})
	bus.Publish(Event{Name: EventOverrideSet, TaskID: "t2"})

	if bus.DroppedCount() != 1 {
		t.Errorf("expected 1 dropped delivery, got %d", bus.DroppedCount())
	}
}

func TestBusStampsPublishTime(t *testing.T) {
	bus := NewBus(4)
	ch, cancel := bus.Subscribe(EventOverrideSet)
	defer cancel()

	bus.Publish(Event{Name: EventOverrideSet, TaskID: "t1"})
	evt := <-ch
	if evt.At.IsZero() {
		t.Error("expected publish time to be stamped")
	}
}

func TestBusConcurrentPublish(t *testing.T) {
	bus := NewBus(256)
	ch, cancel := bus.Subscribe(EventReprocessRequested)
	defer cancel()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(Event{Name: EventReprocessRequested, TaskID: "t"})
		}()
	}
	wg.Wait()

	received := 0
	timeout := time.After(2 * time.Second)
	for received < n {
		select {
		case <-ch:
			received++
		case <-timeout:
			t.Fatalf("received %d of %d events", received, n)
		}
	}
}
