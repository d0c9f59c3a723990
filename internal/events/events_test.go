package events

import (
	"encoding/json"
	"testing"

	"github.com/burgnice/storefront/pkg/enums"
)

func TestPublishDeliversInOrderToSessionOnly(t *testing.T) {
	bus := NewBus()
	var got []Kind
	var other int

	bus.Subscribe("s1", func(e Event) { got = append(got, e.Kind()) })
	bus.Subscribe("s2", func(Event) { other++ })

	bus.Publish("s1", CartUpdated{Count: 2, Total: 10})
	bus.Publish("s1", OrderTypeChanged{OrderType: enums.OrderTypePickup})
	bus.Publish("s1", OpenAuthModal{})

	want := []Kind{KindCartUpdated, KindOrderTypeChanged, KindOpenAuthModal}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if other != 0 {
		t.Fatalf("other session should not receive events, got %d", other)
	}
}

func TestPublishIsSynchronous(t *testing.T) {
	bus := NewBus()
	var last CartUpdated
	bus.Subscribe("s1", func(e Event) { last = e.(CartUpdated) })

	bus.Publish("s1", CartUpdated{Count: 3, Total: 7.5})
	if last.Count != 3 || last.Total != 7.5 {
		t.Fatalf("handler should have run before Publish returned, got %+v", last)
	}
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		bus.Subscribe("s1", func(Event) { order = append(order, i) })
	}
	bus.Publish("s1", OpenAuthModal{})
	for i, v := range order {
		if v != i {
			t.Fatalf("expected subscription order, got %v", order)
		}
	}
}

func TestCancelRemovesSubscription(t *testing.T) {
	bus := NewBus()
	calls := 0
	cancel := bus.Subscribe("s1", func(Event) { calls++ })

	bus.Publish("s1", OpenAuthModal{})
	cancel()
	cancel()
	bus.Publish("s1", OpenAuthModal{})

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if n := bus.Subscribers("s1"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

func TestPublishIgnoresNilBusAndEmptySession(t *testing.T) {
	var bus *Bus
	bus.Publish("s1", OpenAuthModal{})

	b := NewBus()
	called := false
	b.Subscribe("", func(Event) { called = true })
	b.Publish("", OpenAuthModal{})
	if called {
		t.Fatal("empty session id should not be delivered")
	}
}

func TestEnvelopeJSON(t *testing.T) {
	raw, err := json.Marshal(Wrap(CartUpdated{Count: 1, Total: 4.5}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"cart-updated","payload":{"count":1,"total":4.5}}`
	if string(raw) != want {
		t.Fatalf("expected %s, got %s", want, raw)
	}
}
