package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusPublishOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(func(e Event) { got = append(got, "first:"+string(e.Kind)) })
	bus.Subscribe(func(e Event) { got = append(got, "second:"+string(e.Kind)) })

	bus.Publish(Event{Kind: SelectionChanged})

	assert.Equal(t, []string{"first:selection_changed", "second:selection_changed"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	rec := &Recorder{}
	unsubscribe := bus.Subscribe(rec.Listen)

	bus.Publish(Event{Kind: DragStarted})
	unsubscribe()
	bus.Publish(Event{Kind: Committed})

	assert.Len(t, rec.Events, 1)
	assert.Equal(t, DragStarted, rec.Last().Kind)
}

func TestBusUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	rec := &Recorder{}
	var unsubscribe func()
	unsubscribe = bus.Subscribe(func(e Event) { unsubscribe() })
	bus.Subscribe(rec.Listen)

	bus.Publish(Event{Kind: Cancelled})
	bus.Publish(Event{Kind: Cancelled})

	assert.Equal(t, 2, rec.Count(Cancelled))
}

func TestNilBusDropsEvents(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Publish(Event{Kind: Committed}) })
}

func TestRecorderLastEmpty(t *testing.T) {
	rec := &Recorder{}
	assert.Equal(t, Event{}, rec.Last())
	assert.Zero(t, rec.Count(Committed))
}
