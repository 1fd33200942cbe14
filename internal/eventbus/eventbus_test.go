package eventbus

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func subscribe(bus Bus, topic string) chan Event {
	ch, _ := bus.Subscribe(topic)
	return ch
}

func TestBus_Broadcast(t *testing.T) {
	bus := New()
	first := subscribe(bus, "backups")
	second := subscribe(bus, "backups")
	other := subscribe(bus, "restores")

	bus.BroadcastWithData("backups", Success, "backup completed", map[string]bool{"database_ok": true})

	for _, ch := range []chan Event{first, second} {
		ev := <-ch
		assert.Equal(t, Success, ev.Type)
		assert.Equal(t, "backup completed", ev.Message)
		assert.NotEmpty(t, ev.ID)

		var data map[string]bool
		require.NoError(t, json.Unmarshal(ev.Data, &data))
		assert.True(t, data["database_ok"])
	}
	assert.Len(t, other, 0)
}

func TestBus_BroadcastDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := New()
	ch := subscribe(bus, "backups")

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Broadcast("backups", Info, "tick")
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestBus_Unregister(t *testing.T) {
	bus := New()
	ch := subscribe(bus, "backups")
	bus.Unregister("backups", ch)

	_, open := <-ch
	assert.False(t, open)

	bus.Broadcast("backups", Info, "nobody listening")
	bus.Unregister("backups", ch)
}

func TestBus_SubscribeReplaysRecentEvents(t *testing.T) {
	bus := New()
	for i := 0; i < historySize+5; i++ {
		bus.Broadcast("backups", Info, "tick")
	}
	bus.Broadcast("backups", Success, "backup completed")

	ch, recent := bus.Subscribe("backups")
	require.Len(t, recent, historySize)
	assert.Equal(t, "backup completed", recent[len(recent)-1].Message)
	assert.Len(t, ch, 0)

	bus.Broadcast("backups", Info, "live")
	ev := <-ch
	assert.Equal(t, "live", ev.Message)

	_, none := bus.Subscribe("restores")
	assert.Empty(t, none)
}

func TestHistory_Evicts(t *testing.T) {
	h := newHistory(3)
	for _, msg := range []string{"1", "2", "3", "4", "5"} {
		h.add(Event{Message: msg})
	}
	assert.Equal(t, 3, h.len())

	var got []string
	for _, ev := range h.values() {
		got = append(got, ev.Message)
	}
	assert.Equal(t, []string{"3", "4", "5"}, got)

	empty := newHistory(0)
	empty.add(Event{Message: "dropped"})
	assert.Equal(t, 0, empty.len())
}
