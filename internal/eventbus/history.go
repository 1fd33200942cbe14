package eventbus

import (
	"container/list"
)

// history keeps the most recent events of one topic. It is guarded by the
// publisher's lock.
type history struct {
	data     *list.List
	capacity int
}

func newHistory(capacity int) *history {
	return &history{
		capacity: capacity,
		data:     list.New(),
	}
}

func (h *history) add(ev Event) {
	if h.capacity <= 0 {
		return
	}
	if h.data.Len() == h.capacity {
		h.data.Remove(h.data.Front())
	}
	h.data.PushBack(ev)
}

func (h *history) len() int {
	return h.data.Len()
}

// values returns the kept events, oldest first.
func (h *history) values() []Event {
	values := make([]Event, 0, h.data.Len())
	for elem := h.data.Front(); elem != nil; elem = elem.Next() {
		values = append(values, elem.Value.(Event))
	}
	return values
}
