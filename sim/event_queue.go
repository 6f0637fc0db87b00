package sim

import (
	"container/heap"
	"fmt"
)

// eventHeap implements heap.Interface with deterministic ordering:
// timestamp ascending, then insertion sequence ascending. Two events
// scheduled for the same tick therefore run in FIFO order.
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Timestamp() != h[j].Timestamp() {
		return h[i].Timestamp() < h[j].Timestamp()
	}
	return h[i].EventID() < h[j].EventID()
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// EventQueue is the single source of simulated time: a priority queue of
// scheduled events plus the logical clock. Time is advanced only by
// NextEvent; there is no wall-clock coupling.
type EventQueue struct {
	events eventHeap
	now    int64
	nextID uint64
}

// NewEventQueue creates an empty queue with the clock at tick 0.
func NewEventQueue() *EventQueue {
	q := &EventQueue{events: make(eventHeap, 0)}
	heap.Init(&q.events)
	return q
}

// Now returns the current simulated time in ticks.
func (q *EventQueue) Now() int64 { return q.now }

// Len returns the number of pending events.
func (q *EventQueue) Len() int { return len(q.events) }

// Schedule inserts an event, assigning its insertion sequence number.
// Scheduling an event before the current simulated time is a programming
// error and returns ErrInvalidSchedule.
func (q *EventQueue) Schedule(ev Event) error {
	if ev.Timestamp() < q.now {
		return fmt.Errorf("%w: at=%d now=%d", ErrInvalidSchedule, ev.Timestamp(), q.now)
	}
	q.nextID++
	ev.(sequenced).setEventID(q.nextID)
	heap.Push(&q.events, ev)
	return nil
}

// NextEvent pops the earliest event and advances the clock to its timestamp.
// It returns false when the queue is exhausted. A popped timestamp behind
// the clock means the queue is corrupt, which is fatal.
func (q *EventQueue) NextEvent() (Event, bool) {
	if len(q.events) == 0 {
		return nil, false
	}
	ev := heap.Pop(&q.events).(Event)
	if ev.Timestamp() < q.now {
		panic(fmt.Sprintf("event queue corrupt: clock went backwards %d < %d", ev.Timestamp(), q.now))
	}
	q.now = ev.Timestamp()
	return ev, true
}

// Peek returns the next event without removing it, or nil when empty.
func (q *EventQueue) Peek() Event {
	if len(q.events) == 0 {
		return nil
	}
	return q.events[0]
}
