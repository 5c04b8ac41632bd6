package sim

import "container/heap"

// eventHeap implements heap.Interface and orders events by (time, seq).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	// Equal times: insertion order (FIFO), deterministic across runs.
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

// EventQueue is a time-ordered priority queue of pending events.
// Each device owns one as its private stream; the multi-device engine owns
// another as its merge queue.
type EventQueue struct {
	events eventHeap
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{events: make(eventHeap, 0)}
}

// Push adds an event.
func (q *EventQueue) Push(e *Event) {
	heap.Push(&q.events, e)
}

// Pop removes and returns the earliest event, or nil when empty.
func (q *EventQueue) Pop() *Event {
	if len(q.events) == 0 {
		return nil
	}
	return heap.Pop(&q.events).(*Event)
}

// Peek returns the earliest event without removing it, or nil when empty.
func (q *EventQueue) Peek() *Event {
	if len(q.events) == 0 {
		return nil
	}
	return q.events[0]
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	return len(q.events)
}

// Clear discards every pending event.
func (q *EventQueue) Clear() {
	for i := range q.events {
		q.events[i] = nil
	}
	q.events = q.events[:0]
}
