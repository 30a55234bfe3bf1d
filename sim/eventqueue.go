package sim

import (
	"container/heap"
	"sync"
)

// An ActivityQueue accepts time-stamped activities. The engine's TimeVortex
// implements it, and so does the per-thread staging queue used for
// cross-thread sends, which lets a Link be configured with either.
type ActivityQueue interface {
	Insert(a Activity)
}

// A TimeVortex is the time-ordered priority queue of pending activities that
// drives one engine. Activities pop in (time, priority, insertion order)
// order. It is mutex protected so that sync coordinators can insert into
// another thread's vortex during the barrier window.
type TimeVortex struct {
	sync.Mutex

	activities activityHeap
	insertSeq  uint64
}

// NewTimeVortex creates an empty TimeVortex.
func NewTimeVortex() *TimeVortex {
	q := new(TimeVortex)
	q.activities = make(activityHeap, 0)
	heap.Init(&q.activities)
	return q
}

// Insert adds an activity to the queue.
func (q *TimeVortex) Insert(a Activity) {
	q.Lock()
	q.insertSeq++
	heap.Push(&q.activities, orderedActivity{a, q.insertSeq})
	q.Unlock()
}

// Pop removes and returns the next activity to fire.
func (q *TimeVortex) Pop() Activity {
	q.Lock()
	a := heap.Pop(&q.activities).(orderedActivity).Activity
	q.Unlock()
	return a
}

// Len returns the number of pending activities.
func (q *TimeVortex) Len() int {
	q.Lock()
	l := q.activities.Len()
	q.Unlock()
	return l
}

// Peek returns the next activity to fire without removing it.
func (q *TimeVortex) Peek() Activity {
	q.Lock()
	a := q.activities[0].Activity
	q.Unlock()
	return a
}

// FrontTime returns the delivery time of the next activity, or MaxSimTime if
// the queue is empty.
func (q *TimeVortex) FrontTime() SimTime {
	q.Lock()
	defer q.Unlock()

	if q.activities.Len() == 0 {
		return MaxSimTime
	}

	return q.activities[0].DeliveryTime()
}

type orderedActivity struct {
	Activity

	seq uint64
}

type activityHeap []orderedActivity

// Len returns the number of queued activities.
func (h activityHeap) Len() int {
	return len(h)
}

// Less returns true if the i-th activity fires before the j-th activity.
func (h activityHeap) Less(i, j int) bool {
	if h[i].DeliveryTime() != h[j].DeliveryTime() {
		return h[i].DeliveryTime() < h[j].DeliveryTime()
	}

	if h[i].Priority() != h[j].Priority() {
		return h[i].Priority() < h[j].Priority()
	}

	return h[i].seq < h[j].seq
}

// Swap changes the position of two activities in the queue.
func (h activityHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

// Push adds an activity into the queue.
func (h *activityHeap) Push(x interface{}) {
	*h = append(*h, x.(orderedActivity))
}

// Pop removes and returns the last activity in the backing slice.
func (h *activityHeap) Pop() interface{} {
	old := *h
	n := len(old)
	a := old[n-1]
	*h = old[0 : n-1]
	return a
}
