package threadsync

import "github.com/pdbj/sst-core/sim"

// A SyncQueue stages cross-thread events between synchronization rounds. It
// is written by exactly one producer thread during normal execution and
// drained by the coordinator inside the barrier window, so the two accesses
// never overlap in time and no locking is needed.
type SyncQueue struct {
	activities []sim.Activity
}

// NewSyncQueue creates an empty staging queue.
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// Insert appends an activity, preserving the producer's send order.
func (q *SyncQueue) Insert(a sim.Activity) {
	q.activities = append(q.activities, a)
}

// Contents returns the staged activities in insertion order.
func (q *SyncQueue) Contents() []sim.Activity {
	return q.activities
}

// Clear empties the queue.
func (q *SyncQueue) Clear() {
	q.activities = q.activities[:0]
}

// Len returns the number of staged activities.
func (q *SyncQueue) Len() int {
	return len(q.activities)
}
