package sim

import "math"

// SimTime is a point in simulated time, counted in core ticks.
type SimTime uint64

// Cycle is the number of times a Clock has fired since time zero.
type Cycle uint64

// MaxSimTime is the largest representable simulated time. It doubles as the
// "no more activities" sentinel when computing minimum next-activity times.
const MaxSimTime = SimTime(math.MaxUint64)

// Priorities order same-timestamp activities in the queue. A numerically
// lower priority fires first.
const (
	StopActionPriority = 1
	ThreadSyncPriority = 20
	SyncPriority       = 25
	ClockPriority      = 40
	EventPriority      = 50
)

// A Rank identifies a simulation partition and the worker thread within it.
type Rank struct {
	Rank   int
	Thread int
}
