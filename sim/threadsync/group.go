package threadsync

import (
	"log"

	"github.com/pdbj/sst-core/sim"
)

// A Group holds the state shared by all per-thread coordinators of one
// simulation run: the three barriers of a synchronization round, sized once
// to the thread count, and the registry of engines used to observe the
// global minimum next-activity time. A Group lives as long as the run and
// is passed to every coordinator at setup.
type Group struct {
	numThreads int
	barriers   [3]*Barrier
	engines    []*sim.Engine
}

// NewGroup creates the shared state for a run with the given thread count.
func NewGroup(numThreads int) *Group {
	g := &Group{
		numThreads: numThreads,
		engines:    make([]*sim.Engine, numThreads),
	}

	for i := range g.barriers {
		g.barriers[i] = NewBarrier(numThreads)
	}

	return g
}

// NumThreads returns the number of participating threads.
func (g *Group) NumThreads() int {
	return g.numThreads
}

func (g *Group) register(thread int, e *sim.Engine) {
	if thread < 0 || thread >= g.numThreads {
		log.Panicf("thread %d out of range, group has %d threads",
			thread, g.numThreads)
	}

	if g.engines[thread] != nil {
		log.Panicf("thread %d already has a coordinator", thread)
	}

	g.engines[thread] = e
}

// globalMinimumNextActivityTime is only meaningful between the phase-1 and
// phase-2 barriers, when every thread is stopped at the same instant.
func (g *Group) globalMinimumNextActivityTime() sim.SimTime {
	min := sim.MaxSimTime
	for _, e := range g.engines {
		if e == nil {
			continue
		}

		if t := e.LocalMinimumNextActivityTime(); t < min {
			min = t
		}
	}

	return min
}
