package threadsync

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pdbj/sst-core/sim"
)

// A ThreadSync coordinates one thread's participation in the periodic
// cross-thread event exchange.
type ThreadSync interface {
	sim.SyncManager

	RegisterLink(name string, link *sim.Link)
	RegisterRemoteLink(thread int, name string, link *sim.Link) *SyncQueue
	ProcessLinkUntimedData()
	FinalizeLinkConfigurations()
	PrepareForComplete()
	DataSize() uint64
}

// SimpleSkip is the lookahead-skip ThreadSync. Every synchronization round
// it drains the staged cross-thread events onto their destination links
// between the first two barriers, then recomputes the next synchronization
// time from the global minimum next-activity time so that quiet stretches
// of the simulation skip synchronization entirely.
type SimpleSkip struct {
	group  *Group
	thread int
	engine *sim.Engine

	queues  []*SyncQueue
	linkMap map[string]*sim.Link
	links   []*sim.Link

	myMaxPeriod   sim.SimTime
	nextSyncTime  sim.SimTime
	totalWaitTime time.Duration
	singleRank    bool

	profiler *Profiler
}

// NewSimpleSkip creates the coordinator for one thread and registers its
// engine with the shared group. The first synchronization happens one
// inter-thread minimum latency after time zero.
func NewSimpleSkip(group *Group, thread int, engine *sim.Engine) *SimpleSkip {
	s := &SimpleSkip{
		group:   group,
		thread:  thread,
		engine:  engine,
		linkMap: make(map[string]*sim.Link),
	}

	for i := 0; i < group.NumThreads(); i++ {
		s.queues = append(s.queues, NewSyncQueue())
	}

	group.register(thread, engine)

	s.singleRank = engine.NumRanks() == 1
	s.myMaxPeriod = engine.InterThreadMinLatency()
	s.nextSyncTime = s.myMaxPeriod

	return s
}

// UpdateSyncPeriod re-reads the engine's inter-thread minimum latency.
// Called after link wiring has established the real minimum, before the
// run starts.
func (s *SimpleSkip) UpdateSyncPeriod() {
	s.myMaxPeriod = s.engine.InterThreadMinLatency()
	s.nextSyncTime = s.myMaxPeriod
}

// SetProfiler attaches a round profiler to the coordinator.
func (s *SimpleSkip) SetProfiler(p *Profiler) {
	s.profiler = p
}

// NextSyncTime returns the time of the next synchronization round.
func (s *SimpleSkip) NextSyncTime() sim.SimTime {
	return s.nextSyncTime
}

// TotalWaitTime returns the time this thread has spent blocked in barriers.
func (s *SimpleSkip) TotalWaitTime() time.Duration {
	return s.totalWaitTime
}

// RegisterLink registers this thread's half of a cross-thread link. If the
// counterpart has already been registered under the same name, the two are
// paired immediately and the bookkeeping entry is dropped.
func (s *SimpleSkip) RegisterLink(name string, link *sim.Link) {
	if remote, ok := s.linkMap[name]; ok {
		link.SetRemote(remote)
		delete(s.linkMap, name)
	} else {
		s.linkMap[name] = link
	}

	s.links = append(s.links, link)
}

// RegisterRemoteLink registers the counterpart half that lives on the given
// thread. It returns the staging queue that half must use for its sends
// into this thread. Pairing is order-independent with RegisterLink.
func (s *SimpleSkip) RegisterRemoteLink(
	thread int,
	name string,
	link *sim.Link,
) *SyncQueue {
	if local, ok := s.linkMap[name]; ok {
		local.SetRemote(link)
		delete(s.linkMap, name)
	} else {
		s.linkMap[name] = link
	}

	return s.queues[thread]
}

// Execute runs one synchronization round: all threads rendezvous, staged
// events move onto their destination links, all threads rendezvous again,
// the next synchronization time is recomputed, and a final rendezvous
// releases the round.
func (s *SimpleSkip) Execute() {
	wait := s.group.barriers[0].Wait()
	s.before()

	wait += s.group.barriers[1].Wait()
	s.after()

	wait += s.group.barriers[2].Wait()

	s.totalWaitTime += wait
	if s.profiler != nil {
		s.profiler.RecordRound(wait)
	}
}

// before drains every producer's staging queue and sends each event on its
// resolved destination link with the delay left until its delivery time.
// The phase-0 barrier guarantees all producers have stopped writing.
func (s *SimpleSkip) before() {
	current := s.engine.CurrentSimCycle()

	for _, queue := range s.queues {
		for _, a := range queue.Contents() {
			ev := a.(sim.Event)
			delay := ev.DeliveryTime() - current
			ev.DeliveryLink().Deliver(delay, ev)
		}
		queue.Clear()
	}
}

// after recomputes the next synchronization time: never less than one max
// period past the global minimum next-activity time across threads. Every
// thread computes the same value, so the decision to stop synchronizing is
// unanimous.
func (s *SimpleSkip) after() {
	nextmin := s.group.globalMinimumNextActivityTime()

	if nextmin > sim.MaxSimTime-s.myMaxPeriod {
		s.nextSyncTime = sim.MaxSimTime
		return
	}

	s.nextSyncTime = nextmin + s.myMaxPeriod
}

// ProcessLinkUntimedData flushes events staged during the pre-simulation
// setup phase directly to their destination links, outside simulated time.
func (s *SimpleSkip) ProcessLinkUntimedData() {
	for _, queue := range s.queues {
		for _, a := range queue.Contents() {
			ev := a.(sim.Event)
			ev.DeliveryLink().DeliverUntimed(ev)
		}
		queue.Clear()
	}
}

// FinalizeLinkConfigurations closes link setup for this thread. A link name
// that was registered but never matched by its counterpart is a fatal
// configuration error.
func (s *SimpleSkip) FinalizeLinkConfigurations() {
	if len(s.linkMap) > 0 {
		names := make([]string, 0, len(s.linkMap))
		for name := range s.linkMap {
			names = append(names, name)
		}
		log.Panicf("thread %d has unpaired cross-thread links: %v",
			s.thread, names)
	}

	for _, l := range s.links {
		l.FinalizeConfiguration()
	}
}

// PrepareForComplete transitions every registered link into the completion
// phase.
func (s *SimpleSkip) PrepareForComplete() {
	for _, l := range s.links {
		l.PrepareForComplete()
	}
}

// DataSize reports the number of events currently staged for this thread.
func (s *SimpleSkip) DataSize() uint64 {
	var count uint64
	for _, q := range s.queues {
		count += uint64(q.Len())
	}
	return count
}

// Profile summarizes the rounds run so far. Without an attached profiler
// only the total wait time is known.
func (s *SimpleSkip) Profile() RoundProfile {
	if s.profiler != nil {
		return s.profiler.Snapshot()
	}

	return RoundProfile{TotalWaitNs: s.totalWaitTime.Nanoseconds()}
}

// ReportWaitTime prints the accumulated barrier wait time at teardown.
func (s *SimpleSkip) ReportWaitTime() {
	if s.totalWaitTime > 0 {
		fmt.Fprintf(os.Stderr,
			"thread %d sync total wait time: %s\n", s.thread, s.totalWaitTime)
	}
}
