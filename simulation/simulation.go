package simulation

import (
	"fmt"
	"log"
	"sync"

	"github.com/pdbj/sst-core/datarecording"
	"github.com/pdbj/sst-core/monitoring"
	"github.com/pdbj/sst-core/sim"
	"github.com/pdbj/sst-core/sim/threadsync"
	"github.com/pdbj/sst-core/stats"
)

// A Simulation owns the engines, the thread synchronization coordinators,
// and the output services of one simulation run.
type Simulation struct {
	id       string
	stopTime sim.SimTime

	engines []*sim.Engine
	group   *threadsync.Group
	syncs   []*threadsync.SimpleSkip

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor

	minCrossLatency sim.SimTime
}

// ID returns the unique identifier of the simulation run.
func (s *Simulation) ID() string {
	return s.id
}

// NumThreads returns the number of simulation threads.
func (s *Simulation) NumThreads() int {
	return len(s.engines)
}

// GetEngine returns the engine that runs the given thread.
func (s *Simulation) GetEngine(thread int) *sim.Engine {
	return s.engines[thread]
}

// GetSync returns the synchronization coordinator of the given thread. It
// returns nil for single-threaded simulations.
func (s *Simulation) GetSync(thread int) *threadsync.SimpleSkip {
	if s.syncs == nil {
		return nil
	}

	return s.syncs[thread]
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// ConnectCrossThread pairs two link endpoints that live on different
// threads. Sends on either endpoint are staged in the destination
// coordinator's queues and delivered during synchronization rounds.
func (s *Simulation) ConnectCrossThread(
	name string,
	threadA int, a *sim.Link,
	threadB int, b *sim.Link,
) {
	if s.syncs == nil {
		panic("cross-thread links require a multi-threaded simulation")
	}

	if threadA == threadB {
		panic(fmt.Sprintf(
			"link %s connects thread %d to itself, use sim.Connect instead",
			name, threadA))
	}

	syncA := s.syncs[threadA]
	syncB := s.syncs[threadB]

	syncA.RegisterLink(name, a)
	b.SetConfiguredQueue(syncA.RegisterRemoteLink(threadB, name, b))

	syncB.RegisterLink(name, b)
	a.SetConfiguredQueue(syncB.RegisterRemoteLink(threadA, name, a))

	lat := a.Latency()
	if b.Latency() < lat {
		lat = b.Latency()
	}

	if s.minCrossLatency == 0 || lat < s.minCrossLatency {
		s.minCrossLatency = lat
	}
}

// Run drives all engines to completion, one goroutine per thread. It
// returns after every engine has drained its activities or reached the
// stop time.
func (s *Simulation) Run() {
	s.prepareToRun()

	var wg sync.WaitGroup
	for _, e := range s.engines {
		wg.Add(1)
		go func(e *sim.Engine) {
			defer wg.Done()

			err := e.Run()
			if err != nil {
				log.Panic(err)
			}
		}(e)
	}
	wg.Wait()

	s.complete()
}

func (s *Simulation) prepareToRun() {
	if s.syncs == nil {
		return
	}

	lat := s.minCrossLatency
	if lat == 0 {
		lat = 1
	}

	for _, e := range s.engines {
		e.SetInterThreadMinLatency(lat)
	}

	for _, ts := range s.syncs {
		ts.UpdateSyncPeriod()
		ts.ProcessLinkUntimedData()
		ts.FinalizeLinkConfigurations()
	}
}

func (s *Simulation) complete() {
	for _, ts := range s.syncs {
		ts.PrepareForComplete()
	}

	for _, e := range s.engines {
		e.Finished()
	}

	for _, ts := range s.syncs {
		ts.ReportWaitTime()
	}

	s.recordSyncProfiles()
}

type syncProfileRow struct {
	Thread      int
	Rounds      uint64
	TotalWaitNs int64
	MeanWaitNs  int64
	P99WaitNs   int64
	MaxWaitNs   int64
}

func (s *Simulation) recordSyncProfiles() {
	if s.syncs == nil {
		return
	}

	s.dataRecorder.CreateTable("sync_profile", syncProfileRow{})
	for i, ts := range s.syncs {
		p := ts.Profile()
		s.dataRecorder.InsertData("sync_profile", syncProfileRow{
			Thread:      i,
			Rounds:      p.Rounds,
			TotalWaitNs: p.TotalWaitNs,
			MeanWaitNs:  p.MeanWaitNs,
			P99WaitNs:   p.P99WaitNs,
			MaxWaitNs:   p.MaxWaitNs,
		})
	}
	s.dataRecorder.Flush()
}

// RecordHistogram writes the bins of a histogram statistic into the
// simulation's data recorder, one row per bin.
func RecordHistogram[T stats.Value](s *Simulation, h *stats.Histogram[T]) {
	table := "histogram_" + h.Name()
	s.dataRecorder.CreateTable(table, stats.BinRow{})
	for _, row := range h.Rows() {
		s.dataRecorder.InsertData(table, row)
	}
	s.dataRecorder.Flush()
}

// Terminate terminates the simulation.
func (s *Simulation) Terminate() {
	s.dataRecorder.Close()
}
