package simulation

import (
	"fmt"

	"github.com/rs/xid"

	"github.com/pdbj/sst-core/datarecording"
	"github.com/pdbj/sst-core/monitoring"
	"github.com/pdbj/sst-core/sim"
	"github.com/pdbj/sst-core/sim/threadsync"
)

// Builder can be used to build a simulation.
type Builder struct {
	numThreads     int
	stopTime       sim.SimTime
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	profilingOn    bool
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		numThreads: 1,
		stopTime:   sim.MaxSimTime,
		monitorOn:  true,
	}
}

// WithNumThreads sets the number of simulation threads. Each thread runs
// its own engine.
func (b Builder) WithNumThreads(n int) Builder {
	b.numThreads = n
	return b
}

// WithStopTime sets the time at which the simulation stops, even if
// activities remain scheduled beyond it.
func (b Builder) WithStopTime(t sim.SimTime) Builder {
	b.stopTime = t
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitoring page in a browser when the server
// starts.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithProfiling attaches a synchronization profiler to every thread
// coordinator.
func (b Builder) WithProfiling() Builder {
	b.profilingOn = true
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.numThreads < 1 {
		panic("simulation must have at least one thread")
	}

	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		stopTime: b.stopTime,
	}

	s.id = xid.New().String()

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "sst_sim_" + s.id
	}
	s.dataRecorder = datarecording.New(outputPath)

	for i := 0; i < b.numThreads; i++ {
		e := sim.NewEngine(fmt.Sprintf("Thread[%d]", i))
		e.SetStopTime(b.stopTime)
		s.engines = append(s.engines, e)
	}

	if b.numThreads > 1 {
		s.group = threadsync.NewGroup(b.numThreads)
		for i, e := range s.engines {
			ts := threadsync.NewSimpleSkip(s.group, i, e)
			if b.profilingOn {
				ts.SetProfiler(threadsync.NewProfiler())
			}
			e.SetSyncManager(ts)
			s.syncs = append(s.syncs, ts)
		}
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		if b.openBrowser {
			s.monitor.WithBrowser()
		}

		for _, e := range s.engines {
			s.monitor.RegisterEngine(e)
		}

		for _, ts := range s.syncs {
			s.monitor.RegisterSync(ts)
		}

		s.monitor.StartServer()
	}

	return s
}
