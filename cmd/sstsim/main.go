// Command sstsim runs a small multi-threaded demo simulation. Two threads
// exchange ping events over a cross-thread link while a clock on the first
// thread paces the sends.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pdbj/sst-core/sim"
	"github.com/pdbj/sst-core/simulation"
	"github.com/pdbj/sst-core/stats"
)

type options struct {
	numThreads  int
	stopTime    uint64
	clockPeriod uint64
	linkLatency uint64
	logActivity bool
	monitorOff  bool
	monitorPort int
	openBrowser bool
	profiling   bool
	output      string
}

func main() {
	_ = godotenv.Load()

	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "sstsim",
		Short: "Run a multi-threaded ping-pong demo simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	cmd.Flags().IntVar(&opts.numThreads,
		"threads", envInt("SSTSIM_THREADS", 2),
		"number of simulation threads")
	cmd.Flags().Uint64Var(&opts.stopTime,
		"stop-time", 1000000,
		"simulated time at which the run stops")
	cmd.Flags().Uint64Var(&opts.clockPeriod,
		"clock-period", 100,
		"period of the demo clock in core time units")
	cmd.Flags().Uint64Var(&opts.linkLatency,
		"link-latency", 50,
		"latency of the cross-thread link in core time units")
	cmd.Flags().BoolVar(&opts.logActivity,
		"log-activities", false,
		"print every fired activity to stderr")
	cmd.Flags().BoolVar(&opts.monitorOff,
		"no-monitor", false,
		"disable the monitoring server")
	cmd.Flags().IntVar(&opts.monitorPort,
		"monitor-port", envInt("SSTSIM_MONITOR_PORT", 0),
		"port for the monitoring server, 0 picks a free port")
	cmd.Flags().BoolVar(&opts.openBrowser,
		"browser", false,
		"open the monitoring page in a browser")
	cmd.Flags().BoolVar(&opts.profiling,
		"profile-sync", false,
		"record synchronization round profiles")
	cmd.Flags().StringVar(&opts.output,
		"output", "",
		"output database file name")

	return cmd
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		log.Panicf("%s must be an integer, got %q", key, v)
	}

	return n
}

func run(opts *options) error {
	if opts.numThreads < 2 {
		return fmt.Errorf("the demo needs at least 2 threads, got %d",
			opts.numThreads)
	}

	builder := simulation.MakeBuilder().
		WithNumThreads(opts.numThreads).
		WithStopTime(sim.SimTime(opts.stopTime))

	if opts.monitorOff {
		builder = builder.WithoutMonitoring()
	}
	if opts.monitorPort > 0 {
		builder = builder.WithMonitorPort(opts.monitorPort)
	}
	if opts.openBrowser {
		builder = builder.WithBrowser()
	}
	if opts.profiling {
		builder = builder.WithProfiling()
	}
	if opts.output != "" {
		builder = builder.WithOutputFileName(opts.output)
	}

	s := builder.Build()
	defer s.Terminate()

	if opts.logActivity {
		logger := log.New(os.Stderr, "", 0)
		for i := 0; i < s.NumThreads(); i++ {
			s.GetEngine(i).AcceptHook(sim.NewActivityLogger(logger))
		}
	}

	pi := buildPingPongModel(s, opts)

	s.Run()

	simulation.RecordHistogram(s, pi.rtt)

	fmt.Printf("simulation %s finished at %d\n",
		s.ID(), s.GetEngine(0).CurrentSimCycle())

	return nil
}

type pingEvent struct {
	sim.EventBase

	seq int
}

func newPingEvent(seq int) *pingEvent {
	return &pingEvent{EventBase: sim.MakeEventBase(), seq: seq}
}

// A pinger sends a ping on every clock tick and counts the pongs that
// come back. It lives on thread 0.
type pinger struct {
	link *sim.Link

	sent     int
	received int
	rtt      *stats.Histogram[sim.SimTime]
	inFlight map[int]sim.SimTime
}

func (p *pinger) Tick(cycle sim.Cycle) bool {
	ev := newPingEvent(p.sent)
	p.inFlight[p.sent] = p.link.Engine().CurrentSimCycle()
	p.sent++
	p.link.Send(0, ev)
	return false
}

func (p *pinger) HandleEvent(ev sim.Event) {
	pong := ev.(*pingEvent)

	sentAt := p.inFlight[pong.seq]
	delete(p.inFlight, pong.seq)
	p.rtt.Add(p.link.Engine().CurrentSimCycle() - sentAt)

	p.received++
}

// A ponger bounces every ping straight back. It lives on thread 1.
type ponger struct {
	link *sim.Link
}

func (p *ponger) HandleEvent(ev sim.Event) {
	p.link.Send(0, ev)
}

func buildPingPongModel(
	s *simulation.Simulation,
	opts *options,
) *pinger {
	engineA := s.GetEngine(0)
	engineB := s.GetEngine(1)

	pi := &pinger{
		inFlight: make(map[int]sim.SimTime),
		rtt: stats.NewHistogram[sim.SimTime](
			"ping_rtt", 0, sim.SimTime(opts.linkLatency), 64, true),
	}
	po := &ponger{}

	pi.link = sim.NewLink("PingPong.A", engineA, pi,
		sim.SimTime(opts.linkLatency))
	po.link = sim.NewLink("PingPong.B", engineB, po,
		sim.SimTime(opts.linkLatency))

	s.ConnectCrossThread("PingPong", 0, pi.link, 1, po.link)

	period := sim.NewTimeConverter(sim.SimTime(opts.clockPeriod))
	engineA.RegisterClock(period, sim.ClockPriority, pi)

	engineA.RegisterSimulationEndHandler(sim.SimulationEndHandlerFunc(
		func(now sim.SimTime) {
			fmt.Printf("pings sent %d, pongs received %d at %d\n",
				pi.sent, pi.received, now)
		}))

	return pi
}
