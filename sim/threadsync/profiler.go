package threadsync

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// A Profiler records the synchronization rounds of one coordinator: how
// many rounds ran and how the per-round barrier wait time is distributed.
// Each coordinator gets its own profiler, so no locking is needed.
type Profiler struct {
	rounds    uint64
	totalWait time.Duration
	waitHist  *hdrhistogram.Histogram
}

// NewProfiler creates a profiler tracking wait times from 1ns to 1min.
func NewProfiler() *Profiler {
	return &Profiler{
		waitHist: hdrhistogram.New(1, time.Minute.Nanoseconds(), 3),
	}
}

// RecordRound records the barrier wait time of one completed round. Waits
// beyond the trackable range are clamped to its upper bound so they still
// show up in the distribution.
func (p *Profiler) RecordRound(wait time.Duration) {
	p.rounds++
	p.totalWait += wait

	ns := wait.Nanoseconds()
	if ns > p.waitHist.HighestTrackableValue() {
		ns = p.waitHist.HighestTrackableValue()
	}

	err := p.waitHist.RecordValue(ns)
	if err != nil {
		log.Panic(err)
	}
}

// Rounds returns the number of completed synchronization rounds.
func (p *Profiler) Rounds() uint64 {
	return p.rounds
}

// TotalWait returns the accumulated barrier wait time.
func (p *Profiler) TotalWait() time.Duration {
	return p.totalWait
}

// A RoundProfile is a snapshot of the recorded distribution.
type RoundProfile struct {
	Rounds      uint64 `json:"rounds"`
	TotalWaitNs int64  `json:"total_wait_ns"`
	MeanWaitNs  int64  `json:"mean_wait_ns"`
	P99WaitNs   int64  `json:"p99_wait_ns"`
	MaxWaitNs   int64  `json:"max_wait_ns"`
}

// Snapshot summarizes the distribution recorded so far.
func (p *Profiler) Snapshot() RoundProfile {
	return RoundProfile{
		Rounds:      p.rounds,
		TotalWaitNs: p.totalWait.Nanoseconds(),
		MeanWaitNs:  int64(p.waitHist.Mean()),
		P99WaitNs:   p.waitHist.ValueAtQuantile(99),
		MaxWaitNs:   p.waitHist.Max(),
	}
}

// Report writes a human-readable summary of the recorded rounds.
func (p *Profiler) Report(w io.Writer) {
	fmt.Fprintf(w, "Sync rounds = %d\n", p.rounds)
	fmt.Fprintf(w, "  Total wait time = %s\n", p.totalWait)
	if p.rounds > 0 {
		fmt.Fprintf(w, "  Average wait time = %s\n",
			time.Duration(int64(p.waitHist.Mean())))
		fmt.Fprintf(w, "  p99 wait time = %s\n",
			time.Duration(p.waitHist.ValueAtQuantile(99)))
		fmt.Fprintf(w, "  Max wait time = %s\n",
			time.Duration(p.waitHist.Max()))
	}
}
