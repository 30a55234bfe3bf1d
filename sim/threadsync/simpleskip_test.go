package threadsync

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pdbj/sst-core/sim"
)

type testEvent struct {
	sim.EventBase

	payload int
}

func newTestEvent(payload int) *testEvent {
	return &testEvent{EventBase: sim.MakeEventBase(), payload: payload}
}

type sendAction struct {
	sim.ActivityBase

	f func()
}

func newSendAction(f func()) *sendAction {
	a := &sendAction{f: f}
	a.SetPriority(sim.ClockPriority)
	return a
}

func (a *sendAction) Execute() {
	a.f()
}

type recorder struct {
	engine *sim.Engine

	payloads []int
	times    []sim.SimTime
}

func (r *recorder) HandleEvent(ev sim.Event) {
	r.payloads = append(r.payloads, ev.(*testEvent).payload)
	r.times = append(r.times, r.engine.CurrentSimCycle())
}

// wire performs the four-call cross-thread registration for one link pair.
func wire(
	syncA, syncB *SimpleSkip,
	threadA, threadB int,
	name string,
	a, b *sim.Link,
) {
	syncA.RegisterLink(name, a)
	b.SetConfiguredQueue(syncA.RegisterRemoteLink(threadB, name, b))

	syncB.RegisterLink(name, b)
	a.SetConfiguredQueue(syncB.RegisterRemoteLink(threadA, name, a))
}

var _ = Describe("SyncQueue", func() {
	It("should stage activities in insertion order", func() {
		q := NewSyncQueue()

		first := newTestEvent(1)
		second := newTestEvent(2)
		q.Insert(first)
		q.Insert(second)

		Expect(q.Len()).To(Equal(2))
		Expect(q.Contents()[0]).To(BeIdenticalTo(first))
		Expect(q.Contents()[1]).To(BeIdenticalTo(second))

		q.Clear()
		Expect(q.Len()).To(Equal(0))
	})
})

var _ = Describe("SimpleSkip", func() {
	var (
		engineA, engineB *sim.Engine
		group            *Group
		syncA, syncB     *SimpleSkip
	)

	BeforeEach(func() {
		engineA = sim.NewEngine("Thread[0]")
		engineB = sim.NewEngine("Thread[1]")
		engineA.SetInterThreadMinLatency(10)
		engineB.SetInterThreadMinLatency(10)

		group = NewGroup(2)
		syncA = NewSimpleSkip(group, 0, engineA)
		syncB = NewSimpleSkip(group, 1, engineB)
		engineA.SetSyncManager(syncA)
		engineB.SetSyncManager(syncB)
	})

	It("should start one sync period after time zero", func() {
		Expect(syncA.NextSyncTime()).To(Equal(sim.SimTime(10)))
	})

	It("should pair links registered in either order", func() {
		a := sim.NewLink("L.A", engineA, nil, 10)
		b := sim.NewLink("L.B", engineB, nil, 10)

		syncA.RegisterLink("L", a)
		syncA.RegisterRemoteLink(1, "L", b)

		Expect(a.Remote()).To(BeIdenticalTo(b))

		c := sim.NewLink("M.A", engineA, nil, 10)
		d := sim.NewLink("M.B", engineB, nil, 10)

		syncA.RegisterRemoteLink(1, "M", d)
		syncA.RegisterLink("M", c)

		Expect(c.Remote()).To(BeIdenticalTo(d))
	})

	It("should keep an established pairing when the name is reused", func() {
		a := sim.NewLink("L.A", engineA, nil, 10)
		b := sim.NewLink("L.B", engineB, nil, 10)

		syncA.RegisterLink("L", a)
		syncA.RegisterRemoteLink(1, "L", b)

		c := sim.NewLink("L.A2", engineA, nil, 10)
		syncA.RegisterLink("L", c)

		Expect(a.Remote()).To(BeIdenticalTo(b))
		Expect(c.Remote()).To(BeNil())

		// The reused name opens fresh bookkeeping, so c is unpaired until
		// a counterpart arrives.
		Expect(func() { syncA.FinalizeLinkConfigurations() }).To(Panic())

		d := sim.NewLink("L.B2", engineB, nil, 10)
		syncA.RegisterRemoteLink(1, "L", d)

		Expect(c.Remote()).To(BeIdenticalTo(d))
		Expect(a.Remote()).To(BeIdenticalTo(b))
	})

	It("should hand out the producer's staging queue", func() {
		a := sim.NewLink("L.A", engineA, nil, 10)
		b := sim.NewLink("L.B", engineB, nil, 10)

		q := syncA.RegisterRemoteLink(1, "L", b)
		syncA.RegisterLink("L", a)

		Expect(q).To(BeIdenticalTo(syncA.queues[1]))
	})

	It("should panic on unpaired links at finalization", func() {
		a := sim.NewLink("L.A", engineA, nil, 10)
		syncA.RegisterLink("L", a)

		Expect(func() { syncA.FinalizeLinkConfigurations() }).To(Panic())
	})

	It("should skip to one period past the global minimum", func() {
		engineA.InsertActivity(100,
			newSendAction(func() {}))
		engineB.InsertActivity(200,
			newSendAction(func() {}))

		syncA.after()

		Expect(syncA.NextSyncTime()).To(Equal(sim.SimTime(110)))
	})

	It("should stop syncing when no activities remain", func() {
		syncA.after()

		Expect(syncA.NextSyncTime()).To(Equal(sim.MaxSimTime))
	})

	It("should count staged events", func() {
		rec := &recorder{engine: engineB}
		a := sim.NewLink("L.A", engineA, nil, 10)
		b := sim.NewLink("L.B", engineB, rec, 10)
		wire(syncA, syncB, 0, 1, "L", a, b)

		a.Send(0, newTestEvent(1))
		a.Send(0, newTestEvent(2))

		Expect(syncB.DataSize()).To(Equal(uint64(2)))
		Expect(syncA.DataSize()).To(Equal(uint64(0)))
	})

	It("should flush untimed data to the receiving handler", func() {
		rec := &recorder{engine: engineB}
		a := sim.NewLink("L.A", engineA, nil, 10)
		b := sim.NewLink("L.B", engineB, rec, 10)
		wire(syncA, syncB, 0, 1, "L", a, b)

		a.SendUntimed(newTestEvent(9))

		Expect(rec.payloads).To(BeEmpty())

		syncB.ProcessLinkUntimedData()

		Expect(rec.payloads).To(Equal([]int{9}))
		Expect(syncB.DataSize()).To(Equal(uint64(0)))
	})

	It("should deliver cross-thread events at their send time plus latency",
		func() {
			rec := &recorder{engine: engineB}
			a := sim.NewLink("L.A", engineA, nil, 10)
			b := sim.NewLink("L.B", engineB, rec, 10)
			wire(syncA, syncB, 0, 1, "L", a, b)

			engineA.InsertActivity(5, newSendAction(func() {
				a.Send(0, newTestEvent(42))
			}))

			var wg sync.WaitGroup
			for _, e := range []*sim.Engine{engineA, engineB} {
				wg.Add(1)
				go func(e *sim.Engine) {
					defer wg.Done()
					defer GinkgoRecover()

					Expect(e.Run()).To(Succeed())
				}(e)
			}
			wg.Wait()

			Expect(rec.payloads).To(Equal([]int{42}))
			Expect(rec.times).To(Equal([]sim.SimTime{15}))
			Expect(syncA.NextSyncTime()).To(Equal(sim.MaxSimTime))
			Expect(syncB.NextSyncTime()).To(Equal(sim.MaxSimTime))
		})

	It("should exchange events in both directions over many rounds", func() {
		recA := &recorder{engine: engineA}
		recB := &recorder{engine: engineB}
		a := sim.NewLink("PingPong.A", engineA, recA, 10)
		b := sim.NewLink("PingPong.B", engineB, recB, 10)
		wire(syncA, syncB, 0, 1, "PingPong", a, b)

		engineA.SetStopTime(1000)
		engineB.SetStopTime(1000)

		var count int
		engineA.RegisterClock(sim.NewTimeConverter(100), sim.ClockPriority,
			sim.NewFuncHandler(func(cycle sim.Cycle) bool {
				count++
				a.Send(0, newTestEvent(int(cycle)))
				return false
			}))

		var wg sync.WaitGroup
		for _, e := range []*sim.Engine{engineA, engineB} {
			wg.Add(1)
			go func(e *sim.Engine) {
				defer wg.Done()
				defer GinkgoRecover()

				Expect(e.Run()).To(Succeed())
			}(e)
		}
		wg.Wait()

		Expect(recB.payloads).To(HaveLen(count - 1))
		for i, t := range recB.times {
			Expect(t).To(Equal(sim.SimTime((i+1)*100 + 10)))
		}
	})

	It("should accumulate barrier wait time", func() {
		engineA.InsertActivity(5, newSendAction(func() {}))

		var wg sync.WaitGroup
		for _, e := range []*sim.Engine{engineA, engineB} {
			wg.Add(1)
			go func(e *sim.Engine) {
				defer wg.Done()
				defer GinkgoRecover()

				Expect(e.Run()).To(Succeed())
			}(e)
		}
		wg.Wait()

		Expect(syncA.TotalWaitTime() + syncB.TotalWaitTime()).
			To(BeNumerically(">", 0))
	})
})

var _ = Describe("Profiler", func() {
	It("should summarize recorded rounds", func() {
		p := NewProfiler()

		p.RecordRound(1000)
		p.RecordRound(3000)

		snap := p.Snapshot()
		Expect(snap.Rounds).To(Equal(uint64(2)))
		Expect(snap.TotalWaitNs).To(Equal(int64(4000)))
		Expect(snap.MaxWaitNs).To(BeNumerically(">=", snap.MeanWaitNs))
	})

	It("should keep extreme waits in the distribution", func() {
		p := NewProfiler()

		p.RecordRound(2 * time.Minute)

		snap := p.Snapshot()
		Expect(snap.Rounds).To(Equal(uint64(1)))
		Expect(snap.TotalWaitNs).To(Equal((2 * time.Minute).Nanoseconds()))
		Expect(snap.MaxWaitNs).To(
			BeNumerically(">=", (59 * time.Second).Nanoseconds()))
	})
})
