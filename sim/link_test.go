package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type payloadEvent struct {
	EventBase

	payload int
}

func newPayloadEvent(payload int) *payloadEvent {
	return &payloadEvent{EventBase: MakeEventBase(), payload: payload}
}

var _ = Describe("Link", func() {
	var (
		engine           *Engine
		left, right      *Link
		received         []int
		receivedAt       []SimTime
		rightHandlerFunc EventHandlerFunc
	)

	BeforeEach(func() {
		engine = NewEngine("Engine")
		received = nil
		receivedAt = nil

		rightHandlerFunc = func(ev Event) {
			received = append(received, ev.(*payloadEvent).payload)
			receivedAt = append(receivedAt, engine.CurrentSimCycle())
		}

		left = NewLink("Comp.Left", engine, nil, 50)
		right = NewLink("Comp.Right", engine, rightHandlerFunc, 50)
		Connect(left, right)
	})

	It("should pair both endpoints", func() {
		Expect(left.Remote()).To(BeIdenticalTo(right))
		Expect(right.Remote()).To(BeIdenticalTo(left))
	})

	It("should refuse to pair twice", func() {
		other := NewLink("Comp.Other", engine, nil, 1)

		Expect(func() { left.SetRemote(other) }).To(Panic())
	})

	It("should deliver after the delay plus the link latency", func() {
		engine.InsertActivity(10, newFuncAction(ClockPriority, func() {
			left.Send(5, newPayloadEvent(7))
		}))

		engine.Run()

		Expect(received).To(Equal([]int{7}))
		Expect(receivedAt).To(Equal([]SimTime{65}))
	})

	It("should refuse to send on an unpaired endpoint", func() {
		unpaired := NewLink("Comp.Unpaired", engine, nil, 1)

		Expect(func() {
			unpaired.Send(0, newPayloadEvent(0))
		}).To(Panic())
	})

	It("should deliver untimed events synchronously", func() {
		left.SendUntimed(newPayloadEvent(3))

		Expect(received).To(Equal([]int{3}))
		Expect(engine.CurrentSimCycle()).To(Equal(SimTime(0)))
	})

	It("should stamp the receiving endpoint onto the event", func() {
		var link *Link
		rightOnly := NewLink("Comp.Stamp", engine,
			EventHandlerFunc(func(ev Event) {
				link = ev.DeliveryLink()
			}), 1)
		leftOnly := NewLink("Comp.StampSender", engine, nil, 1)
		Connect(leftOnly, rightOnly)

		leftOnly.SendUntimed(newPayloadEvent(0))

		Expect(link).To(BeIdenticalTo(rightOnly))
	})

	It("should finalize configuration exactly once", func() {
		left.FinalizeConfiguration()

		Expect(func() { left.FinalizeConfiguration() }).To(Panic())
	})

	It("should prepare for completion exactly once", func() {
		left.PrepareForComplete()

		Expect(func() { left.PrepareForComplete() }).To(Panic())
	})
})
