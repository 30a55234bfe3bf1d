package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TimeVortex", func() {
	var vortex *TimeVortex

	BeforeEach(func() {
		vortex = NewTimeVortex()
	})

	It("should pop in time order", func() {
		numActivities := 100
		for i := 0; i < numActivities; i++ {
			a := newFuncAction(ClockPriority, func() {})
			a.SetDeliveryTime(SimTime(rand.Intn(1000000)))
			vortex.Insert(a)
		}

		now := SimTime(0)
		for i := 0; i < numActivities; i++ {
			a := vortex.Pop()
			Expect(a.DeliveryTime() >= now).To(BeTrue())
			now = a.DeliveryTime()
		}
	})

	It("should break time ties by priority", func() {
		low := newFuncAction(EventPriority, func() {})
		low.SetDeliveryTime(10)
		high := newFuncAction(StopActionPriority, func() {})
		high.SetDeliveryTime(10)

		vortex.Insert(low)
		vortex.Insert(high)

		Expect(vortex.Pop().Priority()).To(Equal(StopActionPriority))
		Expect(vortex.Pop().Priority()).To(Equal(EventPriority))
	})

	It("should keep insertion order at equal time and priority", func() {
		actions := make([]*funcAction, 10)
		for i := range actions {
			actions[i] = newFuncAction(ClockPriority, func() {})
			actions[i].SetDeliveryTime(10)
			vortex.Insert(actions[i])
		}

		for i := range actions {
			Expect(vortex.Pop()).To(BeIdenticalTo(actions[i]))
		}
	})

	It("should report MaxSimTime as the front time when empty", func() {
		Expect(vortex.FrontTime()).To(Equal(MaxSimTime))

		a := newFuncAction(ClockPriority, func() {})
		a.SetDeliveryTime(42)
		vortex.Insert(a)

		Expect(vortex.FrontTime()).To(Equal(SimTime(42)))
		Expect(vortex.Len()).To(Equal(1))
		Expect(vortex.Peek()).To(BeIdenticalTo(a))
	})
})
