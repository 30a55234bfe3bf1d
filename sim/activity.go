package sim

// An Activity is any time-stamped unit that can be scheduled into an
// ActivityQueue. Clocks and events are both activities.
type Activity interface {
	DeliveryTime() SimTime
	SetDeliveryTime(t SimTime)
	Priority() int
}

// An Action is an activity that executes itself when its delivery time
// arrives. Clocks are actions; events are delivered through links instead.
type Action interface {
	Activity
	Execute()
}

// ActivityBase provides the delivery time and priority fields for concrete
// activities.
type ActivityBase struct {
	deliveryTime SimTime
	priority     int
}

// DeliveryTime returns the time at which the activity should fire.
func (a *ActivityBase) DeliveryTime() SimTime {
	return a.deliveryTime
}

// SetDeliveryTime sets the time at which the activity should fire.
func (a *ActivityBase) SetDeliveryTime(t SimTime) {
	a.deliveryTime = t
}

// Priority returns the tie-break priority at equal timestamps.
func (a *ActivityBase) Priority() int {
	return a.priority
}

// SetPriority sets the tie-break priority at equal timestamps.
func (a *ActivityBase) SetPriority(p int) {
	a.priority = p
}
