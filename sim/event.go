package sim

// An Event is an activity that is delivered to a component through a Link.
// The delivery link is stamped onto the event by the sending link and
// resolved to the receiving endpoint before the event is queued.
type Event interface {
	Activity

	DeliveryLink() *Link
	SetDeliveryLink(l *Link)
}

// EventBase provides the basic fields and getters for concrete events.
// Concrete event types embed EventBase and add their payload.
type EventBase struct {
	ActivityBase

	link *Link
}

// MakeEventBase creates an EventBase with the event default priority.
func MakeEventBase() EventBase {
	e := EventBase{}
	e.SetPriority(EventPriority)
	return e
}

// DeliveryLink returns the endpoint the event will be handed to.
func (e *EventBase) DeliveryLink() *Link {
	return e.link
}

// SetDeliveryLink records the endpoint the event will be handed to.
func (e *EventBase) SetDeliveryLink(l *Link) {
	e.link = l
}
