package sim

import "log"

// An EventHandler receives the events delivered on a link endpoint. It is
// the component-side callback of the endpoint.
type EventHandler interface {
	HandleEvent(ev Event)
}

// EventHandlerFunc adapts a plain function to the EventHandler interface.
type EventHandlerFunc func(ev Event)

// HandleEvent calls the wrapped function.
func (f EventHandlerFunc) HandleEvent(ev Event) {
	f(ev)
}

// A Link is one endpoint of a named point-to-point connection between two
// components. Sending on an endpoint stamps the counterpart endpoint onto
// the event as its delivery handle and inserts the event into the endpoint's
// configured queue. For a same-thread pair that queue is the owning engine's
// TimeVortex. For a cross-thread pair it is a staging queue drained by the
// sync coordinator during the barrier window.
type Link struct {
	name    string
	engine  *Engine
	handler EventHandler
	latency SimTime

	remote      *Link
	sendQueue   ActivityQueue
	crossThread bool

	finalized           bool
	preparedForComplete bool
}

// NewLink creates an endpoint owned by a component on the given engine. The
// latency is added to every send on top of the caller-provided delay.
func NewLink(name string, engine *Engine, handler EventHandler, latency SimTime) *Link {
	l := &Link{
		name:    name,
		engine:  engine,
		handler: handler,
		latency: latency,
	}
	l.sendQueue = engine.vortex

	return l
}

// Connect pairs two endpoints that live on the same thread. Cross-thread
// pairs are wired by name through the sync coordinator instead.
func Connect(a, b *Link) {
	a.SetRemote(b)
	b.SetRemote(a)
}

// Name returns the name of the endpoint.
func (l *Link) Name() string {
	return l.name
}

// Engine returns the engine of the thread this endpoint lives on.
func (l *Link) Engine() *Engine {
	return l.engine
}

// Latency returns the base latency added to every send on this endpoint.
func (l *Link) Latency() SimTime {
	return l.latency
}

// Remote returns the counterpart endpoint, or nil before pairing.
func (l *Link) Remote() *Link {
	return l.remote
}

// SetRemote records the counterpart endpoint as this endpoint's delivery
// handle. The pairing is write-once and fixed for the simulation's
// remaining lifetime.
func (l *Link) SetRemote(r *Link) {
	if l.remote != nil {
		log.Panicf("link %s is already paired", l.name)
	}

	l.remote = r
}

// SetConfiguredQueue redirects sends on this endpoint into a staging queue.
// The sync coordinator hands out the queue during cross-thread registration.
func (l *Link) SetConfiguredQueue(q ActivityQueue) {
	l.sendQueue = q
	l.crossThread = true
}

// Send schedules an event for delivery on the counterpart endpoint after
// the given delay plus the link latency.
func (l *Link) Send(delay SimTime, ev Event) {
	if l.remote == nil {
		log.Panicf("sending on unpaired link %s", l.name)
	}

	t := l.engine.CurrentSimCycle() + delay + l.latency
	ev.SetDeliveryTime(t)
	ev.SetDeliveryLink(l.remote)
	l.sendQueue.Insert(ev)
}

// SendUntimed delivers a setup-phase event. Same-thread endpoints deliver
// synchronously. Cross-thread endpoints stage the event for
// ProcessLinkUntimedData to flush.
func (l *Link) SendUntimed(ev Event) {
	if l.remote == nil {
		log.Panicf("sending on unpaired link %s", l.name)
	}

	ev.SetDeliveryLink(l.remote)

	if l.crossThread {
		l.sendQueue.Insert(ev)
		return
	}

	l.remote.DeliverUntimed(ev)
}

// Deliver inserts an event into the owning engine's TimeVortex to fire on
// this endpoint after the given delay. Sync coordinators use it during the
// barrier window to move staged cross-thread events onto their destination
// thread.
func (l *Link) Deliver(delay SimTime, ev Event) {
	ev.SetDeliveryTime(l.engine.CurrentSimCycle() + delay)
	ev.SetDeliveryLink(l)
	l.engine.vortex.Insert(ev)
}

// DeliverUntimed hands an event to the endpoint's handler immediately,
// outside of simulated time.
func (l *Link) DeliverUntimed(ev Event) {
	ev.SetDeliveryLink(l)
	l.deliverEvent(ev)
}

func (l *Link) deliverEvent(ev Event) {
	if l.handler == nil {
		log.Panicf("link %s has no event handler", l.name)
	}

	l.handler.HandleEvent(ev)
}

// FinalizeConfiguration marks the end of link setup.
func (l *Link) FinalizeConfiguration() {
	if l.finalized {
		log.Panicf("link %s finalized twice", l.name)
	}

	l.finalized = true
}

// PrepareForComplete marks the transition into the completion phase.
func (l *Link) PrepareForComplete() {
	if l.preparedForComplete {
		log.Panicf("link %s prepared for complete twice", l.name)
	}

	l.preparedForComplete = true
}
