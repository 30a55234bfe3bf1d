package sim

import (
	"fmt"
	"log"
)

// A ClockHandler is a per-cycle callback registered with a Clock. Tick is
// invoked once per clock cycle with the current cycle number. Returning true
// removes the handler from the clock.
//
// A registered handler is owned by the Clock. Registering the same handler
// with two clocks is not supported.
type ClockHandler interface {
	Tick(cycle Cycle) (done bool)
}

// A FuncHandler adapts a plain function to the ClockHandler interface.
// Register the pointer returned by NewFuncHandler so that the handler can be
// unregistered by identity later.
type FuncHandler struct {
	F func(cycle Cycle) bool
}

// NewFuncHandler wraps a function as a registrable clock handler.
func NewFuncHandler(f func(cycle Cycle) bool) *FuncHandler {
	return &FuncHandler{F: f}
}

// Tick calls the wrapped function.
func (h *FuncHandler) Tick(cycle Cycle) bool {
	return h.F(cycle)
}

// A Clock is a self-re-scheduling periodic activity. It holds the handlers
// registered for one (period, priority) combination and invokes each of them
// once per cycle, in registration order. A clock with no handlers left stops
// re-scheduling itself until the next registration.
type Clock struct {
	ActivityBase

	engine       *Engine
	period       *TimeConverter
	handlers     []ClockHandler
	currentCycle Cycle
	scheduled    bool
}

// NewClock creates a clock with the given period and queue priority. Clocks
// are normally obtained through Engine.RegisterClock, which deduplicates
// them per (period, priority).
func NewClock(engine *Engine, period *TimeConverter, priority int) *Clock {
	c := &Clock{
		engine: engine,
		period: period,
	}
	c.SetPriority(priority)

	return c
}

// RegisterHandler appends a handler to the active set and schedules the
// clock if it is not already in the queue. It reports whether the handler
// set was empty before the call.
func (c *Clock) RegisterHandler(handler ClockHandler) bool {
	wasEmpty := len(c.handlers) == 0

	c.handlers = append(c.handlers, handler)
	if !c.scheduled {
		c.schedule()
	}

	return wasEmpty
}

// UnregisterHandler removes the first handler that matches by identity and
// reports whether the handler set is now empty.
func (c *Clock) UnregisterHandler(handler ClockHandler) (empty bool) {
	for i, h := range c.handlers {
		if h == handler {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			break
		}
	}

	return len(c.handlers) == 0
}

// NumHandlers returns the number of currently registered handlers.
func (c *Clock) NumHandlers() int {
	return len(c.handlers)
}

// CurrentCycle returns the number of cycles fired so far.
func (c *Clock) CurrentCycle() Cycle {
	return c.currentCycle
}

// NextCycle returns the cycle number the next firing will carry.
func (c *Clock) NextCycle() Cycle {
	return c.currentCycle + 1
}

// Execute fires the clock. It invokes every still-registered handler once
// with the new cycle number, removes the handlers that report done, and
// reinserts the clock one period ahead. With no handlers left, the clock
// deactivates instead of re-scheduling.
func (c *Clock) Execute() {
	if len(c.handlers) == 0 {
		c.scheduled = false
		return
	}

	c.currentCycle++

	kept := c.handlers[:0]
	for _, h := range c.handlers {
		if !h.Tick(c.currentCycle) {
			kept = append(kept, h)
		}
	}
	c.handlers = kept

	next := c.engine.CurrentSimCycle() + c.period.Factor()
	c.engine.InsertActivity(next, c)
}

// schedule inserts the clock at its next valid tick. If the clock would
// have been eligible to fire at the present instant under priority ordering
// and the current time falls exactly on a period boundary, it fires
// immediately instead of one period later. Time zero always defers one full
// period.
func (c *Clock) schedule() {
	now := c.engine.CurrentSimCycle()
	factor := c.period.Factor()

	c.currentCycle = Cycle(now / factor)
	next := (now/factor)*factor + factor

	if c.engine.CurrentPriority() < c.Priority() && now != 0 {
		if now%factor == 0 {
			next = now
		}
	}

	c.engine.InsertActivity(next, c)
	c.scheduled = true
}

// String describes the clock for diagnostics.
func (c *Clock) String() string {
	return fmt.Sprintf(
		"Clock with period %d to be delivered at %d with priority %d with %d handlers",
		c.period.Factor(), c.DeliveryTime(), c.Priority(), len(c.handlers))
}

type clockKey struct {
	factor   SimTime
	priority int
}

func (e *Engine) clockFor(period *TimeConverter, priority int) *Clock {
	key := clockKey{factor: period.Factor(), priority: priority}

	if c, ok := e.clocks[key]; ok {
		return c
	}

	c := NewClock(e, period, priority)
	e.clocks[key] = c

	return c
}

// RegisterClock registers a per-cycle handler with the clock for the given
// period and priority, creating the clock on first use. It returns the
// converter the caller can use to translate the clock's cycles to core time.
func (e *Engine) RegisterClock(
	period *TimeConverter,
	priority int,
	handler ClockHandler,
) *TimeConverter {
	c := e.clockFor(period, priority)
	c.RegisterHandler(handler)

	return period
}

// UnregisterClock removes a handler from the clock for the given period and
// priority. It reports whether the clock still has handlers.
func (e *Engine) UnregisterClock(
	period *TimeConverter,
	priority int,
	handler ClockHandler,
) (active bool) {
	key := clockKey{factor: period.Factor(), priority: priority}

	c, ok := e.clocks[key]
	if !ok {
		log.Panicf("no clock registered with period %d priority %d",
			period.Factor(), priority)
	}

	empty := c.UnregisterHandler(handler)

	return !empty
}
