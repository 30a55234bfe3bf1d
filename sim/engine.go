package sim

import (
	"log"
	"reflect"
	"sync"
)

// A TimeTeller can be used to get the current simulated time.
type TimeTeller interface {
	CurrentSimCycle() SimTime
}

// A SyncManager coordinates one engine's participation in the periodic
// cross-thread event exchange. The engine hands control to it whenever the
// simulation reaches the next synchronization time.
type SyncManager interface {
	NextSyncTime() SimTime
	Execute()
}

// A SimulationEndHandler is called after the simulation ends.
type SimulationEndHandler interface {
	Handle(now SimTime)
}

// SimulationEndHandlerFunc adapts a plain function into a
// SimulationEndHandler.
type SimulationEndHandlerFunc func(now SimTime)

// Handle calls the wrapped function.
func (f SimulationEndHandlerFunc) Handle(now SimTime) {
	f(now)
}

// An Engine drives the event processing loop of one rank-thread. It owns
// the thread's TimeVortex and the clocks registered on the thread, tracks
// the current cycle and the priority of the activity being fired, and defers
// to its SyncManager at synchronization boundaries.
type Engine struct {
	HookableBase

	name   string
	vortex *TimeVortex
	clocks map[clockKey]*Clock

	timeLock        sync.RWMutex
	currentCycle    SimTime
	currentPriority int

	stopTime    SimTime
	syncManager SyncManager

	rank                  Rank
	numRanks              int
	interThreadMinLatency SimTime

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

// NewEngine creates an engine for a single-rank, single-thread simulation.
// Multi-thread setups adjust the rank and latency through the setters before
// the simulation starts.
func NewEngine(name string) *Engine {
	e := &Engine{
		name:                  name,
		vortex:                NewTimeVortex(),
		clocks:                make(map[clockKey]*Clock),
		stopTime:              MaxSimTime,
		numRanks:              1,
		interThreadMinLatency: 1,
	}

	return e
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// SetRank records which partition and thread this engine drives.
func (e *Engine) SetRank(rank Rank, numRanks int) {
	e.rank = rank
	e.numRanks = numRanks
}

// Rank returns the partition and thread this engine drives.
func (e *Engine) Rank() Rank {
	return e.rank
}

// NumRanks returns the number of partitions in the simulation.
func (e *Engine) NumRanks() int {
	return e.numRanks
}

// SetStopTime bounds the simulation. Activities scheduled after the stop
// time are discarded instead of fired.
func (e *Engine) SetStopTime(t SimTime) {
	e.stopTime = t
}

// SetInterThreadMinLatency records the smallest latency of any link that
// crosses out of this thread. It lower-bounds the synchronization interval.
func (e *Engine) SetInterThreadMinLatency(t SimTime) {
	e.interThreadMinLatency = t
}

// InterThreadMinLatency returns the smallest cross-thread link latency.
func (e *Engine) InterThreadMinLatency() SimTime {
	return e.interThreadMinLatency
}

// SetSyncManager installs the coordinator the engine yields to at each
// synchronization time. It must be set before Run and never changed after.
func (e *Engine) SetSyncManager(sm SyncManager) {
	e.syncManager = sm
}

// CurrentSimCycle returns the current simulated time in core ticks.
func (e *Engine) CurrentSimCycle() SimTime {
	e.timeLock.RLock()
	t := e.currentCycle
	e.timeLock.RUnlock()
	return t
}

// CurrentPriority returns the priority of the activity currently firing.
func (e *Engine) CurrentPriority() int {
	e.timeLock.RLock()
	p := e.currentPriority
	e.timeLock.RUnlock()
	return p
}

func (e *Engine) writeNow(t SimTime, priority int) {
	e.timeLock.Lock()
	e.currentCycle = t
	e.currentPriority = priority
	e.timeLock.Unlock()
}

// InsertActivity schedules an activity to fire at the given time.
func (e *Engine) InsertActivity(t SimTime, a Activity) {
	if t < e.CurrentSimCycle() {
		log.Panicf(
			"cannot schedule activity in the past, %s @ %d, now %d",
			reflect.TypeOf(a), t, e.CurrentSimCycle())
	}

	a.SetDeliveryTime(t)
	e.vortex.Insert(a)
}

// LocalMinimumNextActivityTime returns the delivery time of this engine's
// earliest pending activity, or MaxSimTime with an empty queue.
func (e *Engine) LocalMinimumNextActivityTime() SimTime {
	return e.vortex.FrontTime()
}

// Run fires activities in time order until the queue drains or the stop
// time passes. With a SyncManager installed, the loop additionally stops at
// every synchronization time and hands control to the coordinator; it only
// returns at a synchronization boundary, so that all threads leave their
// final round together.
func (e *Engine) Run() error {
	for {
		e.pauseLock.Lock()

		if e.syncManager != nil {
			ns := e.syncManager.NextSyncTime()
			if e.vortex.FrontTime() >= ns {
				if ns == MaxSimTime || ns > e.stopTime {
					e.pauseLock.Unlock()
					return nil
				}

				e.writeNow(ns, ThreadSyncPriority)

				ctx := HookCtx{
					Domain: e,
					Pos:    HookPosSyncRound,
					Item:   e.syncManager,
				}
				e.InvokeHook(ctx)

				e.syncManager.Execute()
				e.pauseLock.Unlock()
				continue
			}
		}

		if e.vortex.Len() == 0 {
			e.pauseLock.Unlock()
			return nil
		}

		act := e.vortex.Pop()
		if act.DeliveryTime() > e.stopTime {
			e.pauseLock.Unlock()
			continue
		}

		if act.DeliveryTime() < e.CurrentSimCycle() {
			log.Panicf(
				"cannot fire activity in the past, %s @ %d, now %d",
				reflect.TypeOf(act), act.DeliveryTime(), e.CurrentSimCycle())
		}

		e.writeNow(act.DeliveryTime(), act.Priority())

		ctx := HookCtx{
			Domain: e,
			Pos:    HookPosBeforeActivity,
			Item:   act,
		}
		e.InvokeHook(ctx)

		e.fire(act)

		ctx.Pos = HookPosAfterActivity
		e.InvokeHook(ctx)

		e.pauseLock.Unlock()
	}
}

// Handler invocation errors are not caught here. They propagate to the
// caller of Run as panics and terminate the simulation.
func (e *Engine) fire(act Activity) {
	switch a := act.(type) {
	case Event:
		a.DeliveryLink().deliverEvent(a)
	case Action:
		a.Execute()
	default:
		log.Panicf("activity %s is neither an event nor an action",
			reflect.TypeOf(act))
	}
}

// Pause prevents the engine from firing more activities until Continue.
func (e *Engine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows a paused engine to make progress again.
func (e *Engine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// RegisterSimulationEndHandler registers a handler that performs some
// action after the simulation is finished.
func (e *Engine) RegisterSimulationEndHandler(handler SimulationEndHandler) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

// Finished should be called after the simulation ends. It calls all the
// registered SimulationEndHandler.
func (e *Engine) Finished() {
	now := e.CurrentSimCycle()
	for _, h := range e.simulationEndHandlers {
		h.Handle(now)
	}
}
