package sim

import (
	"sync"
)

// TickEvent is a generic event that almost all the component can use to
// update their status.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a new TickEvent
func MakeTickEvent(handler Handler, cycle VCycle) TickEvent {
	evt := TickEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.cycle = cycle
	evt.secondary = false

	return evt
}

// A Ticker is an object that updates states with ticks.
type Ticker interface {
	Tick() bool
}

// TickScheduler can help schedule tick events.
type TickScheduler struct {
	lock      sync.Mutex
	handler   Handler
	Engine    Engine
	secondary bool

	nextTickCycle VCycle
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	handler Handler,
	engine Engine,
) *TickScheduler {
	ticker := new(TickScheduler)

	ticker.handler = handler
	ticker.Engine = engine
	ticker.nextTickCycle = -1 // This will make sure the first tick is scheduled

	return ticker
}

// NewSecondaryTickScheduler creates a scheduler that always schedule secondary
// tick events.
func NewSecondaryTickScheduler(
	handler Handler,
	engine Engine,
) *TickScheduler {
	ticker := new(TickScheduler)

	ticker.handler = handler
	ticker.Engine = engine
	ticker.secondary = true
	ticker.nextTickCycle = -1 // This will make sure the first tick is scheduled

	return ticker
}

// TickNow schedule a Tick event at the current cycle.
func (t *TickScheduler) TickNow() {
	t.lock.Lock()
	cycle := t.CurrentCycle()

	if t.nextTickCycle >= cycle {
		t.lock.Unlock()
		return
	}

	t.nextTickCycle = cycle
	tick := MakeTickEvent(t.handler, t.nextTickCycle)

	if t.secondary {
		tick.secondary = true
	}

	t.Engine.Schedule(tick)
	t.lock.Unlock()
}

// TickLater will schedule a tick event at the cycle after the current cycle.
func (t *TickScheduler) TickLater() {
	t.lock.Lock()
	cycle := t.CurrentCycle() + 1

	if t.nextTickCycle >= cycle {
		t.lock.Unlock()
		return
	}

	t.nextTickCycle = cycle
	tick := MakeTickEvent(t.handler, t.nextTickCycle)

	if t.secondary {
		tick.secondary = true
	}

	t.Engine.Schedule(tick)
	t.lock.Unlock()
}

// CurrentCycle returns the current cycle of the engine.
func (t *TickScheduler) CurrentCycle() VCycle {
	return t.Engine.CurrentCycle()
}

// TickingComponent is a type of component that update states from cycle to
// cycle. A programmer would only need to program a tick function for a ticking
// component.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker Ticker
}

// NotifyPortFree triggers the TickingComponent to start ticking again.
func (c *TickingComponent) NotifyPortFree(
	_ Port,
) {
	c.TickLater()
}

// NotifyRecv triggers the TickingComponent to start ticking again.
func (c *TickingComponent) NotifyRecv(
	_ Port,
) {
	c.TickLater()
}

// Handle triggers the tick function of the TickingComponent
func (c *TickingComponent) Handle(_ Event) error {
	madeProgress := c.ticker.Tick()
	if madeProgress {
		c.TickLater()
	}

	return nil
}

// NewTickingComponent creates a new ticking component
func NewTickingComponent(
	name string,
	engine Engine,
	ticker Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = NewTickScheduler(tc, engine)
	tc.ComponentBase = NewComponentBase(name)
	tc.ticker = ticker

	return tc
}

// NewSecondaryTickingComponent creates a new ticking component that ticks
// after all same-cycle primary events are handled.
func NewSecondaryTickingComponent(
	name string,
	engine Engine,
	ticker Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = NewSecondaryTickScheduler(tc, engine)
	tc.ComponentBase = NewComponentBase(name)
	tc.ticker = ticker

	return tc
}
