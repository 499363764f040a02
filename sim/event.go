package sim

// VCycle defines a point of time in the simulated space, counted in clock
// cycles. The modeled hardware has a single clock domain, so a cycle count
// fully determines time.
type VCycle int64

// An Event is something going to happen in the future.
type Event interface {
	// Return the cycle that the event should happen
	Cycle() VCycle

	// Returns the handler that can should handle the event
	Handler() Handler

	// IsSecondary tells if the event is a secondary event. Secondary event are
	// handled after all same-cycle primary events are handled.
	IsSecondary() bool
}

// EventBase provides the basic fields and getters for other events
type EventBase struct {
	ID        string
	cycle     VCycle
	handler   Handler
	secondary bool
}

// NewEventBase creates a new EventBase
func NewEventBase(c VCycle, handler Handler) *EventBase {
	e := new(EventBase)
	e.ID = GetIDGenerator().Generate()
	e.cycle = c
	e.handler = handler
	e.secondary = false
	return e
}

// Cycle returns the cycle that the event is going to happen
func (e EventBase) Cycle() VCycle {
	return e.cycle
}

// SetHandler sets which handler that handles the event.
//
// A component can only schedule events for itself. Therefore, the handler in
// this function must be the component who schedules the event. The only
// exception is the kick starting of the simulation, where the kick starter
// can schedule to all components.
func (e EventBase) SetHandler(h Handler) {
	e.handler = h
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary returns true if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// A Handler defines a domain for the events.
//
// One event is always constraint to one Handler, which means the event can
// only be scheduled by one handler and can only directly modify that handler.
type Handler interface {
	Handle(e Event) error
}
