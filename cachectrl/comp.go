// Package cachectrl provides the dispatch controller of the key-value cache
// engine. The controller owns the slot array and runs one operation at a
// time, selecting a sub-state-machine by opcode.
package cachectrl

import (
	"github.com/sarchlab/kvcam/cachectrl/internal/slotarray"
	"github.com/sarchlab/kvcam/kv"
	"github.com/sarchlab/kvcam/sim"
)

type dispatchState int

const (
	stateIdle dispatchState = iota
	stateGet
	statePut
	stateDel
)

func (s dispatchState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateGet:
		return "get"
	case statePut:
		return "put"
	case stateDel:
		return "del"
	}

	return "unknown"
}

// Outputs groups the signals that the controller exposes to observers. All
// fields are zero while the controller is idle. Strobes are asserted for a
// single cycle.
type Outputs struct {
	SlotOneHot   uint64
	WriteStrobe  bool
	DeleteStrobe bool
	Select       bool
	Ready        bool
	Success      bool
}

// Comp is the dispatch controller. It accepts operation requests on the Top
// port and control messages on the Ctrl port.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort  sim.Port
	ctrlPort sim.Port

	slots            *slotarray.SlotArray
	keyWidthInBits   int
	valueWidthInBits int

	enabled bool
	state   dispatchState
	step    int

	currentReq kv.OpReq
	opKey      kv.Key
	opValue    kv.Value
	savedSlot  int
	savedHit   bool

	pendingRsp *kv.OpRsp
	outputs    Outputs
}

// Tick advances the controller by one cycle.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

// Outputs returns the signals the controller asserted in the last cycle.
func (c *Comp) Outputs() Outputs {
	return c.outputs
}

// State returns the name of the dispatch state, for inspection.
func (c *Comp) State() string {
	return c.state.String()
}

// Occupancy returns the valid bitmap of the slot array.
func (c *Comp) Occupancy() uint64 {
	return c.slots.Occupancy()
}

func (c *Comp) clearScratch() {
	c.state = stateIdle
	c.step = 0
	c.currentReq = nil
	c.opKey = 0
	c.opValue = 0
	c.savedSlot = 0
	c.savedHit = false
	c.pendingRsp = nil
	c.outputs = Outputs{}
}
