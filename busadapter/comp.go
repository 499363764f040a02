// Package busadapter provides the register-mapped front end of the key-value
// cache engine. A host drives the engine by writing the operand registers
// and the OPERATION register, then polling STATUS and reading RESULT.
package busadapter

import (
	"github.com/sarchlab/kvcam/kv"
	"github.com/sarchlab/kvcam/sim"
)

type adapterState int

// The state encoding is observable in STATUS bits [4:3].
const (
	stateIdle adapterState = iota
	stateExecute
	stateWait
	stateComplete
)

func (s adapterState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateExecute:
		return "execute"
	case stateWait:
		return "wait"
	case stateComplete:
		return "complete"
	}

	return "unknown"
}

// Comp is the bus interface adapter. It accepts register transactions on the
// Bus port, drives the dispatch controller through the Bottom port, and
// accepts control messages on the Ctrl port.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	busPort    sim.Port
	bottomPort sim.Port
	ctrlPort   sim.Port

	controller       sim.RemotePort
	keyWidthInBits   int
	valueWidthInBits int

	enabled bool
	state   adapterState

	stagedValue  uint64
	stagedKey    uint32
	stagedOpcode kv.Opcode

	inflightReq    kv.OpReq
	launchedOpcode kv.Opcode

	done    bool
	hit     bool
	opError bool
	result  uint64
}

// Tick advances the adapter by one cycle.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

// State returns the name of the adapter state, for inspection.
func (c *Comp) State() string {
	return c.state.String()
}

// Status assembles the STATUS register word.
func (c *Comp) Status() uint32 {
	var status uint32

	if c.done {
		status |= StatusDoneBit
	}

	if c.hit {
		status |= StatusHitBit
	}

	if c.opError {
		status |= StatusErrorBit
	}

	status |= uint32(c.state) << statusStateShift

	return status
}

func (c *Comp) readReg(address uint64) uint32 {
	switch address {
	case RegValueLo:
		return uint32(c.stagedValue)
	case RegValueHi:
		return uint32(c.stagedValue >> 32)
	case RegKey:
		return c.stagedKey
	case RegOperation:
		return uint32(c.stagedOpcode)
	case RegStatus:
		return c.Status()
	case RegResultLo:
		return uint32(c.result)
	case RegResultHi:
		return uint32(c.result >> 32)
	}

	// Unmapped offsets read as zero.
	return 0
}

func (c *Comp) writeReg(address uint64, data uint32, byteEnable uint8) {
	switch address {
	case RegValueLo:
		word := mergeWord(uint32(c.stagedValue), data, byteEnable)
		c.stagedValue = c.stagedValue&^uint64(0xFFFFFFFF) | uint64(word)
	case RegValueHi:
		word := mergeWord(uint32(c.stagedValue>>32), data, byteEnable)
		c.stagedValue = c.stagedValue&uint64(0xFFFFFFFF) | uint64(word)<<32
	case RegKey:
		c.stagedKey = mergeWord(c.stagedKey, data, byteEnable)
	case RegOperation:
		c.stagedOpcode = kv.Opcode(mergeWord(
			uint32(c.stagedOpcode), data, byteEnable) & 0x3)
		c.launchIfPossible()
	default:
		// Unmapped offsets accept writes without effect.
	}
}

// launchIfPossible starts a new operation when the adapter can accept one. A
// write to OPERATION while an operation is in flight only stages the opcode.
func (c *Comp) launchIfPossible() {
	if c.state != stateIdle && c.state != stateComplete {
		return
	}

	c.done = false
	c.hit = false
	c.opError = false
	c.state = stateExecute
}

func (c *Comp) clearRegs() {
	c.state = stateIdle
	c.stagedValue = 0
	c.stagedKey = 0
	c.stagedOpcode = kv.OpNoop
	c.inflightReq = nil
	c.launchedOpcode = kv.OpNoop
	c.done = false
	c.hit = false
	c.opError = false
	c.result = 0
}

func mergeWord(old, data uint32, byteEnable uint8) uint32 {
	word := old

	for i := 0; i < 4; i++ {
		if byteEnable&(1<<i) == 0 {
			continue
		}

		mask := uint32(0xFF) << (8 * i)
		word = word&^mask | data&mask
	}

	return word
}
