// Package hostagent provides a host model that drives the cache engine
// through its register interface and checks the outcome of every operation
// against a software oracle.
package hostagent

import (
	"fmt"
	"log"
	"reflect"

	"github.com/sarchlab/kvcam/busadapter"
	"github.com/sarchlab/kvcam/kv"
	"github.com/sarchlab/kvcam/sim"
)

// An Op is one scripted operation.
type Op struct {
	Opcode kv.Opcode
	Key    kv.Key
	Value  kv.Value
}

// An OpResult records the outcome of one scripted operation as observed
// through the register interface.
type OpResult struct {
	Op     Op
	Polls  int
	Status uint32
	Result uint64

	Done  bool
	Hit   bool
	Error bool
}

type agentPhase int

const (
	phaseWriteValueLo agentPhase = iota
	phaseWriteValueHi
	phaseWriteKey
	phaseWriteOperation
	phasePollStatus
	phaseReadResultLo
	phaseReadResultHi
)

// Comp drives scripted operations into a bus adapter. Every operation writes
// the operand registers, launches through OPERATION, polls STATUS with a
// bounded number of polls, and reads RESULT back for a GET.
type Comp struct {
	*sim.TickingComponent

	busPort  sim.Port
	adapter  sim.RemotePort
	numSlots int
	maxPolls int

	script   []Op
	opIndex  int
	phase    agentPhase
	pending  sim.Msg
	polls    int
	current  OpResult
	resultLo uint32

	oracle   map[kv.Key]kv.Value
	results  []OpResult
	failures []string
	finished bool
}

// Results returns the outcome of all completed operations.
func (c *Comp) Results() []OpResult {
	return c.results
}

// Failures returns the oracle mismatches observed so far.
func (c *Comp) Failures() []string {
	return c.failures
}

// Finished returns true when the whole script has completed.
func (c *Comp) Finished() bool {
	return c.finished
}

// Tick advances the agent by one cycle.
func (c *Comp) Tick() bool {
	if c.finished {
		return false
	}

	if c.pending != nil {
		return c.collectRsp()
	}

	return c.issueNext()
}

func (c *Comp) issueNext() bool {
	op := c.script[c.opIndex]

	var req sim.Msg
	switch c.phase {
	case phaseWriteValueLo:
		req = c.writeReq(busadapter.RegValueLo, uint32(op.Value))
	case phaseWriteValueHi:
		req = c.writeReq(busadapter.RegValueHi, uint32(op.Value>>32))
	case phaseWriteKey:
		req = c.writeReq(busadapter.RegKey, uint32(op.Key))
	case phaseWriteOperation:
		req = c.writeReq(busadapter.RegOperation, uint32(op.Opcode))
	case phasePollStatus:
		req = c.readReq(busadapter.RegStatus)
	case phaseReadResultLo:
		req = c.readReq(busadapter.RegResultLo)
	case phaseReadResultHi:
		req = c.readReq(busadapter.RegResultHi)
	}

	if err := c.busPort.Send(req); err != nil {
		return false
	}

	c.pending = req

	return true
}

func (c *Comp) writeReq(address uint64, data uint32) sim.Msg {
	return busadapter.RegWriteReqBuilder{}.
		WithSrc(c.busPort.AsRemote()).
		WithDst(c.adapter).
		WithAddress(address).
		WithData(data).
		Build()
}

func (c *Comp) readReq(address uint64) sim.Msg {
	return busadapter.RegReadReqBuilder{}.
		WithSrc(c.busPort.AsRemote()).
		WithDst(c.adapter).
		WithAddress(address).
		Build()
}

func (c *Comp) collectRsp() bool {
	item := c.busPort.PeekIncoming()
	if item == nil {
		return false
	}

	c.busPort.RetrieveIncoming()

	switch rsp := item.(type) {
	case *busadapter.RegWriteRsp:
		c.rspMustMatchPending(rsp.GetRspTo())
		c.advanceAfterWrite()
	case *busadapter.RegReadRsp:
		c.rspMustMatchPending(rsp.GetRspTo())
		c.advanceAfterRead(rsp.Data)
	default:
		log.Panicf("cannot handle response of type %s", reflect.TypeOf(item))
	}

	c.pending = nil

	return true
}

func (c *Comp) rspMustMatchPending(rspTo string) {
	if rspTo != c.pending.Meta().ID {
		panic("response does not match the pending register transaction")
	}
}

func (c *Comp) advanceAfterWrite() {
	if c.phase == phaseWriteOperation {
		c.phase = phasePollStatus
		c.polls = 0

		return
	}

	c.phase++
}

func (c *Comp) advanceAfterRead(data uint32) {
	switch c.phase {
	case phasePollStatus:
		c.handleStatus(data)
	case phaseReadResultLo:
		c.resultLo = data
		c.phase = phaseReadResultHi
	case phaseReadResultHi:
		c.current.Result = uint64(data)<<32 | uint64(c.resultLo)
		c.completeOp()
	}
}

func (c *Comp) handleStatus(status uint32) {
	c.polls++

	if status&busadapter.StatusDoneBit == 0 {
		if c.polls >= c.maxPolls {
			c.fail("operation %d did not complete within %d polls",
				c.opIndex, c.maxPolls)
			c.current = OpResult{
				Op:     c.script[c.opIndex],
				Polls:  c.polls,
				Status: status,
			}
			c.completeOp()
		}

		return
	}

	c.current = OpResult{
		Op:     c.script[c.opIndex],
		Polls:  c.polls,
		Status: status,
		Done:   true,
		Hit:    status&busadapter.StatusHitBit != 0,
		Error:  status&busadapter.StatusErrorBit != 0,
	}

	if c.script[c.opIndex].Opcode == kv.OpGet {
		c.phase = phaseReadResultLo
		return
	}

	c.completeOp()
}

func (c *Comp) completeOp() {
	c.checkAgainstOracle()

	c.results = append(c.results, c.current)
	c.opIndex++
	c.phase = phaseWriteValueLo
	c.current = OpResult{}

	if c.opIndex >= len(c.script) {
		c.finished = true
	}
}

// checkAgainstOracle applies the operation to the software model and
// compares the observed status and result with the expectation.
func (c *Comp) checkAgainstOracle() {
	op := c.script[c.opIndex]

	if !c.current.Done {
		return
	}

	expectHit := false
	expectError := false
	var expectValue kv.Value

	switch op.Opcode {
	case kv.OpGet:
		expectValue, expectHit = c.oracle[op.Key]
	case kv.OpUpsert:
		_, expectHit = c.oracle[op.Key]
		if !expectHit && len(c.oracle) >= c.numSlots {
			expectError = true
		} else {
			c.oracle[op.Key] = op.Value
		}
	case kv.OpDelete:
		_, expectHit = c.oracle[op.Key]
		if expectHit {
			delete(c.oracle, op.Key)
		} else {
			expectError = true
		}
	}

	if c.current.Hit != expectHit {
		c.fail("operation %d: hit is %t, expected %t",
			c.opIndex, c.current.Hit, expectHit)
	}

	if c.current.Error != expectError {
		c.fail("operation %d: error is %t, expected %t",
			c.opIndex, c.current.Error, expectError)
	}

	if op.Opcode == kv.OpGet && expectHit &&
		c.current.Result != uint64(expectValue) {
		c.fail("operation %d: result is 0x%X, expected 0x%X",
			c.opIndex, c.current.Result, uint64(expectValue))
	}
}

func (c *Comp) fail(format string, args ...any) {
	c.failures = append(c.failures, fmt.Sprintf(format, args...))
}

// Builder can build host agents.
type Builder struct {
	engine   sim.Engine
	adapter  sim.RemotePort
	numSlots int
	maxPolls int
	script   []Op
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numSlots: 16,
		maxPolls: 20,
	}
}

// WithEngine sets the engine that drives the agent.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithAdapter sets the remote Bus port of the adapter under test.
func (b Builder) WithAdapter(adapter sim.RemotePort) Builder {
	b.adapter = adapter
	return b
}

// WithNumSlots tells the oracle the capacity of the engine.
func (b Builder) WithNumSlots(numSlots int) Builder {
	b.numSlots = numSlots
	return b
}

// WithMaxPolls bounds the number of STATUS polls per operation.
func (b Builder) WithMaxPolls(maxPolls int) Builder {
	b.maxPolls = maxPolls
	return b
}

// WithScript sets the operations that the agent performs.
func (b Builder) WithScript(script []Op) Builder {
	b.script = script
	return b
}

// Build creates a host agent with the given name.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		adapter:  b.adapter,
		numSlots: b.numSlots,
		maxPolls: b.maxPolls,
		script:   b.script,
		oracle:   make(map[kv.Key]kv.Value),
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, c)

	c.busPort = sim.NewPort(c, 4, 4, name+".Bus")
	c.AddPort("Bus", c.busPort)

	if len(c.script) == 0 {
		c.finished = true
	}

	return c
}
