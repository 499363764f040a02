package cachectrl

import (
	"log"
	"reflect"

	"github.com/sarchlab/kvcam/kv"
	"github.com/sarchlab/kvcam/tracing"
)

// The sub-state-machines advance one state per cycle. The completed result
// is staged in pendingRsp and sent in the following cycle, so that the
// storage strobes are asserted for exactly one cycle even when the Top port
// is busy.
const (
	putStepLookup = iota
	putStepCommit
)

const (
	delStepStart = iota
	delStepClear
)

type opMiddleware struct {
	*Comp
}

func (m *opMiddleware) Tick() bool {
	if !m.enabled {
		return false
	}

	m.outputs = Outputs{}

	if m.pendingRsp != nil {
		return m.sendRsp()
	}

	switch m.state {
	case stateIdle:
		return m.acceptReq()
	case stateGet:
		return m.stepGet()
	case statePut:
		return m.stepPut()
	case stateDel:
		return m.stepDel()
	}

	return false
}

func (m *opMiddleware) acceptReq() bool {
	item := m.topPort.PeekIncoming()
	if item == nil {
		return false
	}

	req, ok := item.(kv.OpReq)
	if !ok {
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(item))
	}

	m.topPort.RetrieveIncoming()
	tracing.TraceReqReceive(req, m.Comp)

	m.currentReq = req
	m.opKey = req.GetKey().Mask(m.keyWidthInBits)
	m.step = 0

	switch req.GetOpcode() {
	case kv.OpNoop:
		m.completeNoop()
	case kv.OpGet:
		m.state = stateGet
	case kv.OpUpsert:
		m.opValue = req.(*kv.UpsertReq).Value.Mask(m.valueWidthInBits)
		m.state = statePut
	case kv.OpDelete:
		m.state = stateDel
	default:
		log.Panicf("cannot handle opcode %s", req.GetOpcode())
	}

	return true
}

// A no-op touches no storage and completes in the cycle it is accepted.
// All outputs stay deasserted, as if the controller had stayed idle.
func (m *opMiddleware) completeNoop() {
	m.pendingRsp = m.rspBuilder().WithDone().Build()
}

func (m *opMiddleware) stepGet() bool {
	slot, hit := m.slots.Lookup(uint64(m.opKey))

	if !hit {
		m.outputs = Outputs{Ready: true, Success: true}
		m.pendingRsp = m.rspBuilder().WithDone().Build()

		return true
	}

	_, value := m.slots.Read(slot)
	m.outputs = Outputs{
		SlotOneHot: m.slots.OneHot(slot),
		Select:     true,
		Ready:      true,
		Success:    true,
	}
	m.pendingRsp = m.rspBuilder().
		WithDone().
		WithHit().
		WithValue(kv.Value(value)).
		WithSlotOneHot(m.slots.OneHot(slot)).
		Build()

	return true
}

func (m *opMiddleware) stepPut() bool {
	switch m.step {
	case putStepLookup:
		m.savedSlot, m.savedHit = m.slots.Lookup(uint64(m.opKey))
		m.step = putStepCommit
	case putStepCommit:
		m.commitPut()
	}

	return true
}

func (m *opMiddleware) commitPut() {
	slot := m.savedSlot

	if !m.savedHit {
		free, ok := m.slots.FirstFree()
		if !ok {
			// Full and the key is absent. The array is left untouched and
			// the rejection is reported in the error flag.
			m.outputs = Outputs{Ready: true}
			m.pendingRsp = m.rspBuilder().WithDone().WithError().Build()

			return
		}

		slot = free
	}

	m.slots.Write(slot, uint64(m.opKey), uint64(m.opValue))

	m.outputs = Outputs{
		SlotOneHot:  m.slots.OneHot(slot),
		WriteStrobe: true,
		Select:      true,
		Ready:       true,
		Success:     true,
	}

	builder := m.rspBuilder().
		WithDone().
		WithSlotOneHot(m.slots.OneHot(slot))
	if m.savedHit {
		builder = builder.WithHit()
	}

	m.pendingRsp = builder.Build()
}

func (m *opMiddleware) stepDel() bool {
	switch m.step {
	case delStepStart:
		m.savedSlot, m.savedHit = m.slots.Lookup(uint64(m.opKey))
		m.step = delStepClear
	case delStepClear:
		m.commitDel()
	}

	return true
}

func (m *opMiddleware) commitDel() {
	if !m.savedHit {
		// Deleting an absent key is idempotent. Storage is untouched and
		// the miss is reported in the error flag.
		m.outputs = Outputs{Ready: true}
		m.pendingRsp = m.rspBuilder().WithDone().WithError().Build()

		return
	}

	oneHot := m.slots.OneHot(m.savedSlot)
	m.slots.Clear(m.savedSlot)

	m.outputs = Outputs{
		SlotOneHot:   oneHot,
		DeleteStrobe: true,
		Select:       true,
		Ready:        true,
		Success:      true,
	}
	m.pendingRsp = m.rspBuilder().
		WithDone().
		WithHit().
		WithSlotOneHot(oneHot).
		Build()
}

func (m *opMiddleware) sendRsp() bool {
	err := m.topPort.Send(m.pendingRsp)
	if err != nil {
		return false
	}

	tracing.TraceReqComplete(m.currentReq, m.Comp)

	m.state = stateIdle
	m.step = 0
	m.currentReq = nil
	m.pendingRsp = nil

	return true
}

func (m *opMiddleware) rspBuilder() kv.OpRspBuilder {
	return kv.OpRspBuilder{}.
		WithSrc(m.topPort.AsRemote()).
		WithDst(m.currentReq.Meta().Src).
		WithRspTo(m.currentReq.Meta().ID)
}
