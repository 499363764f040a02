package busadapter

import (
	"log"
	"reflect"

	"github.com/sarchlab/kvcam/kv"
	"github.com/sarchlab/kvcam/tracing"
)

type busMiddleware struct {
	*Comp
}

func (m *busMiddleware) Tick() bool {
	if !m.enabled {
		return false
	}

	madeProgress := false

	// The state machine steps before the register file, so that a launch
	// triggered by an OPERATION write issues its request in the following
	// cycle.
	madeProgress = m.stepFSM() || madeProgress
	madeProgress = m.processBusTxn() || madeProgress

	return madeProgress
}

func (m *busMiddleware) processBusTxn() bool {
	item := m.busPort.PeekIncoming()
	if item == nil {
		return false
	}

	switch req := item.(type) {
	case *RegReadReq:
		return m.handleRead(req)
	case *RegWriteReq:
		return m.handleWrite(req)
	default:
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(item))
	}

	return false
}

func (m *busMiddleware) handleRead(req *RegReadReq) bool {
	rsp := RegReadRspBuilder{}.
		WithSrc(m.busPort.AsRemote()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithData(m.readReg(req.Address)).
		Build()

	if err := m.busPort.Send(rsp); err != nil {
		return false
	}

	m.busPort.RetrieveIncoming()

	return true
}

func (m *busMiddleware) handleWrite(req *RegWriteReq) bool {
	rsp := RegWriteRspBuilder{}.
		WithSrc(m.busPort.AsRemote()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		Build()

	if err := m.busPort.Send(rsp); err != nil {
		return false
	}

	m.busPort.RetrieveIncoming()
	m.writeReg(req.Address, req.Data, req.ByteEnable)

	return true
}

func (m *busMiddleware) stepFSM() bool {
	switch m.state {
	case stateExecute:
		return m.issueReq()
	case stateWait:
		return m.collectRsp()
	}

	return false
}

func (m *busMiddleware) issueReq() bool {
	req := m.buildReq()

	if err := m.bottomPort.Send(req); err != nil {
		return false
	}

	tracing.TraceReqInitiate(req, m.Comp, "")

	m.inflightReq = req
	m.launchedOpcode = m.stagedOpcode
	m.state = stateWait

	return true
}

func (m *busMiddleware) buildReq() kv.OpReq {
	src := m.bottomPort.AsRemote()
	key := kv.Key(m.stagedKey).Mask(m.keyWidthInBits)
	value := kv.Value(m.stagedValue).Mask(m.valueWidthInBits)

	switch m.stagedOpcode {
	case kv.OpGet:
		return kv.GetReqBuilder{}.
			WithSrc(src).
			WithDst(m.controller).
			WithKey(key).
			Build()
	case kv.OpUpsert:
		return kv.UpsertReqBuilder{}.
			WithSrc(src).
			WithDst(m.controller).
			WithKey(key).
			WithValue(value).
			Build()
	case kv.OpDelete:
		return kv.DeleteReqBuilder{}.
			WithSrc(src).
			WithDst(m.controller).
			WithKey(key).
			Build()
	default:
		return kv.NoopReqBuilder{}.
			WithSrc(src).
			WithDst(m.controller).
			Build()
	}
}

func (m *busMiddleware) collectRsp() bool {
	item := m.bottomPort.PeekIncoming()
	if item == nil {
		return false
	}

	rsp, ok := item.(*kv.OpRsp)
	if !ok {
		log.Panicf("cannot handle response of type %s", reflect.TypeOf(item))
	}

	if rsp.GetRspTo() != m.inflightReq.Meta().ID {
		log.Panicf("response %s does not match the operation in flight",
			rsp.GetRspTo())
	}

	m.bottomPort.RetrieveIncoming()
	tracing.TraceReqFinalize(m.inflightReq, m.Comp)

	m.done = rsp.Done
	m.hit = rsp.Hit
	m.opError = rsp.Error

	if m.launchedOpcode == kv.OpGet {
		m.result = uint64(rsp.Value)
	}

	m.inflightReq = nil
	m.state = stateComplete

	return true
}
