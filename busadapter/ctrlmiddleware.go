package busadapter

import "github.com/sarchlab/kvcam/kv"

// ctrlMiddleware applies control messages before the bus middleware runs. A
// control message snapshots the pin levels of the engine, so the enable
// level is applied on every message.
type ctrlMiddleware struct {
	*Comp
}

func (m *ctrlMiddleware) Tick() (madeProgress bool) {
	item := m.ctrlPort.PeekIncoming()
	if item == nil {
		return false
	}

	msg := item.(*kv.ControlMsg)

	rsp := msg.GenerateRsp()
	if err := m.ctrlPort.Send(rsp); err != nil {
		return false
	}

	m.ctrlPort.RetrieveIncoming()
	m.applyControl(msg)

	return true
}

func (m *ctrlMiddleware) applyControl(msg *kv.ControlMsg) {
	if msg.Reset {
		m.clearRegs()
		m.enabled = true

		return
	}

	if msg.Abort {
		// The transaction in flight is discarded. The controller discards
		// its half on its own abort message.
		m.inflightReq = nil
		m.state = stateIdle
	}

	m.enabled = msg.Enable
}
