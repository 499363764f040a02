package cachectrl

import "github.com/sarchlab/kvcam/kv"

// ctrlMiddleware applies control messages before the operation middleware
// runs, so that a reset or an abort takes effect in the cycle it arrives.
// A control message snapshots the pin levels of the engine, so the enable
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
		m.slots.Reset()
		m.clearScratch()
		m.enabled = true

		return
	}

	if msg.Abort {
		// The operation in flight is discarded without a response and
		// without touching storage.
		m.clearScratch()
	}

	m.enabled = msg.Enable
}
