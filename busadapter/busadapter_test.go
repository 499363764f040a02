package busadapter

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/kvcam/kv"
	"github.com/sarchlab/kvcam/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Bus Adapter", func() {
	var (
		mockCtrl   *gomock.Controller
		engine     *MockEngine
		busPort    *MockPort
		bottomPort *MockPort
		ctrlPort   *MockPort
		c          *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())

		engine = NewMockEngine(mockCtrl)

		busPort = NewMockPort(mockCtrl)
		busPort.EXPECT().
			AsRemote().
			Return(sim.RemotePort("Adapter.Bus")).
			AnyTimes()

		bottomPort = NewMockPort(mockCtrl)
		bottomPort.EXPECT().
			AsRemote().
			Return(sim.RemotePort("Adapter.Bottom")).
			AnyTimes()

		ctrlPort = NewMockPort(mockCtrl)
		ctrlPort.EXPECT().
			AsRemote().
			Return(sim.RemotePort("Adapter.Ctrl")).
			AnyTimes()

		c = MakeBuilder().
			WithEngine(engine).
			WithController("Cache.Top").
			Build("Adapter")
		c.busPort = busPort
		c.bottomPort = bottomPort
		c.ctrlPort = ctrlPort
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	expectNoCtrlMsg := func() {
		ctrlPort.EXPECT().PeekIncoming().Return(nil).AnyTimes()
	}

	doWrite := func(addr uint64, data uint32) {
		req := RegWriteReqBuilder{}.
			WithSrc("Host.Bus").
			WithDst("Adapter.Bus").
			WithAddress(addr).
			WithData(data).
			Build()

		busPort.EXPECT().PeekIncoming().Return(req)
		busPort.EXPECT().
			Send(gomock.AssignableToTypeOf(&RegWriteRsp{})).
			Return(nil)
		busPort.EXPECT().RetrieveIncoming().Return(req)

		c.Tick()
	}

	doRead := func(addr uint64) uint32 {
		req := RegReadReqBuilder{}.
			WithSrc("Host.Bus").
			WithDst("Adapter.Bus").
			WithAddress(addr).
			Build()

		var data uint32

		busPort.EXPECT().PeekIncoming().Return(req)
		busPort.EXPECT().
			Send(gomock.AssignableToTypeOf(&RegReadRsp{})).
			DoAndReturn(func(msg sim.Msg) *sim.SendError {
				data = msg.(*RegReadRsp).Data
				return nil
			})
		busPort.EXPECT().RetrieveIncoming().Return(req)

		c.Tick()

		return data
	}

	launch := func(opcode kv.Opcode) kv.OpReq {
		doWrite(RegOperation, uint32(opcode))
		Expect(c.State()).To(Equal("execute"))

		var req kv.OpReq
		bottomPort.EXPECT().
			Send(gomock.Any()).
			DoAndReturn(func(msg sim.Msg) *sim.SendError {
				req = msg.(kv.OpReq)
				return nil
			})
		busPort.EXPECT().PeekIncoming().Return(nil)

		Expect(c.Tick()).To(BeTrue())
		Expect(c.State()).To(Equal("wait"))

		return req
	}

	respond := func(req kv.OpReq, b kv.OpRspBuilder) {
		rsp := b.
			WithSrc("Cache.Top").
			WithDst("Adapter.Bottom").
			WithRspTo(req.Meta().ID).
			Build()

		bottomPort.EXPECT().PeekIncoming().Return(rsp)
		bottomPort.EXPECT().RetrieveIncoming().Return(rsp)
		busPort.EXPECT().PeekIncoming().Return(nil)

		Expect(c.Tick()).To(BeTrue())
		Expect(c.State()).To(Equal("complete"))
	}

	It("should stage operands without launching", func() {
		expectNoCtrlMsg()

		doWrite(RegValueLo, 0x8765FFFF)
		doWrite(RegValueHi, 0x00000001)
		doWrite(RegKey, 0xBEEF)

		Expect(c.State()).To(Equal("idle"))
		Expect(doRead(RegValueLo)).To(Equal(uint32(0x8765FFFF)))
		Expect(doRead(RegValueHi)).To(Equal(uint32(0x00000001)))
		Expect(doRead(RegKey)).To(Equal(uint32(0xBEEF)))
		Expect(doRead(RegStatus)).To(Equal(uint32(0)))
	})

	It("should accept unmapped offsets without effect", func() {
		expectNoCtrlMsg()

		doWrite(0x40, 0xDEADBEEF)

		Expect(c.State()).To(Equal("idle"))
		Expect(doRead(0x40)).To(Equal(uint32(0)))
	})

	It("should apply the byte enable on writes", func() {
		expectNoCtrlMsg()

		doWrite(RegKey, 0xAAAAAAAA)

		req := RegWriteReqBuilder{}.
			WithSrc("Host.Bus").
			WithDst("Adapter.Bus").
			WithAddress(RegKey).
			WithData(0xFFFFFFFF).
			WithByteEnable(0x1).
			Build()
		busPort.EXPECT().PeekIncoming().Return(req)
		busPort.EXPECT().
			Send(gomock.AssignableToTypeOf(&RegWriteRsp{})).
			Return(nil)
		busPort.EXPECT().RetrieveIncoming().Return(req)
		c.Tick()

		Expect(doRead(RegKey)).To(Equal(uint32(0xAAAAAAFF)))
	})

	It("should issue an upsert with the staged operands", func() {
		expectNoCtrlMsg()

		doWrite(RegKey, 0xBEEF)
		doWrite(RegValueLo, 0x8765FFFF)

		req := launch(kv.OpUpsert)

		upsert := req.(*kv.UpsertReq)
		Expect(upsert.Key).To(Equal(kv.Key(0xBEEF)))
		Expect(upsert.Value).To(Equal(kv.Value(0x8765FFFF)))
		Expect(upsert.Meta().Dst).To(Equal(sim.RemotePort("Cache.Top")))
	})

	It("should report the wait state in STATUS", func() {
		expectNoCtrlMsg()

		launch(kv.OpGet)

		req := RegReadReqBuilder{}.
			WithSrc("Host.Bus").
			WithDst("Adapter.Bus").
			WithAddress(RegStatus).
			Build()

		var data uint32
		busPort.EXPECT().PeekIncoming().Return(req)
		busPort.EXPECT().
			Send(gomock.AssignableToTypeOf(&RegReadRsp{})).
			DoAndReturn(func(msg sim.Msg) *sim.SendError {
				data = msg.(*RegReadRsp).Data
				return nil
			})
		busPort.EXPECT().RetrieveIncoming().Return(req)
		bottomPort.EXPECT().PeekIncoming().Return(nil)
		c.Tick()

		Expect(data & StatusDoneBit).To(Equal(uint32(0)))
		Expect(data >> statusStateShift).To(Equal(uint32(stateWait)))
	})

	It("should latch the result of a completed GET", func() {
		expectNoCtrlMsg()

		doWrite(RegKey, 0xBEEF)
		req := launch(kv.OpGet)

		respond(req, kv.OpRspBuilder{}.
			WithDone().
			WithHit().
			WithValue(0x1_8765_FFFF))

		Expect(doRead(RegStatus)).To(Equal(uint32(
			StatusDoneBit | StatusHitBit | uint32(stateComplete)<<statusStateShift)))
		Expect(doRead(RegResultLo)).To(Equal(uint32(0x8765FFFF)))
		Expect(doRead(RegResultHi)).To(Equal(uint32(0x1)))
	})

	It("should latch the error flag", func() {
		expectNoCtrlMsg()

		req := launch(kv.OpDelete)
		respond(req, kv.OpRspBuilder{}.WithDone().WithError())

		status := doRead(RegStatus)
		Expect(status & StatusDoneBit).NotTo(Equal(uint32(0)))
		Expect(status & StatusErrorBit).NotTo(Equal(uint32(0)))
		Expect(status & StatusHitBit).To(Equal(uint32(0)))
	})

	It("should relaunch directly from complete", func() {
		expectNoCtrlMsg()

		req := launch(kv.OpGet)
		respond(req, kv.OpRspBuilder{}.WithDone().WithHit().WithValue(42))

		doWrite(RegOperation, uint32(kv.OpGet))

		Expect(c.State()).To(Equal("execute"))
		Expect(c.Status() & StatusDoneBit).To(Equal(uint32(0)))
	})

	It("should stage an OPERATION write while waiting", func() {
		expectNoCtrlMsg()

		launch(kv.OpGet)

		req := RegWriteReqBuilder{}.
			WithSrc("Host.Bus").
			WithDst("Adapter.Bus").
			WithAddress(RegOperation).
			WithData(uint32(kv.OpDelete)).
			Build()
		busPort.EXPECT().PeekIncoming().Return(req)
		busPort.EXPECT().
			Send(gomock.AssignableToTypeOf(&RegWriteRsp{})).
			Return(nil)
		busPort.EXPECT().RetrieveIncoming().Return(req)
		bottomPort.EXPECT().PeekIncoming().Return(nil)
		c.Tick()

		Expect(c.State()).To(Equal("wait"))
	})

	It("should retry issuing when the controller port is busy", func() {
		expectNoCtrlMsg()

		doWrite(RegOperation, uint32(kv.OpGet))

		bottomPort.EXPECT().Send(gomock.Any()).Return(sim.NewSendError())
		busPort.EXPECT().PeekIncoming().Return(nil)
		Expect(c.Tick()).To(BeFalse())
		Expect(c.State()).To(Equal("execute"))

		bottomPort.EXPECT().Send(gomock.Any()).Return(nil)
		busPort.EXPECT().PeekIncoming().Return(nil)
		Expect(c.Tick()).To(BeTrue())
		Expect(c.State()).To(Equal("wait"))
	})

	It("should retry the bus response when the bus is busy", func() {
		expectNoCtrlMsg()

		req := RegWriteReqBuilder{}.
			WithSrc("Host.Bus").
			WithDst("Adapter.Bus").
			WithAddress(RegKey).
			WithData(1).
			Build()

		busPort.EXPECT().PeekIncoming().Return(req)
		busPort.EXPECT().
			Send(gomock.AssignableToTypeOf(&RegWriteRsp{})).
			Return(sim.NewSendError())
		Expect(c.Tick()).To(BeFalse())

		busPort.EXPECT().PeekIncoming().Return(req)
		busPort.EXPECT().
			Send(gomock.AssignableToTypeOf(&RegWriteRsp{})).
			Return(nil)
		busPort.EXPECT().RetrieveIncoming().Return(req)
		Expect(c.Tick()).To(BeTrue())

		Expect(doRead(RegKey)).To(Equal(uint32(1)))
	})

	It("should clear all registers on reset", func() {
		ctrlPort.EXPECT().PeekIncoming().Return(nil).Times(3)
		doWrite(RegKey, 0xBEEF)
		doWrite(RegValueLo, 42)
		doWrite(RegOperation, uint32(kv.OpGet))
		Expect(c.State()).To(Equal("execute"))

		resetMsg := kv.ControlMsgBuilder{}.
			WithSrc("Driver.Ctrl").
			WithDst("Adapter.Ctrl").
			WithReset().
			Build()

		ctrlPort.EXPECT().PeekIncoming().Return(resetMsg)
		ctrlPort.EXPECT().Send(gomock.Any()).Return(nil)
		ctrlPort.EXPECT().RetrieveIncoming().Return(resetMsg)
		busPort.EXPECT().PeekIncoming().Return(nil)
		Expect(c.Tick()).To(BeTrue())

		Expect(c.State()).To(Equal("idle"))

		ctrlPort.EXPECT().PeekIncoming().Return(nil).AnyTimes()
		Expect(doRead(RegKey)).To(Equal(uint32(0)))
		Expect(doRead(RegValueLo)).To(Equal(uint32(0)))
		Expect(doRead(RegStatus)).To(Equal(uint32(0)))
	})

	It("should discard the transaction in flight on abort", func() {
		ctrlPort.EXPECT().PeekIncoming().Return(nil).Times(2)
		launch(kv.OpGet)

		abortMsg := kv.ControlMsgBuilder{}.
			WithSrc("Driver.Ctrl").
			WithDst("Adapter.Ctrl").
			WithEnable(true).
			WithAbort().
			Build()

		ctrlPort.EXPECT().PeekIncoming().Return(abortMsg)
		ctrlPort.EXPECT().Send(gomock.Any()).Return(nil)
		ctrlPort.EXPECT().RetrieveIncoming().Return(abortMsg)
		busPort.EXPECT().PeekIncoming().Return(nil)
		Expect(c.Tick()).To(BeTrue())

		Expect(c.State()).To(Equal("idle"))
	})
})
