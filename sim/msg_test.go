package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("GeneralRsp", func() {
	It("should respond to the original request", func() {
		req := NewSampleMsg()
		req.ID = GetIDGenerator().Generate()
		req.Src = "Comp1.Port"
		req.Dst = "Comp2.Port"

		rsp := GeneralRspBuilder{}.
			WithSrc(req.Dst).
			WithDst(req.Src).
			WithOriginalReq(req).
			Build()

		Expect(rsp.GetRspTo()).To(Equal(req.ID))
		Expect(rsp.Meta().Src).To(Equal(req.Dst))
		Expect(rsp.Meta().Dst).To(Equal(req.Src))
	})

	It("should clone with a different ID", func() {
		req := NewSampleMsg()
		req.ID = GetIDGenerator().Generate()

		rsp := GeneralRspBuilder{}.
			WithSrc("Comp1.Port").
			WithDst("Comp2.Port").
			WithOriginalReq(req).
			Build()

		cloneMsg := rsp.Clone()

		Expect(cloneMsg.Meta().ID).NotTo(Equal(rsp.Meta().ID))
		Expect(cloneMsg.Meta().Src).To(Equal(rsp.Meta().Src))
		Expect(cloneMsg.Meta().Dst).To(Equal(rsp.Meta().Dst))
	})
})
